package signup

import (
	"github.com/DukeRupert/enroll/internal/i18n"
	"github.com/DukeRupert/enroll/internal/signup"
)

// PageData contains data for the sign-up page and its fragments
type PageData struct {
	Lang      string           // BCP 47 tag of the rendered language
	CSRFToken string           // Token for the hidden csrf_token field
	State     signup.State     // Snapshot of the form being rendered
	T         i18n.Resolver    // Text lookup for the request language
	Languages []LanguageOption // Language switcher entries
}

// LanguageOption is one entry of the language switcher
type LanguageOption struct {
	Tag    string
	Label  string
	Active bool
}

// InputData describes one labelled input with its help text
type InputData struct {
	ID    string // Element id and form field name
	Label string
	Type  string // "text", "email" or "password"
	Value string // Ignored for password inputs
	Help  string // Server error or mismatch notice; empty hides the help line
}
