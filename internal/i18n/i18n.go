// Package i18n resolves user-facing sign-up text by key.
//
// Messages are registered with golang.org/x/text/message per supported
// locale; a Resolver is a lookup bound to one locale.
package i18n

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the user's language preference.
	LangCookieName = "enroll_lang"
)

// Message keys
const (
	KeySignUp                        = "signUp"
	KeyUsername                      = "username"
	KeyEmail                         = "email"
	KeyPassword                      = "password"
	KeyRepeatPassword                = "repeatPassword"
	KeySignUpButton                  = "signUpButton"
	KeyPasswordMismatch              = "passwordMismatch"
	KeyAccountActivationNotification = "accountActivationNotification"
	KeySubmitFailed                  = "submitFailed"
	KeyLanguage                      = "language"
)

// Keys lists every key a locale catalog must define.
func Keys() []string {
	return []string{
		KeySignUp,
		KeyUsername,
		KeyEmail,
		KeyPassword,
		KeyRepeatPassword,
		KeySignUpButton,
		KeyPasswordMismatch,
		KeyAccountActivationNotification,
		KeySubmitFailed,
		KeyLanguage,
	}
}

var supportedTags = []language.Tag{
	language.English,
	language.Turkish,
}

var tagMatcher = language.NewMatcher(supportedTags)

// Supported returns the list of supported language tags.
func Supported() []language.Tag {
	tags := make([]language.Tag, len(supportedTags))
	copy(tags, supportedTags)
	return tags
}

// Default returns the default language tag.
func Default() language.Tag {
	return language.English
}

// Resolver maps a message key to text in one locale.
type Resolver func(key string) string

// ResolverFor returns a Resolver for tag. Unknown keys resolve to themselves.
func ResolverFor(tag language.Tag) Resolver {
	p := message.NewPrinter(tag)
	return func(key string) string {
		return p.Sprintf(message.Key(key, key))
	}
}

// parseTag accepts only supported languages.
func parseTag(value string) (language.Tag, bool) {
	tag, err := language.Parse(strings.TrimSpace(value))
	if err != nil {
		return language.Und, false
	}
	base, _ := tag.Base()
	for _, supported := range supportedTags {
		if sb, _ := supported.Base(); sb == base {
			return supported, true
		}
	}
	return language.Und, false
}

// ResolveTag determines the best language tag for the request.
// The bool indicates whether the lang query param should be persisted as a cookie.
func ResolveTag(r *http.Request) (language.Tag, bool) {
	if r == nil {
		return Default(), false
	}

	if langValue := strings.TrimSpace(r.URL.Query().Get(LangParam)); langValue != "" {
		if tag, ok := parseTag(langValue); ok {
			return tag, true
		}
	}

	if cookie, err := r.Cookie(LangCookieName); err == nil {
		if tag, ok := parseTag(cookie.Value); ok {
			return tag, false
		}
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			_, index, conf := tagMatcher.Match(tags...)
			if conf != language.No {
				return supportedTags[index], false
			}
		}
	}

	return Default(), false
}

// SetLanguageCookie persists the selected language on the response.
func SetLanguageCookie(w http.ResponseWriter, tag language.Tag) {
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    tag.String(),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest resolves the request language, persisting an explicit choice,
// and returns the tag with its Resolver.
func FromRequest(w http.ResponseWriter, r *http.Request) (language.Tag, Resolver) {
	tag, persist := ResolveTag(r)
	if persist {
		SetLanguageCookie(w, tag)
	}
	return tag, ResolverFor(tag)
}
