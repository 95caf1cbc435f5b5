package signup

import (
	"context"
	"fmt"
	"io"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/a-h/templ"

	"github.com/DukeRupert/enroll/internal/i18n"
	"github.com/DukeRupert/enroll/internal/signup"
)

// Element ids htmx swaps sign-up fragments into.
const (
	ContainerID = "signup"
	NoticeID    = "signup-notice"
	ActionsID   = "signup-actions"
)

const (
	inputBaseClass = "mt-1 block w-full rounded-md border border-gray-300 px-3 py-2 shadow-sm focus:border-forest focus:outline-none"
	// The input is never re-rendered on edits, so its invalid style follows
	// the help span next to it.
	inputInvalidClass = "group-has-[[data-invalid]]:border-red-500 group-has-[[data-invalid]]:focus:border-red-600"
	helpClass         = "invalid-feedback text-sm text-red-600"
	buttonClass       = "inline-flex items-center gap-2 rounded-md bg-forest px-4 py-2 text-white"
	buttonIdleClass   = "disabled:cursor-not-allowed disabled:opacity-50"
)

// Page renders the full sign-up document.
func Page(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := data.T(i18n.KeySignUp)
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="%s"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>%s</title><script src="https://unpkg.com/htmx.org@2.0.4"></script></head><body class="bg-gray-50">`,
			templ.EscapeString(data.Lang), templ.EscapeString(title)); err != nil {
			return err
		}
		if err := LanguageSwitcher(data).Render(ctx, w); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<div id="%s" class="mx-auto mt-5 max-w-lg">`, ContainerID); err != nil {
			return err
		}
		if err := Body(data).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</div></body></html>`)
		return err
	})
}

// Body renders the content of the sign-up container: the form, or the
// confirmation notice once the form has succeeded.
func Body(data PageData) templ.Component {
	if data.State.Succeeded {
		return Confirmation(data.T)
	}
	return Form(data)
}

// Update renders the htmx answer to an edit or a submit. Every part is an
// out-of-band swap so the inputs, and whatever the user is typing into them,
// stay in place. Once the form has succeeded the whole container is replaced
// by the confirmation.
func Update(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if data.State.Succeeded {
			if _, err := fmt.Fprintf(w, `<div id="%s" hx-swap-oob="innerHTML">`, ContainerID); err != nil {
				return err
			}
			if err := Confirmation(data.T).Render(ctx, w); err != nil {
				return err
			}
			_, err := io.WriteString(w, `</div>`)
			return err
		}

		for _, in := range inputs(data) {
			if err := Help(in.ID, in.Help, true).Render(ctx, w); err != nil {
				return err
			}
		}
		if err := Notice(data, true).Render(ctx, w); err != nil {
			return err
		}
		return Actions(data, true).Render(ctx, w)
	})
}

// Form renders the sign-up form.
func Form(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<form class="card mt-5" data-testid="form-sign-up" method="post" action="/signup" hx-post="/signup" hx-swap="none" hx-disabled-elt="find button[type=submit]">`); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<input type="hidden" name="csrf_token" value="%s">`, templ.EscapeString(data.CSRFToken)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<div class="card-header"><h1 class="text-center">%s</h1></div><div class="card-body">`, templ.EscapeString(data.T(i18n.KeySignUp))); err != nil {
			return err
		}

		for _, in := range inputs(data) {
			if err := Input(in).Render(ctx, w); err != nil {
				return err
			}
		}
		if err := Notice(data, false).Render(ctx, w); err != nil {
			return err
		}
		if err := Actions(data, false).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</div></form>`)
		return err
	})
}

// inputs lists the four fields in display order. The repeat field's help
// line carries the mismatch notice.
func inputs(data PageData) []InputData {
	t := data.T
	s := data.State

	mismatch := ""
	if s.PasswordMismatch() {
		mismatch = t(i18n.KeyPasswordMismatch)
	}
	return []InputData{
		{ID: string(signup.FieldUsername), Label: t(i18n.KeyUsername), Type: "text", Value: s.Value(signup.FieldUsername), Help: s.Error(signup.FieldUsername)},
		{ID: string(signup.FieldEmail), Label: t(i18n.KeyEmail), Type: "email", Value: s.Value(signup.FieldEmail), Help: s.Error(signup.FieldEmail)},
		{ID: string(signup.FieldPassword), Label: t(i18n.KeyPassword), Type: "password", Help: s.Error(signup.FieldPassword)},
		{ID: string(signup.FieldRepeatPassword), Label: t(i18n.KeyRepeatPassword), Type: "password", Help: mismatch},
	}
}

// Input renders a labelled input followed by its help line. Each edit is
// posted to the field endpoint with no target; the response updates the help
// lines and the submit button out of band. Password inputs never carry a
// value.
func Input(in InputData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		id := templ.EscapeString(in.ID)

		value := ""
		if in.Type != "password" {
			value = fmt.Sprintf(` value="%s"`, templ.EscapeString(in.Value))
		}
		if _, err := fmt.Fprintf(w, `<div class="group mb-3"><label for="%s" class="form-label">%s</label><input id="%s" name="%s" type="%s"%s class="%s" aria-describedby="%s-help" hx-post="/signup/fields/%s" hx-trigger="input changed delay:150ms" hx-swap="none">`,
			id, templ.EscapeString(in.Label), id, id, templ.EscapeString(in.Type), value, twmerge.Merge(inputBaseClass, inputInvalidClass), id, id); err != nil {
			return err
		}
		if err := Help(in.ID, in.Help, false).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// Help renders the help line of field. An empty message renders a hidden
// placeholder so later updates have something to swap.
func Help(field, message string, oob bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		state := " hidden"
		if message != "" {
			state = " data-invalid"
		}
		_, err := fmt.Fprintf(w, `<span id="%s-help" class="%s"%s%s>%s</span>`,
			templ.EscapeString(field), helpClass, swapOOB(oob), state, templ.EscapeString(message))
		return err
	})
}

// Notice renders the slot for the unclassified-failure alert.
func Notice(data PageData, oob bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<div id="%s"%s>`, NoticeID, swapOOB(oob)); err != nil {
			return err
		}
		if data.State.SubmitFailed {
			if _, err := fmt.Fprintf(w, `<div class="alert alert-danger" role="alert">%s</div>`, templ.EscapeString(data.T(i18n.KeySubmitFailed))); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// Actions renders the submit button with its progress spinner.
func Actions(data PageData, oob bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		s := data.State

		disabled := ""
		if !s.SubmitEnabled() || s.SubmissionInProgress {
			disabled = " disabled"
		}
		spinnerHidden := " hidden"
		if s.SubmissionInProgress {
			spinnerHidden = ""
		}
		_, err := fmt.Fprintf(w, `<div id="%s" class="text-center"%s><button type="submit" class="%s"%s>%s <span class="spinner-border spinner-border-sm" role="status" aria-hidden="true"%s></span></button></div>`,
			ActionsID, swapOOB(oob), twmerge.Merge(buttonClass, buttonIdleClass), disabled, templ.EscapeString(data.T(i18n.KeySignUpButton)), spinnerHidden)
		return err
	})
}

func swapOOB(oob bool) string {
	if oob {
		return ` hx-swap-oob="true"`
	}
	return ""
}

// Confirmation renders the notice that replaces the form after success.
func Confirmation(t i18n.Resolver) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="alert alert-success mt-3">%s</div>`, templ.EscapeString(t(i18n.KeyAccountActivationNotification)))
		return err
	})
}

// LanguageSwitcher renders links to the supported languages.
func LanguageSwitcher(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(data.Languages) == 0 {
			return nil
		}
		if _, err := fmt.Fprintf(w, `<nav class="text-right text-sm" aria-label="%s">`, templ.EscapeString(data.T(i18n.KeyLanguage))); err != nil {
			return err
		}
		for _, opt := range data.Languages {
			class := "px-2 text-gray-600"
			if opt.Active {
				class = twmerge.Merge(class, "font-semibold text-forest")
			}
			if _, err := fmt.Fprintf(w, `<a href="/signup?%s=%s" class="%s" hreflang="%s">%s</a>`,
				i18n.LangParam, templ.EscapeString(opt.Tag), class, templ.EscapeString(opt.Tag), templ.EscapeString(opt.Label)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</nav>`)
		return err
	})
}
