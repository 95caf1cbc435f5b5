package signup

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/DukeRupert/enroll/internal/i18n"
	"github.com/DukeRupert/enroll/internal/signup"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, c.Render(context.Background(), &sb))
	return sb.String()
}

func pageData(s signup.State) PageData {
	return PageData{
		Lang:      "en",
		CSRFToken: "tok",
		State:     s,
		T:         i18n.ResolverFor(language.English),
	}
}

func state(values map[signup.Field]string, errs map[signup.Field]string) signup.State {
	return signup.State{Values: values, Errors: errs}
}

func TestForm_InitialLayout(t *testing.T) {
	html := render(t, Body(pageData(state(nil, nil))))

	assert.Contains(t, html, `data-testid="form-sign-up"`)
	assert.Contains(t, html, `<h1 class="text-center">Sign Up</h1>`)
	assert.Contains(t, html, `<label for="username" class="form-label">Username</label>`)
	assert.Contains(t, html, `<label for="email" class="form-label">Email</label>`)
	assert.Contains(t, html, `id="password" name="password" type="password" class=`)
	assert.Contains(t, html, `id="repeatPassword" name="repeatPassword" type="password" class=`)
	assert.Contains(t, html, `<span id="username-help" class="invalid-feedback text-sm text-red-600" hidden></span>`)
	assert.Contains(t, html, `<button type="submit"`)
	assert.Contains(t, html, ` disabled>Sign Up`)
	assert.Contains(t, html, `role="status" aria-hidden="true" hidden`)
	assert.Contains(t, html, `name="csrf_token" value="tok"`)
}

func TestForm_EnabledWhenPasswordsMatch(t *testing.T) {
	html := render(t, Form(pageData(state(map[signup.Field]string{
		signup.FieldPassword:       "P4ssword",
		signup.FieldRepeatPassword: "P4ssword",
	}, nil))))

	assert.NotContains(t, html, " disabled>")
	assert.NotContains(t, html, "Password mismatch")
}

func TestForm_ShowsMismatchOnRepeatField(t *testing.T) {
	html := render(t, Form(pageData(state(map[signup.Field]string{
		signup.FieldPassword:       "P4ssword",
		signup.FieldRepeatPassword: "AnotherP4ssword",
	}, nil))))

	assert.Contains(t, html, "Password mismatch")
	assert.Contains(t, html, " disabled>")
}

func TestForm_ShowsServerErrorsPerField(t *testing.T) {
	html := render(t, Form(pageData(state(nil, map[signup.Field]string{
		signup.FieldUsername: "Username cannot be null",
	}))))

	assert.Contains(t, html, `<span id="username-help" class="invalid-feedback text-sm text-red-600" data-invalid>Username cannot be null</span>`)
	assert.Contains(t, html, `<span id="email-help" class="invalid-feedback text-sm text-red-600" hidden></span>`)
}

func TestInput_PasswordValuesAreNeverRendered(t *testing.T) {
	html := render(t, Form(pageData(state(map[signup.Field]string{
		signup.FieldUsername:       "user1",
		signup.FieldPassword:       "P4ssword",
		signup.FieldRepeatPassword: "P4ssword",
	}, nil))))

	assert.Contains(t, html, `value="user1"`)
	assert.NotContains(t, html, "P4ssword")
}

func TestInput_EditsSwapNothingInPlace(t *testing.T) {
	html := render(t, Input(InputData{ID: "email", Label: "Email", Type: "email", Value: "a@mail.com"}))

	assert.Contains(t, html, `hx-post="/signup/fields/email"`)
	assert.Contains(t, html, `hx-swap="none"`)
	assert.Contains(t, html, `aria-describedby="email-help"`)
	assert.NotContains(t, html, "hx-target")
}

func TestUpdate_IsOutOfBandOnly(t *testing.T) {
	s := state(map[signup.Field]string{
		signup.FieldUsername:       "user1",
		signup.FieldPassword:       "P4ssword",
		signup.FieldRepeatPassword: "P4ss",
	}, map[signup.Field]string{signup.FieldEmail: "Email cannot be null"})
	s.SubmitFailed = true

	html := render(t, Update(pageData(s)))

	for _, field := range signup.Fields {
		assert.Contains(t, html, `<span id="`+string(field)+`-help" class="invalid-feedback text-sm text-red-600" hx-swap-oob="true"`)
	}
	assert.Contains(t, html, `data-invalid>Email cannot be null</span>`)
	assert.Contains(t, html, `data-invalid>Password mismatch</span>`)
	assert.Contains(t, html, `<div id="signup-notice" hx-swap-oob="true"><div class="alert alert-danger"`)
	assert.Contains(t, html, `<div id="signup-actions" class="text-center" hx-swap-oob="true">`)
	assert.Contains(t, html, ` disabled>Sign Up`)
	assert.NotContains(t, html, "<input")
	assert.NotContains(t, html, "<form")
	assert.NotContains(t, html, "user1")
}

func TestUpdate_SuccessReplacesContainer(t *testing.T) {
	s := state(nil, nil)
	s.Succeeded = true

	html := render(t, Update(pageData(s)))

	assert.True(t, strings.HasPrefix(html, `<div id="signup" hx-swap-oob="innerHTML">`))
	assert.Contains(t, html, "Please check your email to activate your account")
	assert.NotContains(t, html, "signup-actions")
}

func TestForm_SpinnerVisibleWhileInFlight(t *testing.T) {
	s := state(map[signup.Field]string{
		signup.FieldPassword:       "P4ssword",
		signup.FieldRepeatPassword: "P4ssword",
	}, nil)
	s.SubmissionInProgress = true

	html := render(t, Form(pageData(s)))

	assert.Contains(t, html, ` disabled>`)
	assert.Contains(t, html, `aria-hidden="true"></span>`)
}

func TestForm_EscapesValues(t *testing.T) {
	html := render(t, Form(pageData(state(map[signup.Field]string{
		signup.FieldUsername: `"><script>alert(1)</script>`,
	}, nil))))

	assert.NotContains(t, html, "<script>alert(1)</script>")
}

func TestBody_SuccessReplacesForm(t *testing.T) {
	s := state(nil, nil)
	s.Succeeded = true

	html := render(t, Body(pageData(s)))

	assert.Contains(t, html, "Please check your email to activate your account")
	assert.NotContains(t, html, "form-sign-up")
}

func TestForm_SubmitFailedNotice(t *testing.T) {
	s := state(nil, nil)
	s.SubmitFailed = true

	html := render(t, Form(pageData(s)))

	assert.Contains(t, html, "Something went wrong. Please try again.")
}

func TestPage_Turkish(t *testing.T) {
	data := pageData(state(nil, nil))
	data.Lang = "tr"
	data.T = i18n.ResolverFor(language.Turkish)
	data.Languages = []LanguageOption{
		{Tag: "en", Label: "English"},
		{Tag: "tr", Label: "Türkçe", Active: true},
	}

	html := render(t, Page(data))

	assert.Contains(t, html, `<html lang="tr">`)
	assert.Contains(t, html, "<title>Kayıt Ol</title>")
	assert.Contains(t, html, `href="/signup?lang=en"`)
	assert.Contains(t, html, `id="signup"`)
}
