// Package handler contains HTTP handlers for the sign-up application.
//
// This file implements the sign-up page. Each browser session owns one
// signup.Form held in a signup.Store; the handlers only translate requests
// into OnFieldChange and Submit calls and render the resulting snapshot.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/DukeRupert/enroll/internal/csrf"
	"github.com/DukeRupert/enroll/internal/domain"
	"github.com/DukeRupert/enroll/internal/i18n"
	"github.com/DukeRupert/enroll/internal/metrics"
	"github.com/DukeRupert/enroll/internal/signup"
	signuppage "github.com/DukeRupert/enroll/internal/templ/pages/signup"
)

const (
	// FormCookieName holds the id of the browser's form session.
	FormCookieName = "enroll_form"

	// SignUpPath is the page and submit route.
	SignUpPath = "/signup"
)

// SignUpHandler serves the sign-up form.
//
// Routes handled:
// - GET  /signup                -> Show
// - POST /signup/fields/{field} -> ChangeField
// - POST /signup                -> Submit
type SignUpHandler struct {
	forms    *signup.Store
	users    signup.Submitter
	logger   *slog.Logger
	isSecure bool
}

// NewSignUpHandler creates a SignUpHandler.
func NewSignUpHandler(forms *signup.Store, users signup.Submitter, logger *slog.Logger, isSecure bool) *SignUpHandler {
	return &SignUpHandler{
		forms:    forms,
		users:    users,
		logger:   logger,
		isSecure: isSecure,
	}
}

// RegisterRoutes registers the sign-up routes. submitMw wraps the submit
// route only (rate limiting); pass nil for none.
func (h *SignUpHandler) RegisterRoutes(mux *http.ServeMux, submitMw func(http.Handler) http.Handler) {
	var submit http.Handler = http.HandlerFunc(h.Submit)
	if submitMw != nil {
		submit = submitMw(submit)
	}

	mux.HandleFunc("GET "+SignUpPath, h.Show)
	mux.HandleFunc("POST "+SignUpPath+"/fields/{field}", h.ChangeField)
	mux.Handle("POST "+SignUpPath, submit)
}

// Show renders the full sign-up page, or only the confirmation notice once
// this session's form has succeeded.
func (h *SignUpHandler) Show(w http.ResponseWriter, r *http.Request) {
	tag, t := i18n.FromRequest(w, r)

	token, err := csrf.EnsureToken(w, r, h.isSecure)
	if err != nil {
		InternalErrorResponse(w, r, h.logger, err)
		return
	}

	// Password inputs are rendered empty, so the form forgets them too.
	form := h.formFor(w, r)
	form.ClearPasswords()

	h.render(w, r, http.StatusOK, signuppage.Page(signuppage.PageData{
		Lang:      tag.String(),
		CSRFToken: token,
		State:     form.Snapshot(),
		T:         t,
		Languages: languageOptions(tag),
	}))
}

// ChangeField applies one field edit and returns the updated help lines,
// notice and submit button. The edited input is never part of the response.
func (h *SignUpHandler) ChangeField(w http.ResponseWriter, r *http.Request) {
	const op = "handler.signup.change_field"

	field, ok := signup.ParseField(r.PathValue("field"))
	if !ok {
		NotFoundResponse(w, r, h.logger)
		return
	}
	if !h.checkCSRF(w, r, op) {
		return
	}

	form := h.formFor(w, r)
	form.OnFieldChange(field, r.PostFormValue(string(field)))

	h.respond(w, r, http.StatusOK, form)
}

// Submit sends the form to the users API.
func (h *SignUpHandler) Submit(w http.ResponseWriter, r *http.Request) {
	const op = "handler.signup.submit"

	if !h.checkCSRF(w, r, op) {
		return
	}

	form := h.formFor(w, r)
	syncFields(form, r)

	// The users API call runs to completion even if the browser goes away.
	tr, err := form.Submit(context.WithoutCancel(r.Context()), h.users)
	switch {
	case errors.Is(err, signup.ErrSubmissionInProgress):
		metrics.DuplicateSubmitRejected()
		h.logger.Info("duplicate sign-up submit ignored", "path", r.URL.Path)
		if !isHTMX(r) {
			ErrorResponse(w, r, h.logger, domain.Conflict(op, "A sign-up request is already in progress"))
			return
		}
		h.respond(w, r, http.StatusConflict, form)
		return
	case errors.Is(err, signup.ErrSubmitDisabled):
		h.respond(w, r, http.StatusUnprocessableEntity, form)
		return
	case errors.Is(err, signup.ErrAlreadySucceeded):
		h.respond(w, r, http.StatusOK, form)
		return
	case err != nil:
		InternalErrorResponse(w, r, h.logger, err)
		return
	}

	h.logger.Info("sign-up submitted",
		"outcome", tr.Result.Outcome.String(),
		"phase", tr.To.String(),
	)
	h.respond(w, r, http.StatusOK, form)
}

// syncFields applies values posted by a full form submit. Only changed
// fields count as edits, so untouched fields keep their server errors.
func syncFields(form *signup.Form, r *http.Request) {
	current := form.Snapshot()
	for _, f := range signup.Fields {
		values, ok := r.PostForm[string(f)]
		if !ok || len(values) == 0 {
			continue
		}
		if values[0] != current.Value(f) {
			form.OnFieldChange(f, values[0])
		}
	}
}

// checkCSRF parses the form and validates the CSRF token.
func (h *SignUpHandler) checkCSRF(w http.ResponseWriter, r *http.Request, op string) bool {
	if err := r.ParseForm(); err != nil {
		ErrorResponse(w, r, h.logger, domain.Wrap(err, domain.EINVALID, op, "Malformed form submission"))
		return false
	}
	if !csrf.ValidateRequest(r) {
		ErrorResponse(w, r, h.logger, domain.Forbidden(op, "Invalid or missing CSRF token"))
		return false
	}
	return true
}

// formFor returns the session's form, starting a new session when the
// cookie is missing or expired.
func (h *SignUpHandler) formFor(w http.ResponseWriter, r *http.Request) *signup.Form {
	if cookie, err := r.Cookie(FormCookieName); err == nil {
		if form, ok := h.forms.Get(cookie.Value); ok {
			return form
		}
	}

	id, form := h.forms.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     FormCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return form
}

// respond renders the out-of-band update for htmx requests and redirects
// plain form posts back to the page.
func (h *SignUpHandler) respond(w http.ResponseWriter, r *http.Request, status int, form *signup.Form) {
	if !isHTMX(r) {
		http.Redirect(w, r, SignUpPath, http.StatusSeeOther)
		return
	}

	tag, t := i18n.FromRequest(w, r)
	h.render(w, r, status, signuppage.Update(signuppage.PageData{
		Lang:  tag.String(),
		State: form.Snapshot(),
		T:     t,
	}))
}

func (h *SignUpHandler) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render sign-up view", "error", err, "path", r.URL.Path)
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// languageOptions builds the language switcher, each language named in
// itself.
func languageOptions(active language.Tag) []signuppage.LanguageOption {
	supported := i18n.Supported()
	opts := make([]signuppage.LanguageOption, 0, len(supported))
	for _, tag := range supported {
		opts = append(opts, signuppage.LanguageOption{
			Tag:    tag.String(),
			Label:  display.Self.Name(tag),
			Active: tag == active,
		})
	}
	return opts
}
