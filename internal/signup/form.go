// Package signup holds the state of a sign-up form and mediates its
// transitions.
//
// A Form moves through three phases:
//
//	Ready --Submit--> Submitting --success--> Succeeded (terminal)
//	Ready --Submit--> Submitting --validation failure--> Ready (errors set)
//	Ready --Submit--> Submitting --other failure--> Ready (failure notice set)
//
// Submit while Submitting returns ErrSubmissionInProgress and issues no
// request. Editing a field clears that field's error in any phase.
package signup

import (
	"context"
	"errors"
	"maps"
	"strings"
	"sync"

	"github.com/DukeRupert/enroll/internal/client"
)

// Field names a form input. The values double as the keys the users API
// uses in its validationErrors map.
type Field string

const (
	FieldUsername       Field = "username"
	FieldEmail          Field = "email"
	FieldPassword       Field = "password"
	FieldRepeatPassword Field = "repeatPassword"
)

// Fields lists the form inputs in display order.
var Fields = []Field{FieldUsername, FieldEmail, FieldPassword, FieldRepeatPassword}

// ParseField returns the Field named s.
func ParseField(s string) (Field, bool) {
	for _, f := range Fields {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// Phase is the coarse state of a form.
type Phase int

const (
	PhaseReady Phase = iota
	PhaseSubmitting
	PhaseSucceeded
)

func (p Phase) String() string {
	switch p {
	case PhaseSubmitting:
		return "submitting"
	case PhaseSucceeded:
		return "succeeded"
	default:
		return "ready"
	}
}

var (
	ErrSubmissionInProgress = errors.New("signup: submission already in progress")
	ErrAlreadySucceeded     = errors.New("signup: form already submitted successfully")
	ErrSubmitDisabled       = errors.New("signup: passwords are empty or do not match")
)

// Submitter sends a sign-up request. *client.UsersClient satisfies it.
type Submitter interface {
	SignUp(ctx context.Context, req client.SignUpRequest) client.Result
}

// SubmitEnabled reports whether the password pair allows submission: both
// values are equal and the password is not blank.
func SubmitEnabled(password, repeatPassword string) bool {
	return password == repeatPassword && strings.TrimSpace(password) != ""
}

// PasswordMismatch reports whether the inline mismatch notice should show.
func PasswordMismatch(password, repeatPassword string) bool {
	return password != repeatPassword
}

// Form is one sign-up form instance. It is safe for concurrent use; all
// mutation goes through OnFieldChange, ClearPasswords and Submit.
type Form struct {
	mu        sync.Mutex
	fields    map[Field]string
	errors    map[Field]string
	inFlight  bool
	succeeded bool
	failed    bool
}

// New returns an empty form in the Ready phase.
func New() *Form {
	return &Form{
		fields: make(map[Field]string, len(Fields)),
		errors: make(map[Field]string),
	}
}

// OnFieldChange stores value for f and drops any error recorded for f.
func (f *Form) OnFieldChange(field Field, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fields[field] = value
	delete(f.errors, field)
	f.failed = false
}

// ClearPasswords blanks both password values without touching errors or the
// submit notice. Pages never echo passwords back, so a fresh render starts
// with empty password inputs and the state has to match.
func (f *Form) ClearPasswords() {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.fields, FieldPassword)
	delete(f.fields, FieldRepeatPassword)
}

// Transition describes what a completed Submit did.
type Transition struct {
	From   Phase
	To     Phase
	Result client.Result
}

// Submit sends the form through s if the form is Ready and the password pair
// allows it. At most one request is issued per Ready to Submitting
// transition; concurrent callers get ErrSubmissionInProgress.
func (f *Form) Submit(ctx context.Context, s Submitter) (Transition, error) {
	f.mu.Lock()
	switch {
	case f.succeeded:
		f.mu.Unlock()
		return Transition{}, ErrAlreadySucceeded
	case f.inFlight:
		f.mu.Unlock()
		return Transition{}, ErrSubmissionInProgress
	case !SubmitEnabled(f.fields[FieldPassword], f.fields[FieldRepeatPassword]):
		f.mu.Unlock()
		return Transition{}, ErrSubmitDisabled
	}

	f.inFlight = true
	f.failed = false
	req := client.SignUpRequest{
		Username: f.fields[FieldUsername],
		Email:    f.fields[FieldEmail],
		Password: f.fields[FieldPassword],
	}
	f.mu.Unlock()

	result := s.SignUp(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.inFlight = false
	switch result.Outcome {
	case client.OutcomeSuccess:
		f.succeeded = true
	case client.OutcomeValidationFailure:
		f.errors = make(map[Field]string, len(result.FieldErrors))
		for name, msg := range result.FieldErrors {
			f.errors[Field(name)] = msg
		}
	default:
		f.failed = true
	}

	return Transition{From: PhaseSubmitting, To: f.phase(), Result: result}, nil
}

func (f *Form) phase() Phase {
	switch {
	case f.succeeded:
		return PhaseSucceeded
	case f.inFlight:
		return PhaseSubmitting
	default:
		return PhaseReady
	}
}

// State is a read-only copy of a Form for rendering.
type State struct {
	Values               map[Field]string
	Errors               map[Field]string
	SubmissionInProgress bool
	Succeeded            bool
	// SubmitFailed is set after an unclassified failure until the next edit
	// or submit attempt.
	SubmitFailed bool
	Phase        Phase
}

// Value returns the current value of field.
func (s State) Value(field Field) string { return s.Values[field] }

// Error returns the server-side error for field, if any.
func (s State) Error(field Field) string { return s.Errors[field] }

// SubmitEnabled applies SubmitEnabled to the snapshot.
func (s State) SubmitEnabled() bool {
	return SubmitEnabled(s.Values[FieldPassword], s.Values[FieldRepeatPassword])
}

// PasswordMismatch applies PasswordMismatch to the snapshot.
func (s State) PasswordMismatch() bool {
	return PasswordMismatch(s.Values[FieldPassword], s.Values[FieldRepeatPassword])
}

// Snapshot copies the current state.
func (f *Form) Snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	return State{
		Values:               maps.Clone(f.fields),
		Errors:               maps.Clone(f.errors),
		SubmissionInProgress: f.inFlight,
		Succeeded:            f.succeeded,
		SubmitFailed:         f.failed,
		Phase:                f.phase(),
	}
}
