// Package devapi serves an in-memory users API for local development.
//
// It accepts POST /api/1.0/users with the same request and response shapes
// the sign-up form expects from the real backend, so the whole flow can be
// exercised without one. Nothing is persisted.
package devapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/DukeRupert/enroll/internal/domain"
)

const (
	// BcryptCost is kept low; these accounts only live in memory.
	BcryptCost = bcrypt.MinCost

	MinUsernameLength = 4
	MaxUsernameLength = 32
	MinPasswordLength = 6
	// MaxPasswordLength matches bcrypt's 72-byte input limit.
	MaxPasswordLength = 72

	maxBodyBytes = 1 << 16
)

// Validation messages returned in validationErrors
const (
	MsgUsernameNull   = "Username cannot be null"
	MsgUsernameSize   = "Must have min 4 and max 32 characters"
	MsgEmailNull      = "Email cannot be null"
	MsgEmailInvalid   = "Email is not valid"
	MsgEmailInUse     = "Email in use"
	MsgPasswordNull   = "Password cannot be null"
	MsgPasswordSize   = "Must have min 6 and max 72 characters"
	MsgPasswordFormat = "Password must have at least 1 uppercase, 1 lowercase letter and 1 number"
)

// User is an account accepted by the development API.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

type createUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// UsersAPI handles user creation in memory.
type UsersAPI struct {
	logger *slog.Logger
	delay  time.Duration

	mu    sync.RWMutex
	users map[string]*User // keyed by lower-cased email
}

// New creates an empty users API. delay, when positive, is added to every
// request to make the in-flight state visible in the UI.
func New(logger *slog.Logger, delay time.Duration) *UsersAPI {
	return &UsersAPI{
		logger: logger,
		delay:  delay,
		users:  make(map[string]*User),
	}
}

// RegisterRoutes registers the users API on mux.
func (a *UsersAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/1.0/users", a.CreateUser)
}

// CreateUser validates the request and stores the user.
func (a *UsersAPI) CreateUser(w http.ResponseWriter, r *http.Request) {
	const op = "devapi.create_user"

	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-r.Context().Done():
			return
		}
	}

	var req createUserRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Malformed request body"})
		return
	}

	user, err := a.create(op, req)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			a.logger.Info("dev users API rejected request", "field_count", len(ve.Fields))
			writeJSON(w, http.StatusBadRequest, map[string]any{"validationErrors": ve.Fields})
			return
		}
		a.logger.Error("dev users API failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": domain.ErrorMessage(err)})
		return
	}

	a.logger.Info("dev user created", "user_id", user.ID, "username", user.Username)
	writeJSON(w, http.StatusOK, map[string]string{"message": "User created"})
}

func (a *UsersAPI) create(op string, req createUserRequest) (*User, error) {
	ve := &domain.ValidationError{Op: op, Fields: map[string]string{}}

	username := deref(req.Username)
	email := strings.ToLower(strings.TrimSpace(deref(req.Email)))
	password := deref(req.Password)

	switch {
	case req.Username == nil || strings.TrimSpace(username) == "":
		ve.Fields["username"] = MsgUsernameNull
	case len(username) < MinUsernameLength || len(username) > MaxUsernameLength:
		ve.Fields["username"] = MsgUsernameSize
	}

	switch {
	case req.Email == nil || email == "":
		ve.Fields["email"] = MsgEmailNull
	case !validEmail(email):
		ve.Fields["email"] = MsgEmailInvalid
	}

	switch {
	case req.Password == nil || password == "":
		ve.Fields["password"] = MsgPasswordNull
	case len(password) < MinPasswordLength || len(password) > MaxPasswordLength:
		ve.Fields["password"] = MsgPasswordSize
	case !strongPassword(password):
		ve.Fields["password"] = MsgPasswordFormat
	}

	if len(ve.Fields) > 0 {
		return nil, ve
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to hash password")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.users[email]; exists {
		return nil, domain.NewValidationError(op, "email", MsgEmailInUse)
	}

	user := &User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	a.users[email] = user
	return user, nil
}

// Lookup returns the user registered with email.
func (a *UsersAPI) Lookup(email string) (*User, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	u, ok := a.users[strings.ToLower(strings.TrimSpace(email))]
	return u, ok
}

// CheckPassword reports whether password matches the stored hash for email.
func (a *UsersAPI) CheckPassword(email, password string) bool {
	u, ok := a.Lookup(email)
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) == nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}

func strongPassword(p string) bool {
	var upper, lower, digit bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
