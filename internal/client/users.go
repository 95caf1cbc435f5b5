// Package client talks to the users API on behalf of the sign-up form.
//
// SignUp performs exactly one POST per call and never retries. The response is
// classified into a tagged Result so callers handle success, field-level
// validation failure and every other failure explicitly.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/DukeRupert/enroll/internal/domain"
	"github.com/DukeRupert/enroll/internal/metrics"
)

const (
	// UsersPath is the resource new accounts are posted to.
	UsersPath = "/api/1.0/users"

	// DefaultTimeout bounds a single sign-up request.
	DefaultTimeout = 30 * time.Second

	// maxErrorBody caps how much of a 400 body is read for validation errors.
	maxErrorBody = 1 << 20
)

// SignUpRequest is the body sent to the users API. The repeated password is
// a client-side concern and is never transmitted.
type SignUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Outcome tags a Result.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeValidationFailure
	OutcomeOtherFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeValidationFailure:
		return "validation_failure"
	case OutcomeOtherFailure:
		return "other_failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the classified outcome of a sign-up call.
//
// FieldErrors is set only for OutcomeValidationFailure and Err only for
// OutcomeOtherFailure. StatusCode is zero when no response was received.
type Result struct {
	Outcome     Outcome
	FieldErrors map[string]string
	StatusCode  int
	Err         error
}

// Success builds a successful Result.
func Success(status int) Result {
	return Result{Outcome: OutcomeSuccess, StatusCode: status}
}

// ValidationFailure builds a Result carrying server-side field errors.
func ValidationFailure(fields map[string]string) Result {
	return Result{Outcome: OutcomeValidationFailure, FieldErrors: fields, StatusCode: http.StatusBadRequest}
}

// OtherFailure builds a Result for any unclassified failure.
func OtherFailure(status int, err error) Result {
	return Result{Outcome: OutcomeOtherFailure, StatusCode: status, Err: err}
}

// Config contains configuration for the users API client.
type Config struct {
	BaseURL string        // Scheme and host of the users API, e.g. http://localhost:8080
	Timeout time.Duration // Per-request timeout; DefaultTimeout when zero
}

// UsersClient posts sign-up requests to the users API.
type UsersClient struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// New creates a users API client. httpClient may be nil.
func New(cfg Config, httpClient *http.Client, logger *slog.Logger) (*UsersClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("users API base URL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &UsersClient{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + UsersPath,
		client:   httpClient,
		logger:   logger,
	}, nil
}

// SignUp sends one sign-up request and classifies the response.
func (c *UsersClient) SignUp(ctx context.Context, body SignUpRequest) Result {
	const op = "client.signup"
	start := time.Now()

	result := c.do(ctx, op, body)

	duration := time.Since(start)
	metrics.SubmissionCompleted(result.Outcome.String(), duration)

	attrs := []any{
		"outcome", result.Outcome.String(),
		"status", result.StatusCode,
		"duration_ms", duration.Milliseconds(),
	}
	switch result.Outcome {
	case OutcomeOtherFailure:
		c.logger.Warn("sign-up request failed", append(attrs, "error", result.Err)...)
	case OutcomeValidationFailure:
		c.logger.Info("sign-up rejected by users API", append(attrs, "field_count", len(result.FieldErrors))...)
	default:
		c.logger.Info("sign-up accepted", attrs...)
	}

	return result
}

func (c *UsersClient) do(ctx context.Context, op string, body SignUpRequest) Result {
	payload, err := json.Marshal(body)
	if err != nil {
		return OtherFailure(0, domain.Internal(err, op, "marshal request"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return OtherFailure(0, domain.Internal(err, op, "create request"))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return OtherFailure(0, domain.Unavailable(err, op))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// Body is not interpreted; drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return Success(resp.StatusCode)
	case resp.StatusCode == http.StatusBadRequest:
		fields, err := decodeValidationErrors(resp.Body)
		if err != nil {
			return OtherFailure(resp.StatusCode, domain.Wrap(err, domain.EINVALID, op, "request rejected without field errors"))
		}
		return ValidationFailure(fields)
	default:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return OtherFailure(resp.StatusCode, mapStatus(op, resp.StatusCode))
	}
}

// validationBody is the 400 response shape of the users API.
type validationBody struct {
	ValidationErrors map[string]string `json:"validationErrors"`
}

var errNoValidationErrors = errors.New("response has no validationErrors")

// decodeValidationErrors requires the validationErrors key to be present. An
// empty mapping is a valid validation failure with no field messages.

func decodeValidationErrors(r io.Reader) (map[string]string, error) {
	var body validationBody
	if err := json.NewDecoder(io.LimitReader(r, maxErrorBody)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode validation errors: %w", err)
	}
	if body.ValidationErrors == nil {
		return nil, errNoValidationErrors
	}
	return body.ValidationErrors, nil
}

// mapStatus maps unclassified HTTP statuses to domain errors
func mapStatus(op string, status int) error {
	switch status {
	case http.StatusTooManyRequests:
		return domain.Errorf(domain.ERATELIMIT, op, "users API rate limited the request")
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return domain.Unavailable(fmt.Errorf("status %d", status), op)
	case http.StatusConflict:
		return domain.Conflict(op, "users API reported a conflict")
	default:
		return domain.Errorf(domain.EINTERNAL, op, "unexpected users API status %d", status)
	}
}
