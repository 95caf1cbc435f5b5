package signup

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/enroll/internal/client"
	"github.com/DukeRupert/enroll/internal/metrics"
)

// withClock pins the store clock and returns a setter to move it.
func withClock(s *Store) func(time.Duration) {
	now := time.Now()
	s.mu.Lock()
	s.now = func() time.Time { return now }
	s.mu.Unlock()
	return func(d time.Duration) {
		s.mu.Lock()
		now = now.Add(d)
		s.mu.Unlock()
	}
}

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s := NewStore(ttl, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(s.Close)
	return s
}

func TestStore_CreateAndGet(t *testing.T) {
	s := newTestStore(t, time.Hour)

	id, form := s.Create()
	got, ok := s.Get(id)

	require.True(t, ok)
	assert.Same(t, form, got)
	assert.Equal(t, 1, s.Len())
}

func TestStore_GetRejectsUnknownAndMalformedIDs(t *testing.T) {
	s := newTestStore(t, time.Hour)
	s.Create()

	_, ok := s.Get("not-a-uuid")
	assert.False(t, ok)

	_, ok = s.Get("6f1c1f1e-8a4c-4d55-9f5e-000000000000")
	assert.False(t, ok)
}

func TestStore_ExpiresIdleForms(t *testing.T) {
	s := newTestStore(t, time.Hour)
	now := time.Now()
	s.mu.Lock()
	s.now = func() time.Time { return now }
	s.mu.Unlock()

	id, _ := s.Create()
	stale, _ := s.Create()

	now = now.Add(45 * time.Minute)
	_, ok := s.Get(id) // refreshes id only
	require.True(t, ok)

	now = now.Add(30 * time.Minute)
	removed := s.sweep()

	assert.Equal(t, 1, removed)
	_, ok = s.Get(stale)
	assert.False(t, ok)
	_, ok = s.Get(id)
	assert.True(t, ok)
}

func TestStore_GetExpiryUpdatesActiveGauge(t *testing.T) {
	s := newTestStore(t, time.Hour)
	advance := withClock(s)

	stale, _ := s.Create()
	s.Create()
	require.Equal(t, float64(2), testutil.ToFloat64(metrics.SignUpFormsActive))

	advance(2 * time.Hour)
	_, ok := s.Get(stale)

	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SignUpFormsActive))
}

func TestStore_GetKeepsFormWithSubmissionInFlight(t *testing.T) {
	s := newTestStore(t, time.Hour)
	advance := withClock(s)

	id, form := s.Create()
	form.OnFieldChange(FieldUsername, "user1")
	form.OnFieldChange(FieldEmail, "user1@mail.com")
	form.OnFieldChange(FieldPassword, "P4ssword")
	form.OnFieldChange(FieldRepeatPassword, "P4ssword")

	sub := &fakeSubmitter{
		result:  client.Success(200),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = form.Submit(context.Background(), sub)
	}()
	<-sub.entered

	advance(2 * time.Hour)
	got, ok := s.Get(id)
	require.True(t, ok)
	assert.Same(t, form, got)
	assert.Zero(t, s.sweep())

	close(sub.release)
	<-done

	// Get refreshed the entry, so it survives one more TTL.
	advance(30 * time.Minute)
	_, ok = s.Get(id)
	assert.True(t, ok)
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t, time.Hour)
	id, _ := s.Create()

	s.Delete(id)

	_, ok := s.Get(id)
	assert.False(t, ok)
	assert.Zero(t, s.Len())
}

func TestStore_CloseIsIdempotent(t *testing.T) {
	s := NewStore(time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Close()
	s.Close()
}
