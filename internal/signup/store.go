package signup

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DukeRupert/enroll/internal/metrics"
)

// DefaultTTL is how long an untouched form session is kept.
const DefaultTTL = 30 * time.Minute

// Store keeps one Form per browser session, keyed by a random id.
// Idle sessions are swept in the background.
type Store struct {
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*storeEntry

	stop chan struct{}
	done chan struct{}
}

type storeEntry struct {
	form     *Form
	lastSeen time.Time
}

// NewStore creates a store and starts its sweeper. Call Close to stop it.
func NewStore(ttl time.Duration, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*storeEntry),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	go s.sweepLoop()

	return s
}

// Create starts a new form session.
func (s *Store) Create() (string, *Form) {
	id := uuid.NewString()
	form := New()

	s.mu.Lock()
	s.entries[id] = &storeEntry{form: form, lastSeen: s.now()}
	n := len(s.entries)
	s.mu.Unlock()

	metrics.FormsActive(n)
	return id, form
}

// Get returns the form for id and refreshes its expiry.
func (s *Store) Get(id string) (*Form, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}

	s.mu.Lock()
	now := s.now()
	entry, ok := s.entries[id]
	if ok && s.expired(entry, now) {
		delete(s.entries, id)
		n := len(s.entries)
		s.mu.Unlock()

		metrics.FormsActive(n)
		return nil, false
	}
	if ok {
		entry.lastSeen = now
	}
	s.mu.Unlock()

	if !ok {
		return nil, false
	}
	return entry.form, true
}

// Delete drops a form session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.entries, id)
	n := len(s.entries)
	s.mu.Unlock()

	metrics.FormsActive(n)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops the sweeper.
func (s *Store) Close() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.done
}

func (s *Store) sweepLoop() {
	defer close(s.done)

	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := s.sweep(); removed > 0 {
				s.logger.Debug("expired sign-up forms", "removed", removed)
			}
		case <-s.stop:
			return
		}
	}
}

// sweep removes idle sessions, except ones with a request in flight.
func (s *Store) sweep() int {
	s.mu.Lock()
	now := s.now()
	removed := 0
	for id, entry := range s.entries {
		if !s.expired(entry, now) {
			continue
		}
		delete(s.entries, id)
		removed++
	}
	n := len(s.entries)
	s.mu.Unlock()

	metrics.FormsActive(n)
	return removed
}

// expired reports whether entry is idle past the TTL. A form with a request
// in flight never expires. Callers hold s.mu.
func (s *Store) expired(entry *storeEntry, now time.Time) bool {
	if now.Sub(entry.lastSeen) <= s.ttl {
		return false
	}
	return !entry.form.Snapshot().SubmissionInProgress
}
