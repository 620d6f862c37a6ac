package login

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ama-bakery/staff_terminal/internal/metrics"
	"github.com/ama-bakery/staff_terminal/internal/notification"
	"github.com/ama-bakery/staff_terminal/internal/staff"
	"github.com/ama-bakery/staff_terminal/internal/terminal"
	"github.com/ama-bakery/staff_terminal/internal/verification"
)

// ErrAttemptNotFound is returned for unknown, finished, replaced or evicted
// attempts.
var ErrAttemptNotFound = errors.New("login attempt not found")

// DefaultMaxAttempts bounds the attempts held when no limit is given.
const DefaultMaxAttempts = 1024

// Attempt is one pass through the login view on one terminal.
type Attempt struct {
	ID         string
	TerminalID string
	StartedAt  time.Time
	Machine    *verification.Machine

	notices *notification.Recorder
	seq     uint64
}

// Notices returns the acknowledgements produced since the last call.
func (a *Attempt) Notices() []notification.Message {
	return a.notices.Drain()
}

// Registry holds the attempts in progress, at most one per terminal and at
// most limit in total. Starting an attempt on a full registry evicts the
// oldest one.
type Registry struct {
	dir      staff.Directory
	sessions terminal.Store
	notifier notification.Notifier
	logger   *slog.Logger
	opts     []verification.Option
	limit    int
	now      func() time.Time

	mu         sync.Mutex
	attempts   map[string]*Attempt
	byTerminal map[string]string
	seq        uint64
}

// NewRegistry builds a registry whose attempts resolve names in dir and
// persist successful sign-ins to sessions. A limit below one means
// DefaultMaxAttempts.
func NewRegistry(dir staff.Directory, sessions terminal.Store, notifier notification.Notifier, logger *slog.Logger, limit int, opts ...verification.Option) *Registry {
	if limit < 1 {
		limit = DefaultMaxAttempts
	}
	return &Registry{
		dir:        dir,
		sessions:   sessions,
		notifier:   notifier,
		logger:     logger,
		opts:       opts,
		limit:      limit,
		now:        func() time.Time { return time.Now().UTC() },
		attempts:   make(map[string]*Attempt),
		byTerminal: make(map[string]string),
	}
}

// Start opens a fresh attempt for terminalID, discarding any attempt the
// terminal already had.
func (r *Registry) Start(terminalID string) *Attempt {
	notices := notification.NewRecorder(r.notifier)
	sink := terminal.NewSink(terminalID, r.sessions, notices, r.logger)
	opts := append([]verification.Option{verification.WithAcknowledger(sink)}, r.opts...)

	a := &Attempt{
		ID:         uuid.NewString(),
		TerminalID: terminalID,
		StartedAt:  r.now(),
		Machine:    verification.New(r.dir, sink, opts...),
		notices:    notices,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.byTerminal[terminalID]; ok {
		delete(r.attempts, prev)
	}
	for len(r.attempts) >= r.limit {
		r.evictOldest(a.StartedAt)
	}
	r.seq++
	a.seq = r.seq
	r.attempts[a.ID] = a
	r.byTerminal[terminalID] = a.ID
	metrics.ActiveAttempts.Set(float64(len(r.attempts)))
	return a
}

// evictOldest drops the attempt with the earliest start. Callers hold r.mu.
func (r *Registry) evictOldest(now time.Time) {
	var oldest *Attempt
	for _, a := range r.attempts {
		if oldest == nil || a.StartedAt.Before(oldest.StartedAt) ||
			(a.StartedAt.Equal(oldest.StartedAt) && a.seq < oldest.seq) {
			oldest = a
		}
	}
	if oldest == nil {
		return
	}
	delete(r.attempts, oldest.ID)
	if r.byTerminal[oldest.TerminalID] == oldest.ID {
		delete(r.byTerminal, oldest.TerminalID)
	}
	if r.logger != nil {
		r.logger.Warn("login attempt evicted",
			slog.String("attempt_id", oldest.ID),
			slog.String("terminal_id", oldest.TerminalID),
			slog.Duration("age", now.Sub(oldest.StartedAt)),
		)
	}
}

// Get looks up an attempt in progress.
func (r *Registry) Get(id string) (*Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[id]
	if !ok {
		return nil, ErrAttemptNotFound
	}
	return a, nil
}

// Finish discards an attempt. Finishing twice is a no-op.
func (r *Registry) Finish(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[id]
	if !ok {
		return
	}
	delete(r.attempts, id)
	if r.byTerminal[a.TerminalID] == id {
		delete(r.byTerminal, a.TerminalID)
	}
	metrics.ActiveAttempts.Set(float64(len(r.attempts)))
}

// Len is the number of attempts in progress.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.attempts)
}
