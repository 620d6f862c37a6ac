// Package verification drives the two-step staff challenge: resolve a
// username in the directory, then confirm the 4-digit PIN bound to it.
package verification

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ama-bakery/staff_terminal/internal/staff"
)

// DefaultClearDelay is how long a rejected PIN stays visible before the
// buffer empties.
const DefaultClearDelay = 500 * time.Millisecond

// Phase is the current step of the login flow.
type Phase int

const (
	PhaseAwaitingUsername Phase = iota
	PhaseAwaitingPin
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingUsername:
		return "awaiting_username"
	case PhaseAwaitingPin:
		return "awaiting_pin"
	default:
		return "unknown"
	}
}

// Outcome reports what a digit press led to.
type Outcome int

const (
	// OutcomePending means fewer than four digits have been entered.
	OutcomePending Outcome = iota
	// OutcomeRejected means the four digits did not match.
	OutcomeRejected
	// OutcomeAuthenticated means the identity was persisted and the host signalled.
	OutcomeAuthenticated
)

// Directory is the lookup the machine needs from the staff directory.
type Directory interface {
	FindByUsername(ctx context.Context, name string, role staff.Role) (staff.Identity, error)
}

// SessionSink records the authenticated identity and tells the host to move on.
type SessionSink interface {
	Persist(ctx context.Context, id staff.Identity) error
	NotifySuccess(ctx context.Context, id staff.Identity)
}

// Acknowledger receives the welcome shown once a username resolves.
type Acknowledger interface {
	Acknowledge(ctx context.Context, id staff.Identity)
}

// Option customises a Machine.
type Option func(*Machine)

// WithRole scopes username lookups to role. Defaults to waiter.
func WithRole(role staff.Role) Option {
	return func(m *Machine) { m.role = role }
}

// WithClearDelay sets how long a rejected PIN remains before being cleared.
func WithClearDelay(d time.Duration) Option {
	return func(m *Machine) {
		if d >= 0 {
			m.clearDelay = d
		}
	}
}

// WithAcknowledger registers the receiver of welcome acknowledgements.
func WithAcknowledger(a Acknowledger) Option {
	return func(m *Machine) { m.ack = a }
}

// WithUsernameHint appends hint to the unknown-username message, e.g. to
// point at the demo roster.
func WithUsernameHint(hint string) Option {
	return func(m *Machine) { m.usernameHint = hint }
}

// WithAfterFunc replaces time.AfterFunc for scheduling the PIN clear.
func WithAfterFunc(fn func(time.Duration, func())) Option {
	return func(m *Machine) {
		if fn != nil {
			m.afterFunc = fn
		}
	}
}

// View is the observable state used for rendering.
type View struct {
	Phase     Phase
	Username  string
	PinLength int
	Err       *Error
	Closed    bool
}

// Machine holds one login attempt. It is safe for concurrent use; every
// transition runs to completion under the machine's lock.
type Machine struct {
	dir        Directory
	sink       SessionSink
	ack        Acknowledger
	role       staff.Role
	clearDelay time.Duration
	afterFunc  func(time.Duration, func())

	usernameHint string

	mu        sync.Mutex
	phase     Phase
	candidate string
	resolved  *staff.Identity
	pin       []byte
	lastErr   *Error
	closed    bool

	// resolution increments whenever the resolved identity changes;
	// evaluations counts PIN evaluations within the current resolution.
	resolution  uint64
	evaluations uint64
}

// New creates a machine in the initial AwaitingUsername state.
func New(dir Directory, sink SessionSink, opts ...Option) *Machine {
	m := &Machine{
		dir:        dir,
		sink:       sink,
		role:       staff.RoleWaiter,
		clearDelay: DefaultClearDelay,
		afterFunc:  func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		pin:        make([]byte, 0, staff.PINLength),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Role is the role username lookups are scoped to.
func (m *Machine) Role() staff.Role { return m.role }

// SetCandidate records the text currently typed in the username field.
func (m *Machine) SetCandidate(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.phase != PhaseAwaitingUsername {
		return ErrWrongPhase
	}
	m.candidate = text
	m.lastErr = nil
	return nil
}

// SubmitUsername resolves raw against the directory. On success the machine
// moves to AwaitingPin; on failure it stays put with the error recorded.
func (m *Machine) SubmitUsername(ctx context.Context, raw string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.phase != PhaseAwaitingUsername {
		return ErrWrongPhase
	}

	m.candidate = raw
	name := strings.TrimSpace(raw)
	if name == "" {
		m.lastErr = ErrEmptyInput
		return m.lastErr
	}

	id, err := m.dir.FindByUsername(ctx, name, m.role)
	if err != nil {
		if errors.Is(err, staff.ErrNotFound) {
			m.lastErr = ErrUnknownUsername.withHint(m.usernameHint)
		} else {
			m.lastErr = ErrDirectoryUnavailable.wrap(err)
		}
		return m.lastErr
	}

	m.resolved = &id
	m.phase = PhaseAwaitingPin
	m.pin = m.pin[:0]
	m.lastErr = nil
	m.resolution++
	m.evaluations = 0

	if m.ack != nil {
		m.ack.Acknowledge(ctx, id)
	}
	return nil
}

// AppendDigit adds one keypad digit. The fourth digit triggers exactly one
// evaluation against the resolved identity's PIN.
func (m *Machine) AppendDigit(ctx context.Context, d byte) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return OutcomePending, ErrClosed
	}
	if m.phase != PhaseAwaitingPin {
		return OutcomePending, ErrWrongPhase
	}
	if d < '0' || d > '9' {
		return OutcomePending, ErrInvalidDigit
	}
	if len(m.pin) >= staff.PINLength {
		return OutcomePending, ErrPinFull
	}

	m.pin = append(m.pin, d)
	m.lastErr = nil
	if len(m.pin) < staff.PINLength {
		return OutcomePending, nil
	}
	return m.evaluate(ctx)
}

func (m *Machine) evaluate(ctx context.Context) (Outcome, error) {
	m.evaluations++
	id := *m.resolved

	if subtle.ConstantTimeCompare(m.pin, []byte(id.PIN)) != 1 {
		m.lastErr = ErrInvalidPin
		m.scheduleClear(m.resolution, m.evaluations)
		return OutcomeRejected, m.lastErr
	}

	if err := m.sink.Persist(ctx, id); err != nil {
		m.pin = m.pin[:0]
		m.lastErr = ErrSessionUnavailable.wrap(err)
		return OutcomeRejected, m.lastErr
	}
	m.closed = true
	m.pin = m.pin[:0]
	m.sink.NotifySuccess(ctx, id)
	return OutcomeAuthenticated, nil
}

func (m *Machine) scheduleClear(resolution, evaluation uint64) {
	m.afterFunc(m.clearDelay, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.closed || m.phase != PhaseAwaitingPin {
			return
		}
		if m.resolution != resolution || m.evaluations != evaluation {
			return
		}
		m.pin = m.pin[:0]
	})
}

// DeleteDigit removes the most recent digit, if any.
func (m *Machine) DeleteDigit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.phase != PhaseAwaitingPin {
		return ErrWrongPhase
	}
	if n := len(m.pin); n > 0 {
		m.pin = m.pin[:n-1]
	}
	m.lastErr = nil
	return nil
}

// ChangeUsername abandons the resolved identity and returns to the initial state.
func (m *Machine) ChangeUsername() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.phase != PhaseAwaitingPin {
		return ErrWrongPhase
	}
	m.phase = PhaseAwaitingUsername
	m.candidate = ""
	m.resolved = nil
	m.pin = m.pin[:0]
	m.lastErr = nil
	m.resolution++
	m.evaluations = 0
	return nil
}

// View snapshots the observable state.
func (m *Machine) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := View{
		Phase:     m.phase,
		Username:  m.candidate,
		PinLength: len(m.pin),
		Err:       m.lastErr,
		Closed:    m.closed,
	}
	if m.resolved != nil {
		v.Username = m.resolved.Name
	}
	return v
}

// Identity returns the resolved identity while a PIN is awaited.
func (m *Machine) Identity() (staff.Identity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resolved == nil {
		return staff.Identity{}, false
	}
	return *m.resolved, true
}
