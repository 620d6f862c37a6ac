package terminal

import (
	"context"
	"errors"
	"time"

	"github.com/ama-bakery/staff_terminal/internal/staff"
)

// ErrNoSession is returned when nobody is signed in on the terminal.
var ErrNoSession = errors.New("no staff signed in on terminal")

// StaffSession is the record left behind by a successful verification. It
// never carries the PIN.
type StaffSession struct {
	TerminalID string     `json:"terminal_id"`
	StaffID    string     `json:"staff_id"`
	Name       string     `json:"name"`
	Role       staff.Role `json:"role"`
	SignedInAt time.Time  `json:"signed_in_at"`
}

// Store keeps the signed-in staff member of each terminal.
type Store interface {
	Save(ctx context.Context, session StaffSession) error
	Current(ctx context.Context, terminalID string) (StaffSession, error)
	Clear(ctx context.Context, terminalID string) error
}
