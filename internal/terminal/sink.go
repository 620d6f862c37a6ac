package terminal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ama-bakery/staff_terminal/internal/notification"
	"github.com/ama-bakery/staff_terminal/internal/staff"
)

// Sink receives the outcome of one verification on one terminal. It persists
// the verified identity and forwards welcome and sign-in notices.
type Sink struct {
	terminalID string
	store      Store
	notifier   notification.Notifier
	logger     *slog.Logger
	now        func() time.Time
}

// NewSink binds a sink to terminalID. notifier and logger may be nil.
func NewSink(terminalID string, store Store, notifier notification.Notifier, logger *slog.Logger) *Sink {
	return &Sink{
		terminalID: terminalID,
		store:      store,
		notifier:   notifier,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Persist stores the signed-in identity for the terminal.
func (s *Sink) Persist(ctx context.Context, id staff.Identity) error {
	return s.store.Save(ctx, StaffSession{
		TerminalID: s.terminalID,
		StaffID:    id.ID,
		Name:       id.Name,
		Role:       id.Role,
		SignedInAt: s.now(),
	})
}

// NotifySuccess tells the terminal host that the member may proceed.
func (s *Sink) NotifySuccess(ctx context.Context, id staff.Identity) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "terminal.sign_in completed",
			slog.String("terminal_id", s.terminalID),
			slog.String("staff_id", id.ID),
			slog.String("role", string(id.Role)),
		)
	}
	s.send(ctx, notification.Message{
		Kind:        notification.KindStaffSignedIn,
		Destination: s.terminalID,
		Title:       "Login successful!",
		Body:        fmt.Sprintf("Welcome back, %s!", id.Name),
	})
}

// Acknowledge greets a member whose username resolved.
func (s *Sink) Acknowledge(ctx context.Context, id staff.Identity) {
	s.send(ctx, notification.Message{
		Kind:        notification.KindStaffWelcome,
		Destination: s.terminalID,
		Title:       fmt.Sprintf("Welcome %s!", id.Name),
		Body:        "Please enter your PIN",
	})
}

func (s *Sink) send(ctx context.Context, msg notification.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, msg); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "notification failed", slog.String("kind", msg.Kind), slog.Any("error", err))
	}
}
