package notification

import (
	"context"
	"log/slog"
	"sync"
)

const (
	// KindStaffWelcome greets a staff member whose username just resolved.
	KindStaffWelcome = "staff_welcome"
	// KindStaffSignedIn announces a completed sign-in on a terminal.
	KindStaffSignedIn = "staff_signed_in"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Title       string
	Body        string
}

// Notifier delivers notifications to the terminal host.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(ctx context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.InfoContext(ctx, "notification",
		slog.String("kind", message.Kind),
		slog.String("destination", message.Destination),
		slog.String("title", message.Title),
		slog.String("body", message.Body),
	)
	return nil
}

// Recorder keeps messages until they are drained. Terminals show drained
// messages as toasts.
type Recorder struct {
	next Notifier

	mu      sync.Mutex
	pending []Message
}

// NewRecorder wraps next, which may be nil.
func NewRecorder(next Notifier) *Recorder {
	return &Recorder{next: next}
}

// Send records the message and forwards it.
func (r *Recorder) Send(ctx context.Context, message Message) error {
	r.mu.Lock()
	r.pending = append(r.pending, message)
	r.mu.Unlock()
	if r.next != nil {
		return r.next.Send(ctx, message)
	}
	return nil
}

// Drain returns the messages recorded since the previous call.
func (r *Recorder) Drain() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.pending
	r.pending = nil
	return out
}
