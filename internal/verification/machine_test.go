package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ama-bakery/staff_terminal/internal/staff"
)

type recordingSink struct {
	persisted []staff.Identity
	notified  []staff.Identity
	err       error
}

func (s *recordingSink) Persist(_ context.Context, id staff.Identity) error {
	if s.err != nil {
		return s.err
	}
	s.persisted = append(s.persisted, id)
	return nil
}

func (s *recordingSink) NotifySuccess(_ context.Context, id staff.Identity) {
	s.notified = append(s.notified, id)
}

type recordingAck struct {
	names []string
}

func (a *recordingAck) Acknowledge(_ context.Context, id staff.Identity) {
	a.names = append(a.names, id.Name)
}

type failingDirectory struct{}

func (failingDirectory) FindByUsername(context.Context, string, staff.Role) (staff.Identity, error) {
	return staff.Identity{}, errors.New("connection refused")
}

// manualTimers captures scheduled callbacks so tests decide when they fire.
type manualTimers struct {
	delays []time.Duration
	fns    []func()
}

func (mt *manualTimers) afterFunc(d time.Duration, f func()) {
	mt.delays = append(mt.delays, d)
	mt.fns = append(mt.fns, f)
}

func (mt *manualTimers) fireAll() {
	fns := mt.fns
	mt.fns = nil
	for _, f := range fns {
		f()
	}
}

var rahul = staff.Identity{ID: "w1", Name: "Rahul", Role: staff.RoleWaiter, PIN: "1234"}

func newTestMachine(t *testing.T, ids ...staff.Identity) (*Machine, *recordingSink, *manualTimers) {
	t.Helper()
	if len(ids) == 0 {
		ids = []staff.Identity{rahul}
	}
	sink := &recordingSink{}
	timers := &manualTimers{}
	m := New(staff.NewMemoryDirectory(ids...), sink, WithAfterFunc(timers.afterFunc))
	return m, sink, timers
}

func enter(t *testing.T, m *Machine, digits string) Outcome {
	t.Helper()
	var out Outcome
	for i := 0; i < len(digits); i++ {
		var err error
		out, err = m.AppendDigit(context.Background(), digits[i])
		if err != nil && !errors.Is(err, ErrInvalidPin) {
			t.Fatalf("append %c: %v", digits[i], err)
		}
	}
	return out
}

func assertInitial(t *testing.T, m *Machine) {
	t.Helper()
	v := m.View()
	if v.Phase != PhaseAwaitingUsername || v.Username != "" || v.PinLength != 0 || v.Err != nil || v.Closed {
		t.Fatalf("expected initial state, got %+v", v)
	}
	if _, ok := m.Identity(); ok {
		t.Fatal("expected no resolved identity")
	}
}

func TestSubmitUsernameResolvesCaseInsensitively(t *testing.T) {
	for _, name := range []string{"Rahul", "rahul", "RAHUL", "  rahul  "} {
		ack := &recordingAck{}
		m := New(staff.NewMemoryDirectory(rahul), &recordingSink{}, WithAcknowledger(ack))

		if err := m.SubmitUsername(context.Background(), name); err != nil {
			t.Fatalf("submit %q: %v", name, err)
		}
		v := m.View()
		if v.Phase != PhaseAwaitingPin || v.PinLength != 0 || v.Err != nil {
			t.Fatalf("unexpected view after %q: %+v", name, v)
		}
		id, ok := m.Identity()
		if !ok || id != rahul {
			t.Fatalf("expected Rahul resolved, got %+v", id)
		}
		if len(ack.names) != 1 || ack.names[0] != "Rahul" {
			t.Fatalf("expected one welcome for Rahul, got %v", ack.names)
		}
	}
}

func TestSubmitUsernameEmptyInput(t *testing.T) {
	for _, raw := range []string{"", "  ", "\t\n"} {
		m, _, _ := newTestMachine(t)
		err := m.SubmitUsername(context.Background(), raw)
		if !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("expected empty input for %q, got %v", raw, err)
		}
		v := m.View()
		if v.Phase != PhaseAwaitingUsername || v.Err == nil || v.Err.Kind != KindEmptyInput {
			t.Fatalf("unexpected view: %+v", v)
		}
	}
}

func TestSubmitUsernameEmptyInputSkipsLookup(t *testing.T) {
	m := New(failingDirectory{}, &recordingSink{})
	if err := m.SubmitUsername(context.Background(), "   "); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected empty input before any lookup, got %v", err)
	}
}

func TestSubmitUsernameUnknownRetainsCandidate(t *testing.T) {
	m, _, _ := newTestMachine(t)
	err := m.SubmitUsername(context.Background(), "Ravi")
	if !errors.Is(err, ErrUnknownUsername) {
		t.Fatalf("expected unknown username, got %v", err)
	}
	v := m.View()
	if v.Phase != PhaseAwaitingUsername || v.Username != "Ravi" || v.Err.Kind != KindUnknownUsername {
		t.Fatalf("unexpected view: %+v", v)
	}
}

func TestSubmitUsernameUnknownCarriesHint(t *testing.T) {
	m := New(staff.NewMemoryDirectory(rahul), &recordingSink{}, WithUsernameHint("Try 'Rahul' or 'Priya'"))
	err := m.SubmitUsername(context.Background(), "Ravi")
	if !errors.Is(err, ErrUnknownUsername) {
		t.Fatalf("expected unknown username, got %v", err)
	}
	if got := m.View().Err.Message; got != "Username not found. Try 'Rahul' or 'Priya'" {
		t.Fatalf("unexpected message %q", got)
	}
	if ErrUnknownUsername.Message != "Username not found" {
		t.Fatalf("shared sentinel mutated: %q", ErrUnknownUsername.Message)
	}
}

func TestSubmitUsernameOtherRoleIsUnknown(t *testing.T) {
	m, _, _ := newTestMachine(t, staff.Identity{ID: "k1", Name: "Priya", Role: staff.RoleKitchen, PIN: "2345"})
	if err := m.SubmitUsername(context.Background(), "Priya"); !errors.Is(err, ErrUnknownUsername) {
		t.Fatalf("expected unknown username for kitchen-only Priya, got %v", err)
	}
}

func TestSubmitUsernameDirectoryUnavailable(t *testing.T) {
	m := New(failingDirectory{}, &recordingSink{})
	err := m.SubmitUsername(context.Background(), "Rahul")
	if !errors.Is(err, ErrDirectoryUnavailable) {
		t.Fatalf("expected directory unavailable, got %v", err)
	}
	if v := m.View(); v.Phase != PhaseAwaitingUsername || v.Username != "Rahul" {
		t.Fatalf("unexpected view: %+v", v)
	}
}

func TestNewInputClearsError(t *testing.T) {
	m, _, _ := newTestMachine(t)
	_ = m.SubmitUsername(context.Background(), "nobody")
	if err := m.SetCandidate("Rah"); err != nil {
		t.Fatalf("set candidate: %v", err)
	}
	if v := m.View(); v.Err != nil || v.Username != "Rah" {
		t.Fatalf("expected cleared error, got %+v", v)
	}
}

func TestCorrectPinAuthenticatesOnce(t *testing.T) {
	m, sink, _ := newTestMachine(t)
	if err := m.SubmitUsername(context.Background(), "rahul"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	for i, d := range []byte("123") {
		out, err := m.AppendDigit(context.Background(), d)
		if err != nil || out != OutcomePending {
			t.Fatalf("digit %d: outcome %v err %v", i, out, err)
		}
		if len(sink.persisted) != 0 {
			t.Fatal("evaluated before four digits")
		}
	}

	out, err := m.AppendDigit(context.Background(), '4')
	if err != nil || out != OutcomeAuthenticated {
		t.Fatalf("expected authentication, got %v %v", out, err)
	}
	if len(sink.persisted) != 1 || sink.persisted[0] != rahul {
		t.Fatalf("expected one persist of Rahul, got %+v", sink.persisted)
	}
	if len(sink.notified) != 1 {
		t.Fatalf("expected one success notification, got %d", len(sink.notified))
	}

	if _, err := m.AppendDigit(context.Background(), '1'); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected closed machine, got %v", err)
	}
	if err := m.DeleteDigit(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected closed machine, got %v", err)
	}
	if err := m.ChangeUsername(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected closed machine, got %v", err)
	}
	if err := m.SubmitUsername(context.Background(), "Rahul"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected closed machine, got %v", err)
	}
	if len(sink.persisted) != 1 || len(sink.notified) != 1 {
		t.Fatal("sink called again after close")
	}
	if !m.View().Closed {
		t.Fatal("expected view to report closed")
	}
}

func TestWrongPinRejectsThenClearsAfterDelay(t *testing.T) {
	m, sink, timers := newTestMachine(t)
	_ = m.SubmitUsername(context.Background(), "Rahul")

	if out := enter(t, m, "1235"); out != OutcomeRejected {
		t.Fatalf("expected rejection, got %v", out)
	}
	v := m.View()
	if v.Err == nil || v.Err.Kind != KindInvalidPin || v.PinLength != 4 {
		t.Fatalf("expected full buffer with invalid pin error, got %+v", v)
	}
	if len(timers.delays) != 1 || timers.delays[0] != DefaultClearDelay {
		t.Fatalf("expected one clear scheduled at default delay, got %v", timers.delays)
	}

	if _, err := m.AppendDigit(context.Background(), '9'); !errors.Is(err, ErrPinFull) {
		t.Fatalf("expected full buffer guard, got %v", err)
	}

	timers.fireAll()
	v = m.View()
	if v.Phase != PhaseAwaitingPin || v.PinLength != 0 {
		t.Fatalf("expected empty buffer awaiting pin, got %+v", v)
	}
	if id, ok := m.Identity(); !ok || id != rahul {
		t.Fatal("resolved identity lost after clear")
	}
	if len(sink.persisted) != 0 || len(sink.notified) != 0 {
		t.Fatal("sink called on mismatch")
	}
}

func TestUnlimitedRetries(t *testing.T) {
	m, sink, timers := newTestMachine(t)
	_ = m.SubmitUsername(context.Background(), "Rahul")

	for i := 0; i < 25; i++ {
		if out := enter(t, m, "0000"); out != OutcomeRejected {
			t.Fatalf("attempt %d: expected rejection, got %v", i, out)
		}
		timers.fireAll()
	}
	if out := enter(t, m, "1234"); out != OutcomeAuthenticated {
		t.Fatalf("expected success after many failures, got %v", out)
	}
	if len(sink.persisted) != 1 {
		t.Fatalf("expected one persist, got %d", len(sink.persisted))
	}
}

func TestConcreteScenario(t *testing.T) {
	m, sink, timers := newTestMachine(t)

	if err := m.SubmitUsername(context.Background(), "rahul"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out := enter(t, m, "1235"); out != OutcomeRejected {
		t.Fatalf("expected InvalidPin, got %v", out)
	}
	timers.fireAll()
	if m.View().PinLength != 0 {
		t.Fatal("buffer not cleared after delay")
	}
	if out := enter(t, m, "1234"); out != OutcomeAuthenticated {
		t.Fatalf("expected success, got %v", out)
	}
	if len(sink.persisted) != 1 || sink.persisted[0].Name != "Rahul" || len(sink.notified) != 1 {
		t.Fatalf("expected persist(Rahul) and notifySuccess once, got %+v / %d", sink.persisted, len(sink.notified))
	}
}

func TestDeleteDigit(t *testing.T) {
	m, sink, _ := newTestMachine(t)
	_ = m.SubmitUsername(context.Background(), "Rahul")

	if err := m.DeleteDigit(); err != nil {
		t.Fatalf("delete on empty buffer: %v", err)
	}
	enter(t, m, "129")
	if err := m.DeleteDigit(); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := m.View().PinLength; n != 2 {
		t.Fatalf("expected 2 digits, got %d", n)
	}
	if out := enter(t, m, "34"); out != OutcomeAuthenticated {
		t.Fatalf("expected success, got %v", out)
	}
	if len(sink.persisted) != 1 {
		t.Fatal("expected single evaluation")
	}
}

func TestDeleteDigitClearsError(t *testing.T) {
	m, _, _ := newTestMachine(t)
	_ = m.SubmitUsername(context.Background(), "Rahul")
	enter(t, m, "5555")
	if err := m.DeleteDigit(); err != nil {
		t.Fatalf("delete: %v", err)
	}
	v := m.View()
	if v.Err != nil || v.PinLength != 3 {
		t.Fatalf("unexpected view: %+v", v)
	}
}

func TestGuardsOutsideAwaitingPin(t *testing.T) {
	m, _, _ := newTestMachine(t)
	if _, err := m.AppendDigit(context.Background(), '1'); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("expected wrong phase, got %v", err)
	}
	if err := m.DeleteDigit(); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("expected wrong phase, got %v", err)
	}
	if err := m.ChangeUsername(); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("expected wrong phase, got %v", err)
	}
	_ = m.SubmitUsername(context.Background(), "Rahul")
	if err := m.SubmitUsername(context.Background(), "Rahul"); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("expected wrong phase, got %v", err)
	}
	if err := m.SetCandidate("x"); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("expected wrong phase, got %v", err)
	}
	if _, err := m.AppendDigit(context.Background(), 'a'); !errors.Is(err, ErrInvalidDigit) {
		t.Fatalf("expected invalid digit, got %v", err)
	}
	if n := m.View().PinLength; n != 0 {
		t.Fatalf("guard changed state: %d digits", n)
	}
}

func TestChangeUsernameRestoresInitialState(t *testing.T) {
	for _, digits := range []string{"", "1", "12", "123", "9999"} {
		m, _, _ := newTestMachine(t)
		_ = m.SubmitUsername(context.Background(), "Rahul")
		enter(t, m, digits)
		if err := m.ChangeUsername(); err != nil {
			t.Fatalf("change username after %q: %v", digits, err)
		}
		assertInitial(t, m)
	}
}

func TestStaleClearIsIgnoredAfterChangeUsername(t *testing.T) {
	m, _, timers := newTestMachine(t)
	_ = m.SubmitUsername(context.Background(), "Rahul")
	enter(t, m, "0000")

	_ = m.ChangeUsername()
	_ = m.SubmitUsername(context.Background(), "Rahul")
	enter(t, m, "12")

	timers.fireAll()
	if n := m.View().PinLength; n != 2 {
		t.Fatalf("stale clear wiped new input: %d digits", n)
	}
}

func TestStaleClearIsIgnoredAfterLaterEvaluation(t *testing.T) {
	m, _, timers := newTestMachine(t)
	_ = m.SubmitUsername(context.Background(), "Rahul")
	enter(t, m, "0000")
	first := timers.fns[0]
	timers.fns = nil

	_ = m.DeleteDigit()
	enter(t, m, "1")
	first()
	if n := m.View().PinLength; n != 4 {
		t.Fatalf("first clear should not touch second evaluation: %d digits", n)
	}
	timers.fireAll()
	if n := m.View().PinLength; n != 0 {
		t.Fatalf("second clear should empty the buffer: %d digits", n)
	}
}

func TestPersistFailureKeepsIdentity(t *testing.T) {
	sink := &recordingSink{err: errors.New("redis down")}
	m := New(staff.NewMemoryDirectory(rahul), sink)
	_ = m.SubmitUsername(context.Background(), "Rahul")

	out, err := m.AppendDigit(context.Background(), '1')
	for _, d := range []byte("234") {
		out, err = m.AppendDigit(context.Background(), d)
	}
	if out != OutcomeRejected || !errors.Is(err, ErrSessionUnavailable) {
		t.Fatalf("expected session unavailable, got %v %v", out, err)
	}
	v := m.View()
	if v.Phase != PhaseAwaitingPin || v.PinLength != 0 || v.Closed {
		t.Fatalf("unexpected view: %+v", v)
	}
	if len(sink.notified) != 0 {
		t.Fatal("success signalled without persistence")
	}

	sink.err = nil
	if out := enter(t, m, "1234"); out != OutcomeAuthenticated {
		t.Fatalf("expected retry to succeed, got %v", out)
	}
}

func TestRealTimerClearsBuffer(t *testing.T) {
	m := New(staff.NewMemoryDirectory(rahul), &recordingSink{}, WithClearDelay(10*time.Millisecond))
	_ = m.SubmitUsername(context.Background(), "Rahul")
	enter(t, m, "4321")

	deadline := time.Now().Add(2 * time.Second)
	for m.View().PinLength != 0 {
		if time.Now().After(deadline) {
			t.Fatal("buffer never cleared")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWithRoleScopesLookup(t *testing.T) {
	kitchen := staff.Identity{ID: "k1", Name: "Arjun", Role: staff.RoleKitchen, PIN: "3456"}
	m := New(staff.NewMemoryDirectory(rahul, kitchen), &recordingSink{}, WithRole(staff.RoleKitchen))
	if err := m.SubmitUsername(context.Background(), "Rahul"); !errors.Is(err, ErrUnknownUsername) {
		t.Fatalf("expected waiter hidden from kitchen terminal, got %v", err)
	}
	if err := m.SubmitUsername(context.Background(), "arjun"); err != nil {
		t.Fatalf("submit arjun: %v", err)
	}
}
