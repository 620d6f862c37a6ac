package login

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ama-bakery/staff_terminal/internal/metrics"
	"github.com/ama-bakery/staff_terminal/internal/notification"
	"github.com/ama-bakery/staff_terminal/internal/staff"
	"github.com/ama-bakery/staff_terminal/internal/verification"
)

// Handler exposes the login flow of a terminal over HTTP.
type Handler struct {
	attempts *Registry
	logger   *slog.Logger
}

// NewHandler constructs a login HTTP handler.
func NewHandler(attempts *Registry, logger *slog.Logger) *Handler {
	return &Handler{attempts: attempts, logger: logger}
}

type startRequest struct {
	TerminalID string `json:"terminal_id" validate:"required,max=64,printascii"`
}

type usernameRequest struct {
	Username string `json:"username" validate:"max=64"`
}

type digitRequest struct {
	Digit string `json:"digit" validate:"required,len=1,numeric"`
}

type errorBody struct {
	Kind    verification.Kind `json:"kind"`
	Message string            `json:"message"`
}

type noticeBody struct {
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type stateResponse struct {
	AttemptID  string       `json:"attempt_id"`
	TerminalID string       `json:"terminal_id"`
	StartedAt  time.Time    `json:"started_at"`
	Role       staff.Role   `json:"role"`
	Phase      string       `json:"phase"`
	Username   string       `json:"username,omitempty"`
	PinLength  int          `json:"pin_length"`
	Error      *errorBody   `json:"error,omitempty"`
	Notices    []noticeBody `json:"notices,omitempty"`
}

type staffBody struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Role staff.Role `json:"role"`
}

type successResponse struct {
	Status   string       `json:"status"`
	Redirect string       `json:"redirect"`
	Staff    staffBody    `json:"staff"`
	Notices  []noticeBody `json:"notices,omitempty"`
}

// Start opens the login view on a terminal.
func (h *Handler) Start(c *fiber.Ctx) error {
	var req startRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validateRequest(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	a := h.attempts.Start(req.TerminalID)
	return c.Status(http.StatusCreated).JSON(h.state(a))
}

// Get returns the current state of an attempt.
func (h *Handler) Get(c *fiber.Ctx) error {
	a, err := h.attempt(c)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(h.state(a))
}

// EditUsername records the username field as it is typed.
func (h *Handler) EditUsername(c *fiber.Ctx) error {
	a, req, err := h.usernameInput(c)
	if err != nil {
		return err
	}
	if err := a.Machine.SetCandidate(req.Username); err != nil {
		return h.fail(c, a, err)
	}
	return c.Status(http.StatusOK).JSON(h.state(a))
}

// SubmitUsername resolves the typed username.
func (h *Handler) SubmitUsername(c *fiber.Ctx) error {
	a, req, err := h.usernameInput(c)
	if err != nil {
		return err
	}
	if err := a.Machine.SubmitUsername(c.UserContext(), req.Username); err != nil {
		var verr *verification.Error
		if errors.As(err, &verr) {
			metrics.UsernameSubmissionsTotal.WithLabelValues(string(verr.Kind)).Inc()
		}
		return h.fail(c, a, err)
	}
	metrics.UsernameSubmissionsTotal.WithLabelValues("resolved").Inc()
	return c.Status(http.StatusOK).JSON(h.state(a))
}

// PressDigit appends one keypad digit, completing the sign-in on the
// fourth correct digit.
func (h *Handler) PressDigit(c *fiber.Ctx) error {
	a, err := h.attempt(c)
	if err != nil {
		return err
	}
	var req digitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validateRequest(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	outcome, err := a.Machine.AppendDigit(c.UserContext(), req.Digit[0])
	switch outcome {
	case verification.OutcomeAuthenticated:
		metrics.PinEvaluationsTotal.WithLabelValues("authenticated").Inc()
		return h.succeed(c, a)
	case verification.OutcomeRejected:
		var verr *verification.Error
		if errors.As(err, &verr) {
			metrics.PinEvaluationsTotal.WithLabelValues(string(verr.Kind)).Inc()
		}
	}
	if err != nil {
		return h.fail(c, a, err)
	}
	return c.Status(http.StatusOK).JSON(h.state(a))
}

// DeleteDigit removes the last keypad digit.
func (h *Handler) DeleteDigit(c *fiber.Ctx) error {
	a, err := h.attempt(c)
	if err != nil {
		return err
	}
	if err := a.Machine.DeleteDigit(); err != nil {
		return h.fail(c, a, err)
	}
	return c.Status(http.StatusOK).JSON(h.state(a))
}

// ChangeUsername goes back to the username step.
func (h *Handler) ChangeUsername(c *fiber.Ctx) error {
	a, err := h.attempt(c)
	if err != nil {
		return err
	}
	if err := a.Machine.ChangeUsername(); err != nil {
		return h.fail(c, a, err)
	}
	return c.Status(http.StatusOK).JSON(h.state(a))
}

func (h *Handler) attempt(c *fiber.Ctx) (*Attempt, error) {
	a, err := h.attempts.Get(c.Params("attemptId"))
	if err != nil {
		return nil, fiber.NewError(http.StatusNotFound, err.Error())
	}
	return a, nil
}

func (h *Handler) usernameInput(c *fiber.Ctx) (*Attempt, usernameRequest, error) {
	var req usernameRequest
	a, err := h.attempt(c)
	if err != nil {
		return nil, req, err
	}
	if err := c.BodyParser(&req); err != nil {
		return nil, req, fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validateRequest(req); err != nil {
		return nil, req, fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return a, req, nil
}

func (h *Handler) succeed(c *fiber.Ctx, a *Attempt) error {
	id, _ := a.Machine.Identity()
	h.attempts.Finish(a.ID)
	return c.Status(http.StatusOK).JSON(successResponse{
		Status:   "authenticated",
		Redirect: staff.HomePath(id.Role),
		Staff:    staffBody{ID: id.ID, Name: id.Name, Role: id.Role},
		Notices:  toNotices(a.Notices()),
	})
}

func (h *Handler) fail(c *fiber.Ctx, a *Attempt, err error) error {
	var verr *verification.Error
	switch {
	case errors.As(err, &verr):
		status := http.StatusUnprocessableEntity
		if verr.Kind == verification.KindDirectoryUnavailable || verr.Kind == verification.KindSessionUnavailable {
			status = http.StatusServiceUnavailable
			if h.logger != nil {
				h.logger.ErrorContext(c.UserContext(), "login backend unavailable",
					slog.String("attempt_id", a.ID),
					slog.String("kind", string(verr.Kind)),
					slog.Any("error", verr.Err),
				)
			}
		}
		return c.Status(status).JSON(h.state(a))
	case errors.Is(err, verification.ErrInvalidDigit):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, verification.ErrWrongPhase),
		errors.Is(err, verification.ErrPinFull),
		errors.Is(err, verification.ErrClosed):
		return fiber.NewError(http.StatusConflict, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) state(a *Attempt) stateResponse {
	v := a.Machine.View()
	resp := stateResponse{
		AttemptID:  a.ID,
		TerminalID: a.TerminalID,
		StartedAt:  a.StartedAt,
		Role:       a.Machine.Role(),
		Phase:      v.Phase.String(),
		Username:   v.Username,
		PinLength:  v.PinLength,
		Notices:    toNotices(a.Notices()),
	}
	if v.Err != nil {
		resp.Error = &errorBody{Kind: v.Err.Kind, Message: v.Err.Message}
	}
	return resp
}

func toNotices(msgs []notification.Message) []noticeBody {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]noticeBody, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, noticeBody{Kind: m.Kind, Title: m.Title, Description: m.Body})
	}
	return out
}
