package terminal

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ama-bakery/staff_terminal/internal/metrics"
)

// Handler exposes the signed-in staff member of each terminal.
type Handler struct {
	store  Store
	logger *slog.Logger
}

// NewHandler constructs a terminal session handler.
func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Current returns who is signed in on the terminal.
func (h *Handler) Current(c *fiber.Ctx) error {
	session, err := h.store.Current(c.UserContext(), c.Params("terminalId"))
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusServiceUnavailable, err.Error())
	}
	return c.Status(http.StatusOK).JSON(session)
}

// SignOut clears the terminal so the next person starts from role selection.
func (h *Handler) SignOut(c *fiber.Ctx) error {
	terminalID := c.Params("terminalId")
	if err := h.store.Clear(c.UserContext(), terminalID); err != nil {
		return fiber.NewError(http.StatusServiceUnavailable, err.Error())
	}
	metrics.SignOutsTotal.Inc()
	if h.logger != nil {
		h.logger.InfoContext(c.UserContext(), "terminal.sign_out completed", slog.String("terminal_id", terminalID))
	}
	return c.SendStatus(http.StatusNoContent)
}
