package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ama-bakery/staff_terminal/internal/login"
)

// RegisterLoginRoutes wires the two-step login flow. Keypad presses go
// through idempotency so a retried press is not counted twice.
func RegisterLoginRoutes(r fiber.Router, h *login.Handler, idempotency fiber.Handler) {
	group := r.Group("/login/attempts")
	group.Post("", h.Start)
	group.Get("/:attemptId", h.Get)
	group.Patch("/:attemptId/username", h.EditUsername)
	group.Post("/:attemptId/username", h.SubmitUsername)
	group.Post("/:attemptId/digits", idempotency, h.PressDigit)
	group.Delete("/:attemptId/digits/last", idempotency, h.DeleteDigit)
	group.Post("/:attemptId/reset", h.ChangeUsername)
}
