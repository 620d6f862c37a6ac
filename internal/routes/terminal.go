package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ama-bakery/staff_terminal/internal/staff"
	"github.com/ama-bakery/staff_terminal/internal/terminal"
)

// RegisterWorkspaceRoutes wires the role selection catalogue.
func RegisterWorkspaceRoutes(r fiber.Router) {
	r.Get("/workspaces", staff.ListWorkspaces)
}

// RegisterTerminalRoutes wires the signed-in staff endpoints.
func RegisterTerminalRoutes(r fiber.Router, h *terminal.Handler) {
	r.Get("/terminals/:terminalId/staff", h.Current)
	r.Delete("/terminals/:terminalId/staff", h.SignOut)
}
