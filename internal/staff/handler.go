package staff

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// ListWorkspaces serves the role selection catalogue.
func ListWorkspaces(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{"workspaces": Workspaces()})
}
