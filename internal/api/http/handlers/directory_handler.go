package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-portal/internal/directory"
)

const directorySearchLimit = 25

// DirectoryHandler exposes directory search. An unconfigured directory yields
// an empty list, never an error.
type DirectoryHandler struct {
	client *directory.Client
}

// NewDirectoryHandler constructs handler.
func NewDirectoryHandler(client *directory.Client) *DirectoryHandler {
	return &DirectoryHandler{client: client}
}

// Search handles GET /directory/users?q=.
func (h *DirectoryHandler) Search(c *fiber.Ctx) error {
	results := h.client.SearchUsers(c.UserContext(), c.Query("q"), directorySearchLimit)
	return c.JSON(results)
}
