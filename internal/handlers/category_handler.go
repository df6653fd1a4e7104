package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fixara/fixara-be/internal/models"
)

type CategoryHandler struct{}

func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

// GetCategories returns the fixed service taxonomy.
func (h *CategoryHandler) GetCategories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    models.JobCategories,
	})
}
