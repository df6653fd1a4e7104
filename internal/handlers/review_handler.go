package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixara/fixara-be/internal/marketplace"
	"github.com/fixara/fixara-be/internal/realtime"
)

type ReviewHandler struct {
	DB      *gorm.DB
	Service *marketplace.Service
	Hub     *realtime.Hub
}

func NewReviewHandler(db *gorm.DB, svc *marketplace.Service, hub *realtime.Hub) *ReviewHandler {
	return &ReviewHandler{DB: db, Service: svc, Hub: hub}
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Create rates the pro after a completed job. One review per job.
func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	userID, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid job ID")
	}

	var req CreateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	review, err := h.Service.SubmitReview(userID, jobID, req.Rating, req.Comment)
	if err != nil {
		return serviceError(c, err)
	}

	h.Hub.SendToUser(review.ProID, fiber.Map{
		"type":   "review_received",
		"review": review,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    review,
	})
}
