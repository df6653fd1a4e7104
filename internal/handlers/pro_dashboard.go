package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/fixara/fixara-be/internal/marketplace"
	"github.com/fixara/fixara-be/internal/models"
)

type ProDashboardHandler struct {
	DB      *gorm.DB
	Service *marketplace.Service
}

func NewProDashboardHandler(db *gorm.DB, svc *marketplace.Service) *ProDashboardHandler {
	return &ProDashboardHandler{DB: db, Service: svc}
}

// GetStats returns the summary numbers for the pro dashboard.
func (h *ProDashboardHandler) GetStats(c *fiber.Ctx) error {
	userID, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	stats, err := h.Service.GetProStats(userID)
	if err != nil {
		log.Printf("[ProDashboard] Error fetching stats for user %v: %v", userID, err)
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch stats")
	}

	var profile models.ProProfile
	rating := 0.0
	if err := h.DB.Where("user_id = ?", userID).First(&profile).Error; err == nil {
		rating = profile.AverageRating
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"pending_bids":   stats.PendingBids,
			"won_jobs":       stats.WonJobs,
			"rejected_bids":  stats.RejectedBids,
			"completed_jobs": stats.CompletedJobs,
			"average_rating": rating,
		},
	})
}
