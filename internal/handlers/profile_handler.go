package handlers

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fixara/fixara-be/internal/models"
)

type ProfileHandler struct {
	DB *gorm.DB
}

func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{DB: db}
}

// Me returns the authenticated user's account (with pro profile if any).
func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	userID, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var user models.User
	if err := h.DB.Preload("ProProfile").First(&user, "id = ?", userID).Error; err != nil {
		return fail(c, fiber.StatusUnauthorized, "User not found")
	}

	data := fiber.Map{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"phone": user.Phone,
		"role":  user.Role,
	}
	if user.ProProfile != nil {
		data["pro_profile"] = user.ProProfile
	}

	return c.JSON(fiber.Map{"success": true, "data": data})
}

// GetProProfile is the public view of a pro, shown on bid cards.
func (h *ProfileHandler) GetProProfile(c *fiber.Ctx) error {
	proID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid user ID")
	}

	var user models.User
	if err := h.DB.Preload("ProProfile").
		First(&user, "id = ? AND role = ?", proID, models.RolePro).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Pro not found")
	}

	resp := fiber.Map{
		"id":   user.ID,
		"name": user.Name,
	}
	if user.ProProfile != nil {
		resp["specializations"] = json.RawMessage(user.ProProfile.Specializations)
		resp["completed_jobs_count"] = user.ProProfile.CompletedJobsCount
		resp["average_rating"] = user.ProProfile.AverageRating
		resp["bio"] = user.ProProfile.Bio
		resp["photo_url"] = user.ProProfile.PhotoURL
	}

	return c.JSON(fiber.Map{"success": true, "data": resp})
}

type UpdateProProfileRequest struct {
	Bio             *string  `json:"bio"`
	PhotoURL        *string  `json:"photo_url"`
	Specializations []string `json:"specializations"`
}

// UpdateProProfile edits the authenticated pro's own profile fields.
// Aggregates (rating, completed jobs) are system-maintained and not editable.
func (h *ProfileHandler) UpdateProProfile(c *fiber.Ctx) error {
	userID, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req UpdateProProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if req.Specializations != nil {
		for _, s := range req.Specializations {
			if !models.ValidJobCategory(models.JobCategory(s)) {
				return fail(c, fiber.StatusBadRequest, "Unknown specialization: "+s)
			}
		}
	}

	var p models.ProProfile
	if err := h.DB.Where("user_id = ?", userID).First(&p).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Profile not found")
	}

	if req.Bio != nil {
		p.Bio = *req.Bio
	}
	if req.PhotoURL != nil {
		p.PhotoURL = *req.PhotoURL
	}
	if req.Specializations != nil {
		raw, _ := json.Marshal(req.Specializations)
		p.Specializations = datatypes.JSON(raw)
	}
	p.UpdatedAt = time.Now()

	if err := h.DB.Save(&p).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to update profile")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Profile updated",
		"data":    p,
	})
}
