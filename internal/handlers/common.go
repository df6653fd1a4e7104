package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/fixara/fixara-be/internal/marketplace"
	"github.com/fixara/fixara-be/internal/models"
)

func getUserUUID(c *fiber.Ctx) (uuid.UUID, error) {
	v := c.Locals("userId")
	if v == nil {
		return uuid.Nil, fmt.Errorf("unauthorized")
	}

	switch t := v.(type) {
	case uuid.UUID:
		return t, nil
	case string:
		return uuid.Parse(t)
	case []byte:
		return uuid.ParseBytes(t)
	default:
		return uuid.Nil, fmt.Errorf("invalid userId type: %T", v)
	}
}

func getRole(c *fiber.Ctx) models.Role {
	if v, ok := c.Locals("role").(string); ok {
		return models.Role(v)
	}
	return ""
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": msg,
	})
}

// serviceError translates lifecycle results into the response envelope.
// Every error stays typed end to end; only unknown errors become a 500.
func serviceError(c *fiber.Ctx, err error) error {
	var ve *marketplace.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Validation error",
			"errors":  ve.Fields,
		})
	case errors.Is(err, marketplace.ErrAuthenticationRequired):
		return fail(c, fiber.StatusUnauthorized, "Authentication required")
	case errors.Is(err, marketplace.ErrAuthorization):
		return fail(c, fiber.StatusForbidden, "You are not allowed to do that")
	case errors.Is(err, marketplace.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "Not found")
	case errors.Is(err, marketplace.ErrDuplicateBid):
		return fail(c, fiber.StatusConflict, "You have already submitted a bid for this job")
	case errors.Is(err, marketplace.ErrAlreadyReviewed):
		return fail(c, fiber.StatusConflict, "This job has already been reviewed")
	case errors.Is(err, marketplace.ErrInvalidState):
		return fail(c, fiber.StatusConflict, "This action is no longer possible for the current status")
	case errors.Is(err, marketplace.ErrCounterOffersNotAllowed):
		return fail(c, fiber.StatusUnprocessableEntity, "This job only accepts bids at the listed price")
	case errors.Is(err, marketplace.ErrPartialFailure):
		return fail(c, fiber.StatusServiceUnavailable, "The approval could not be completed. Refresh the job and try again")
	default:
		return fail(c, fiber.StatusInternalServerError, "Something went wrong")
	}
}
