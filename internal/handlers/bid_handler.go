package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fixara/fixara-be/internal/marketplace"
	"github.com/fixara/fixara-be/internal/models"
	"github.com/fixara/fixara-be/internal/realtime"
)

type BidHandler struct {
	DB      *gorm.DB
	Service *marketplace.Service
	Hub     *realtime.Hub
	RDB     *redis.Client
}

func NewBidHandler(db *gorm.DB, svc *marketplace.Service, hub *realtime.Hub, rdb *redis.Client) *BidHandler {
	return &BidHandler{DB: db, Service: svc, Hub: hub, RDB: rdb}
}

type CreateBidRequest struct {
	Price   float64 `json:"price"`
	Message string  `json:"message"`
}

type BidResponse struct {
	ID        string          `json:"id"`
	JobID     string          `json:"job_id"`
	ProID     string          `json:"pro_id"`
	Price     decimal.Decimal `json:"price"`
	Message   string          `json:"message,omitempty"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`

	Pro *UserMini    `json:"pro,omitempty"`
	Job *JobResponse `json:"job,omitempty"`
}

func toBidResponse(bid *models.Bid) BidResponse {
	resp := BidResponse{
		ID:        bid.ID.String(),
		JobID:     bid.JobID.String(),
		ProID:     bid.ProID.String(),
		Price:     bid.Price,
		Message:   bid.Message,
		Status:    string(bid.Status),
		CreatedAt: bid.CreatedAt,
		Pro:       toUserMini(bid.Pro),
	}
	if bid.Job != nil {
		job := toJobResponse(bid.Job, false)
		resp.Job = &job
	}
	return resp
}

// Create submits a bid (accept or counter-offer) on an open job.
func (h *BidHandler) Create(c *fiber.Ctx) error {
	userID, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid job ID")
	}

	var req CreateBidRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	bid, err := h.Service.SubmitBid(userID, getRole(c), jobID, decimal.NewFromFloat(req.Price), req.Message)
	if err != nil {
		return serviceError(c, err)
	}

	// tell the job owner a new bid came in
	var job models.Job
	if err := h.DB.First(&job, "id = ?", jobID).Error; err == nil {
		h.Hub.SendToUser(job.UserID, fiber.Map{
			"type": "bid_received",
			"bid":  toBidResponse(bid),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    toBidResponse(bid),
	})
}

// MyBids returns the authenticated pro's bids with their parent jobs.
func (h *BidHandler) MyBids(c *fiber.Ctx) error {
	userID, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	bids, err := h.Service.ListProBids(userID)
	if err != nil {
		log.Println("Error fetching own bids:", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch bids")
	}

	out := make([]BidResponse, 0, len(bids))
	for i := range bids {
		out = append(out, toBidResponse(&bids[i]))
	}

	return c.JSON(fiber.Map{"success": true, "data": out})
}

// Approve accepts one bid; the lifecycle service rejects the siblings and
// moves the job to in_progress as one unit.
func (h *BidHandler) Approve(c *fiber.Ctx) error {
	userID, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	bidID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid bid ID")
	}

	// capture the bids this approval will reject; bids declined earlier
	// already got their notification
	losers, _ := h.Service.ListPendingSiblings(bidID)

	bid, err := h.Service.ApproveBid(userID, bidID)
	if err != nil {
		return serviceError(c, err)
	}

	// the job left the open feed
	if err := h.RDB.Del(c.Context(), jobFeedCacheKey).Err(); err != nil {
		log.Println("Error invalidating job feed cache:", err)
	}

	h.Hub.SendToUser(bid.ProID, fiber.Map{
		"type": "bid_accepted",
		"bid":  toBidResponse(bid),
	})

	for i := range losers {
		losers[i].Status = models.BidStatusRejected
		h.Hub.SendToUser(losers[i].ProID, fiber.Map{
			"type": "bid_rejected",
			"bid":  toBidResponse(&losers[i]),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    toBidResponse(bid),
	})
}

// Decline rejects a single bid. Safe to repeat.
func (h *BidHandler) Decline(c *fiber.Ctx) error {
	userID, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	bidID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid bid ID")
	}

	bid, err := h.Service.DeclineBid(userID, bidID)
	if err != nil {
		return serviceError(c, err)
	}

	h.Hub.SendToUser(bid.ProID, fiber.Map{
		"type": "bid_rejected",
		"bid":  toBidResponse(bid),
	})

	return c.JSON(fiber.Map{
		"success": true,
		"data":    toBidResponse(bid),
	})
}
