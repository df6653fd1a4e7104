package handlers

import (
	"encoding/json"
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

// jobFeedCacheKey caches the unfiltered open-job feed for a short window.
const (
	jobFeedCacheKey = "jobs:feed:open"
	jobFeedCacheTTL = 30 * time.Second
)

type JobHandler struct {
	DB      *gorm.DB
	Service *marketplace.Service
	Hub     *realtime.Hub
	RDB     *redis.Client
}

func NewJobHandler(db *gorm.DB, svc *marketplace.Service, hub *realtime.Hub, rdb *redis.Client) *JobHandler {
	return &JobHandler{DB: db, Service: svc, Hub: hub, RDB: rdb}
}

type CreateJobRequest struct {
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	Category            string   `json:"category"`
	Photos              []string `json:"photos"`
	PriceOffer          float64  `json:"price_offer"`
	ScheduleDescription string   `json:"schedule_description"`
	AllowCounterOffers  bool     `json:"allow_counter_offers"`
}

type UserMini struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	ProProfile *ProProfileMini `json:"pro_profile,omitempty"`
}

type ProProfileMini struct {
	Specializations    json.RawMessage `json:"specializations,omitempty"`
	CompletedJobsCount int             `json:"completed_jobs_count"`
	AverageRating      float64         `json:"average_rating"`
	PhotoURL           string          `json:"photo_url,omitempty"`
}

type JobResponse struct {
	ID                  string          `json:"id"`
	UserID              string          `json:"user_id"`
	Title               string          `json:"title"`
	Description         string          `json:"description"`
	Category            string          `json:"category"`
	Photos              json.RawMessage `json:"photos,omitempty"`
	PriceOffer          decimal.Decimal `json:"price_offer"`
	ScheduleDescription string          `json:"schedule_description,omitempty"`
	AllowCounterOffers  bool            `json:"allow_counter_offers"`
	Status              string          `json:"status"`
	ViewsCount          int             `json:"views_count"`
	CreatedAt           time.Time       `json:"created_at"`

	Owner *UserMini     `json:"owner,omitempty"`
	Bids  []BidResponse `json:"bids,omitempty"`
}

func toUserMini(u *models.User) *UserMini {
	if u == nil {
		return nil
	}
	m := &UserMini{ID: u.ID.String(), Name: u.Name}
	if u.ProProfile != nil {
		m.ProProfile = &ProProfileMini{
			Specializations:    json.RawMessage(u.ProProfile.Specializations),
			CompletedJobsCount: u.ProProfile.CompletedJobsCount,
			AverageRating:      u.ProProfile.AverageRating,
			PhotoURL:           u.ProProfile.PhotoURL,
		}
	}
	return m
}

func toJobResponse(job *models.Job, withBids bool) JobResponse {
	resp := JobResponse{
		ID:                  job.ID.String(),
		UserID:              job.UserID.String(),
		Title:               job.Title,
		Description:         job.Description,
		Category:            string(job.Category),
		Photos:              json.RawMessage(job.Photos),
		PriceOffer:          job.PriceOffer,
		ScheduleDescription: job.ScheduleDescription,
		AllowCounterOffers:  job.AllowCounterOffers,
		Status:              string(job.Status),
		ViewsCount:          job.ViewsCount,
		CreatedAt:           job.CreatedAt,
		Owner:               toUserMini(job.Owner),
	}
	if withBids {
		resp.Bids = make([]BidResponse, 0, len(job.Bids))
		for i := range job.Bids {
			resp.Bids = append(resp.Bids, toBidResponse(&job.Bids[i]))
		}
	}
	return resp
}

// Create posts a new job for the authenticated client.
func (h *JobHandler) Create(c *fiber.Ctx) error {
	userID, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req CreateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	var photos []byte
	if len(req.Photos) > 0 {
		photos, _ = json.Marshal(req.Photos)
	}

	job, err := h.Service.CreateJob(userID, getRole(c), marketplace.CreateJobInput{
		Title:               req.Title,
		Description:         req.Description,
		Category:            models.JobCategory(req.Category),
		Photos:              photos,
		PriceOffer:          decimal.NewFromFloat(req.PriceOffer),
		ScheduleDescription: req.ScheduleDescription,
		AllowCounterOffers:  req.AllowCounterOffers,
	})
	if err != nil {
		return serviceError(c, err)
	}

	h.invalidateFeed(c)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    toJobResponse(job, false),
	})
}

// ListPublic returns the job feed, optionally filtered by status/category.
// The unfiltered open feed is served from Redis when fresh.
func (h *JobHandler) ListPublic(c *fiber.Ctx) error {
	status := c.Query("status", string(models.JobStatusOpen))
	category := c.Query("category")

	cacheable := status == string(models.JobStatusOpen) && category == ""
	if cacheable {
		if cached, err := h.RDB.Get(c.Context(), jobFeedCacheKey).Bytes(); err == nil {
			c.Set("Content-Type", "application/json")
			return c.Send(cached)
		}
	}

	jobs, err := h.Service.ListJobs(marketplace.JobFilter{
		Status:   models.JobStatus(status),
		Category: models.JobCategory(category),
	})
	if err != nil {
		log.Println("Error fetching job feed:", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch jobs")
	}

	out := make([]JobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, toJobResponse(&jobs[i], false))
	}

	body := fiber.Map{"success": true, "data": out}
	if cacheable {
		if raw, err := json.Marshal(body); err == nil {
			if err := h.RDB.Set(c.Context(), jobFeedCacheKey, raw, jobFeedCacheTTL).Err(); err != nil {
				log.Println("Error caching job feed:", err)
			}
		}
	}

	return c.JSON(body)
}

// GetDetail returns one job with its bids and bidder profiles.
func (h *JobHandler) GetDetail(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid job ID")
	}

	job, err := h.Service.GetJob(jobID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    toJobResponse(job, true),
	})
}

// MyJobs returns the authenticated client's jobs with nested bids.
func (h *JobHandler) MyJobs(c *fiber.Ctx) error {
	userID, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	jobs, err := h.Service.ListOwnerJobs(userID)
	if err != nil {
		log.Println("Error fetching own jobs:", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch jobs")
	}

	out := make([]JobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, toJobResponse(&jobs[i], true))
	}

	return c.JSON(fiber.Map{"success": true, "data": out})
}

// Complete marks an in-progress job as done and notifies the winning pro.
func (h *JobHandler) Complete(c *fiber.Ctx) error {
	userID, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid job ID")
	}

	job, err := h.Service.CompleteJob(userID, jobID)
	if err != nil {
		return serviceError(c, err)
	}

	h.invalidateFeed(c)

	var winner models.Bid
	if err := h.DB.Where("job_id = ? AND status = ?", jobID, models.BidStatusAccepted).
		First(&winner).Error; err == nil {
		h.Hub.SendToUser(winner.ProID, fiber.Map{
			"type": "job_completed",
			"job":  toJobResponse(job, false),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    toJobResponse(job, false),
	})
}

func (h *JobHandler) invalidateFeed(c *fiber.Ctx) {
	if err := h.RDB.Del(c.Context(), jobFeedCacheKey).Err(); err != nil {
		log.Println("Error invalidating job feed cache:", err)
	}
}
