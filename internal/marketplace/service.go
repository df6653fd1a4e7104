package marketplace

import (
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fixara/fixara-be/internal/models"
)

// approveAttempts bounds the retry budget for the approval cascade.
const approveAttempts = 3

// Service owns the job/bid lifecycle rules. Every operation takes the
// verified caller identity explicitly; there is no ambient session state.
type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// CreateJobInput carries the client-provided fields of a new job posting.
type CreateJobInput struct {
	Title               string
	Description         string
	Category            models.JobCategory
	Photos              []byte // JSON array of URLs, may be nil
	PriceOffer          decimal.Decimal
	ScheduleDescription string
	AllowCounterOffers  bool
}

// CreateJob validates the input and creates exactly one open job owned by
// the caller. Nothing is written when validation fails.
func (s *Service) CreateJob(callerID uuid.UUID, role models.Role, in CreateJobInput) (*models.Job, error) {
	if callerID == uuid.Nil {
		return nil, ErrAuthenticationRequired
	}
	if role != models.RoleClient {
		return nil, ErrAuthorization
	}

	fields := FieldErrors{}
	if strings.TrimSpace(in.Title) == "" {
		fields.Add("title", "Title is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		fields.Add("description", "Description is required")
	}
	if in.Category == "" {
		fields.Add("category", "Category is required")
	} else if !models.ValidJobCategory(in.Category) {
		fields.Add("category", "Unknown category")
	}
	if !in.PriceOffer.IsPositive() {
		fields.Add("price_offer", "Price must be positive")
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	job := models.Job{
		UserID:              callerID,
		Title:               strings.TrimSpace(in.Title),
		Description:         strings.TrimSpace(in.Description),
		Category:            in.Category,
		Photos:              in.Photos,
		PriceOffer:          in.PriceOffer,
		ScheduleDescription: strings.TrimSpace(in.ScheduleDescription),
		AllowCounterOffers:  in.AllowCounterOffers,
		Status:              models.JobStatusOpen,
	}
	if err := s.DB.Create(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// SubmitBid creates a pending bid on an open job. A price different from the
// listed offer is a counter-offer and is only allowed when the job permits it.
// Double bids are refused by the (job_id, pro_id) unique index; the lookup
// below only exists to give a friendlier answer without hitting the insert.
func (s *Service) SubmitBid(callerID uuid.UUID, role models.Role, jobID uuid.UUID, price decimal.Decimal, message string) (*models.Bid, error) {
	if callerID == uuid.Nil {
		return nil, ErrAuthenticationRequired
	}
	if role != models.RolePro {
		return nil, ErrAuthorization
	}

	if !price.IsPositive() {
		fields := FieldErrors{}
		fields.Add("price", "Price must be positive")
		return nil, &ValidationError{Fields: fields}
	}

	var job models.Job
	if err := s.DB.First(&job, "id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if job.Status != models.JobStatusOpen {
		return nil, ErrInvalidState
	}
	if job.UserID == callerID {
		return nil, ErrAuthorization
	}
	if !price.Equal(job.PriceOffer) && !job.AllowCounterOffers {
		return nil, ErrCounterOffersNotAllowed
	}

	var existing models.Bid
	err := s.DB.Where("job_id = ? AND pro_id = ?", jobID, callerID).First(&existing).Error
	if err == nil {
		return nil, ErrDuplicateBid
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	bid := models.Bid{
		JobID:   jobID,
		ProID:   callerID,
		Price:   price,
		Message: strings.TrimSpace(message),
		Status:  models.BidStatusPending,
	}
	if err := s.DB.Create(&bid).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateBid
		}
		return nil, err
	}
	return &bid, nil
}

// ApproveBid runs the approval cascade as one transaction, in fixed order:
// accept the target bid, reject its pending siblings, move the job to
// in_progress. Every write is guarded by the expected current status, so a
// concurrent approval loses with ErrInvalidState instead of double-applying.
// Transient store failures are retried a bounded number of times; after the
// budget is spent the caller gets ErrPartialFailure and must re-check state.
func (s *Service) ApproveBid(callerID uuid.UUID, bidID uuid.UUID) (*models.Bid, error) {
	if callerID == uuid.Nil {
		return nil, ErrAuthenticationRequired
	}

	bid, job, err := s.bidWithJob(bidID)
	if err != nil {
		return nil, err
	}
	if job.UserID != callerID {
		return nil, ErrAuthorization
	}
	if bid.Status != models.BidStatusPending {
		return nil, ErrInvalidState
	}

	var lastErr error
	for attempt := 1; attempt <= approveAttempts; attempt++ {
		lastErr = s.DB.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.Bid{}).
				Where("id = ? AND status = ?", bidID, models.BidStatusPending).
				Update("status", models.BidStatusAccepted)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Someone resolved this bid first.
				return ErrInvalidState
			}

			if err := tx.Model(&models.Bid{}).
				Where("job_id = ? AND id <> ? AND status = ?", bid.JobID, bidID, models.BidStatusPending).
				Update("status", models.BidStatusRejected).Error; err != nil {
				return err
			}

			res = tx.Model(&models.Job{}).
				Where("id = ? AND status = ?", bid.JobID, models.JobStatusOpen).
				Update("status", models.JobStatusInProgress)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Job left open status under us; roll everything back.
				return ErrInvalidState
			}
			return nil
		})

		if lastErr == nil {
			break
		}
		if errors.Is(lastErr, ErrInvalidState) {
			return nil, ErrInvalidState
		}
		log.Printf("ApproveBid attempt %d/%d failed for bid %s: %v", attempt, approveAttempts, bidID, lastErr)
	}
	if lastErr != nil {
		return nil, errors.Join(ErrPartialFailure, lastErr)
	}

	var out models.Bid
	if err := s.DB.First(&out, "id = ?", bidID).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// DeclineBid rejects a single pending bid. Declining a bid that is already
// rejected is a no-op; declining an accepted bid is refused because resolved
// bids are terminal.
func (s *Service) DeclineBid(callerID uuid.UUID, bidID uuid.UUID) (*models.Bid, error) {
	if callerID == uuid.Nil {
		return nil, ErrAuthenticationRequired
	}

	bid, job, err := s.bidWithJob(bidID)
	if err != nil {
		return nil, err
	}
	if job.UserID != callerID {
		return nil, ErrAuthorization
	}

	switch bid.Status {
	case models.BidStatusRejected:
		return bid, nil // idempotent
	case models.BidStatusAccepted:
		return nil, ErrInvalidState
	}

	res := s.DB.Model(&models.Bid{}).
		Where("id = ? AND status = ?", bidID, models.BidStatusPending).
		Update("status", models.BidStatusRejected)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Raced with an approval or another decline; re-read to decide.
		var cur models.Bid
		if err := s.DB.First(&cur, "id = ?", bidID).Error; err != nil {
			return nil, err
		}
		if cur.Status == models.BidStatusRejected {
			return &cur, nil
		}
		return nil, ErrInvalidState
	}

	bid.Status = models.BidStatusRejected
	return bid, nil
}

// CompleteJob moves an in-progress job to completed. Owner only.
func (s *Service) CompleteJob(callerID uuid.UUID, jobID uuid.UUID) (*models.Job, error) {
	if callerID == uuid.Nil {
		return nil, ErrAuthenticationRequired
	}

	var job models.Job
	if err := s.DB.First(&job, "id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if job.UserID != callerID {
		return nil, ErrAuthorization
	}
	if job.Status != models.JobStatusInProgress {
		return nil, ErrInvalidState
	}

	res := s.DB.Model(&models.Job{}).
		Where("id = ? AND status = ?", jobID, models.JobStatusInProgress).
		Update("status", models.JobStatusCompleted)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidState
	}

	job.Status = models.JobStatusCompleted
	return &job, nil
}

func (s *Service) bidWithJob(bidID uuid.UUID) (*models.Bid, *models.Job, error) {
	var bid models.Bid
	if err := s.DB.First(&bid, "id = ?", bidID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	var job models.Job
	if err := s.DB.First(&job, "id = ?", bid.JobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return &bid, &job, nil
}
