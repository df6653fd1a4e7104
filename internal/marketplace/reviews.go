package marketplace

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixara/fixara-be/internal/models"
)

// SubmitReview records the client's rating of the pro that completed the job
// and recomputes the pro's public stats. One review per job, owner only,
// completed jobs only.
func (s *Service) SubmitReview(callerID uuid.UUID, jobID uuid.UUID, rating int, comment string) (*models.Review, error) {
	if callerID == uuid.Nil {
		return nil, ErrAuthenticationRequired
	}

	fields := FieldErrors{}
	if rating < 1 || rating > 5 {
		fields.Add("rating", "Rating must be between 1 and 5")
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
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
	if job.Status != models.JobStatusCompleted {
		return nil, ErrInvalidState
	}

	var winner models.Bid
	err := s.DB.Where("job_id = ? AND status = ?", jobID, models.BidStatusAccepted).First(&winner).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidState
		}
		return nil, err
	}

	review := models.Review{
		JobID:    jobID,
		ClientID: callerID,
		ProID:    winner.ProID,
		Rating:   rating,
		Comment:  comment,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyReviewed
			}
			return err
		}
		return s.refreshProStats(tx, winner.ProID)
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// refreshProStats recomputes completed-job and rating aggregates from the
// source tables, so the profile never drifts from the review ledger.
func (s *Service) refreshProStats(tx *gorm.DB, proID uuid.UUID) error {
	var completed int64
	if err := tx.Model(&models.Bid{}).
		Joins("JOIN jobs ON jobs.id = bids.job_id").
		Where("bids.pro_id = ? AND bids.status = ? AND jobs.status = ?",
			proID, models.BidStatusAccepted, models.JobStatusCompleted).
		Count(&completed).Error; err != nil {
		return err
	}

	var avg float64
	if err := tx.Model(&models.Review{}).
		Where("pro_id = ?", proID).
		Select("COALESCE(AVG(rating), 0)").
		Scan(&avg).Error; err != nil {
		return err
	}

	return tx.Model(&models.ProProfile{}).
		Where("user_id = ?", proID).
		Updates(map[string]interface{}{
			"completed_jobs_count": completed,
			"average_rating":       avg,
		}).Error
}
