package marketplace

import (
	"errors"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixara/fixara-be/internal/models"
)

// JobFilter narrows the public job feed. Zero values mean "any".
type JobFilter struct {
	Status   models.JobStatus
	Category models.JobCategory
}

// ListJobs returns the job feed, newest first.
func (s *Service) ListJobs(f JobFilter) ([]models.Job, error) {
	q := s.DB.Model(&models.Job{}).
		Preload("Owner").
		Order("created_at DESC")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}

	var jobs []models.Job
	if err := q.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetJob loads a single job with its owner and bids (including bidder
// profiles) and bumps the view counter.
func (s *Service) GetJob(jobID uuid.UUID) (*models.Job, error) {
	var job models.Job
	err := s.DB.
		Preload("Owner").
		Preload("Bids", func(db *gorm.DB) *gorm.DB {
			return db.Order("bids.created_at DESC")
		}).
		Preload("Bids.Pro").
		Preload("Bids.Pro.ProProfile").
		First(&job, "id = ?", jobID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.DB.Model(&models.Job{}).
		Where("id = ?", jobID).
		UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error; err != nil {
		log.Printf("Error bumping views for job %s: %v", jobID, err)
	}
	job.ViewsCount++
	return &job, nil
}

// ListOwnerJobs returns a client's own jobs with nested bids, newest first.
func (s *Service) ListOwnerJobs(ownerID uuid.UUID) ([]models.Job, error) {
	var jobs []models.Job
	err := s.DB.
		Preload("Bids", func(db *gorm.DB) *gorm.DB {
			return db.Order("bids.created_at DESC")
		}).
		Preload("Bids.Pro").
		Preload("Bids.Pro.ProProfile").
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// ListPendingSiblings returns the other still-pending bids on the same job.
// Callers capture this before an approval so they know exactly which bids the
// cascade rejected; bids resolved earlier are not included.
func (s *Service) ListPendingSiblings(bidID uuid.UUID) ([]models.Bid, error) {
	var bid models.Bid
	if err := s.DB.First(&bid, "id = ?", bidID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var siblings []models.Bid
	err := s.DB.
		Where("job_id = ? AND id <> ? AND status = ?", bid.JobID, bidID, models.BidStatusPending).
		Find(&siblings).Error
	if err != nil {
		return nil, err
	}
	return siblings, nil
}

// ListProBids returns a pro's bids with their parent jobs, newest first.
func (s *Service) ListProBids(proID uuid.UUID) ([]models.Bid, error) {
	var bids []models.Bid
	err := s.DB.
		Preload("Job").
		Preload("Job.Owner").
		Where("pro_id = ?", proID).
		Order("created_at DESC").
		Find(&bids).Error
	if err != nil {
		return nil, err
	}
	return bids, nil
}

// ProStats summarises a pro's activity for the dashboard.
type ProStats struct {
	PendingBids   int64 `json:"pending_bids"`
	WonJobs       int64 `json:"won_jobs"`
	RejectedBids  int64 `json:"rejected_bids"`
	CompletedJobs int64 `json:"completed_jobs"`
}

func (s *Service) GetProStats(proID uuid.UUID) (*ProStats, error) {
	var st ProStats
	if err := s.DB.Model(&models.Bid{}).
		Where("pro_id = ? AND status = ?", proID, models.BidStatusPending).
		Count(&st.PendingBids).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Bid{}).
		Where("pro_id = ? AND status = ?", proID, models.BidStatusAccepted).
		Count(&st.WonJobs).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Bid{}).
		Where("pro_id = ? AND status = ?", proID, models.BidStatusRejected).
		Count(&st.RejectedBids).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Bid{}).
		Joins("JOIN jobs ON jobs.id = bids.job_id").
		Where("bids.pro_id = ? AND bids.status = ? AND jobs.status = ?",
			proID, models.BidStatusAccepted, models.JobStatusCompleted).
		Count(&st.CompletedJobs).Error; err != nil {
		return nil, err
	}
	return &st, nil
}
