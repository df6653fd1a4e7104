package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProProfile holds the public professional profile of a pro-role user.
type ProProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	// Categories the pro works in, e.g. ["Plumbing","Electricity"]
	Specializations datatypes.JSON `json:"specializations"`

	CompletedJobsCount int     `gorm:"not null;default:0" json:"completed_jobs_count"`
	AverageRating      float64 `gorm:"not null;default:0" json:"average_rating"`

	Bio      string `gorm:"type:text" json:"bio"`
	PhotoURL string `gorm:"type:text" json:"photo_url"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *ProProfile) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
