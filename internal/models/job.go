package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type JobCategory string

const (
	CategoryElectricity JobCategory = "Electricity"
	CategoryPlumbing    JobCategory = "Plumbing"
	CategoryAssembly    JobCategory = "Assembly"
	CategoryMoving      JobCategory = "Moving"
	CategoryPainting    JobCategory = "Painting"
)

// JobCategories is the fixed taxonomy, in display order.
var JobCategories = []JobCategory{
	CategoryElectricity,
	CategoryPlumbing,
	CategoryAssembly,
	CategoryMoving,
	CategoryPainting,
}

func ValidJobCategory(c JobCategory) bool {
	for _, v := range JobCategories {
		if v == c {
			return true
		}
	}
	return false
}

type JobStatus string

// Job status only ever moves forward: open -> in_progress -> completed.
const (
	JobStatusOpen       JobStatus = "open"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
)

type Job struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Title       string      `gorm:"not null" json:"title"`
	Description string      `gorm:"type:text;not null" json:"description"`
	Category    JobCategory `gorm:"type:varchar(30);not null;index" json:"category"`

	Photos datatypes.JSON `json:"photos"` // array of image URLs

	PriceOffer          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price_offer"`
	ScheduleDescription string          `gorm:"type:text" json:"schedule_description"`
	AllowCounterOffers  bool            `gorm:"not null;default:false" json:"allow_counter_offers"`

	Status JobStatus `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`

	ViewsCount int `gorm:"not null;default:0" json:"views_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Owner *User `gorm:"foreignKey:UserID" json:"owner,omitempty"`
	Bids  []Bid `gorm:"foreignKey:JobID" json:"bids,omitempty"`
}

func (j *Job) BeforeCreate(tx *gorm.DB) (err error) {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return
}
