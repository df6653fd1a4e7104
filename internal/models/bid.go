package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BidStatus string

// Bid status is terminal once resolved: pending -> accepted | rejected.
const (
	BidStatusPending  BidStatus = "pending"
	BidStatusAccepted BidStatus = "accepted"
	BidStatusRejected BidStatus = "rejected"
)

// Bid is a pro's offer against a job, either at the listed price or a
// counter-offer. The composite unique index on (job_id, pro_id) is the
// authoritative guard against double bidding; application-level checks are
// an optimization only.
type Bid struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	JobID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bids_job_pro" json:"job_id"`
	ProID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bids_job_pro" json:"pro_id"`

	Price   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Message string          `gorm:"type:text" json:"message"`

	Status BidStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Job *Job  `gorm:"foreignKey:JobID" json:"job,omitempty"`
	Pro *User `gorm:"foreignKey:ProID" json:"pro,omitempty"`
}

func (b *Bid) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}
