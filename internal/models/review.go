package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is the client's rating of the pro after a job completes.
// One review per job.
type Review struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	JobID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"job_id"`
	ClientID uuid.UUID `gorm:"type:uuid;index;not null" json:"client_id"`
	ProID    uuid.UUID `gorm:"type:uuid;index;not null" json:"pro_id"`

	Rating  int    `gorm:"not null" json:"rating"` // 1-5
	Comment string `gorm:"type:text" json:"comment"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Job    *Job  `gorm:"foreignKey:JobID" json:"job,omitempty"`
	Client *User `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Pro    *User `gorm:"foreignKey:ProID" json:"pro,omitempty"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
