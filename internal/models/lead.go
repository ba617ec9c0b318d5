package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lead is a case record in the active schema.
type Lead struct {
	ID         string `gorm:"column:id;type:uuid;primaryKey"`
	LeadNumber string `gorm:"column:lead_number;type:varchar(50);index"`
	Name       string `gorm:"column:name;type:varchar(255)"`
	Email      string `gorm:"column:email;type:varchar(255);index"`
	Phone      string `gorm:"column:phone;type:varchar(50)"`
	Stage      string `gorm:"column:stage;type:varchar(100);index"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
}

func (Lead) TableName() string {
	return "leads"
}

func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}
