package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppUser is a CRM operator account. The user directory is the fallback
// source for mailbox resolution when no mailboxes are configured explicitly.
type AppUser struct {
	ID       string `gorm:"column:id;type:uuid;primaryKey"`
	FullName string `gorm:"column:full_name;type:varchar(255)"`
	Email    string `gorm:"column:email;type:varchar(255);uniqueIndex"`
	Active   bool   `gorm:"column:active;default:true;index"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
}

func (AppUser) TableName() string {
	return "app_users"
}

func (u *AppUser) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
