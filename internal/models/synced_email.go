package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/caseflow/mailsync/internal/enum"
	"github.com/caseflow/mailsync/internal/utils"
)

// SyncedEmail is one mailbox message attached to a lead, uniquely keyed by
// the provider message id. Repeated syncs over overlapping windows upsert on
// that key, fully replacing the derived columns.
type SyncedEmail struct {
	ID                string  `gorm:"column:id;type:varchar(50);primaryKey"`
	ProviderMessageID string  `gorm:"column:provider_message_id;type:varchar(255);uniqueIndex;not null"`
	InternetMessageID *string `gorm:"column:internet_message_id;type:varchar(512);index"`

	// Attached lead: exactly one of these is set, mirroring the contact's
	// source schema.
	LeadID       *string `gorm:"column:lead_id;type:uuid;index"`
	LegacyLeadID *int64  `gorm:"column:legacy_lead_id;index"`

	ThreadID    string         `gorm:"column:thread_id;type:varchar(255);index"`
	FromName    string         `gorm:"column:from_name;type:varchar(255)"`
	FromAddress string         `gorm:"column:from_address;type:varchar(255);index"`
	ToAddresses pq.StringArray `gorm:"column:to_addresses;type:text[]"`
	CcAddresses pq.StringArray `gorm:"column:cc_addresses;type:text[]"`
	// RecipientList is the comma-joined To+Cc list the CRM views render.
	RecipientList string `gorm:"column:recipient_list;type:text"`

	Subject     string              `gorm:"column:subject;type:varchar(1000)"`
	BodyHTML    string              `gorm:"column:body_html;type:text"`
	BodyPreview string              `gorm:"column:body_preview;type:varchar(500)"`
	SentAt      *time.Time          `gorm:"column:sent_at;type:timestamp;index"`
	Direction   enum.EmailDirection `gorm:"column:direction;type:varchar(20);index"`

	Attachments JSONArray `gorm:"column:attachments;type:jsonb"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
}

func (SyncedEmail) TableName() string {
	return "synced_emails"
}

func (e *SyncedEmail) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = utils.GenerateNanoIDWithPrefix("email", 24)
	}
	e.CreatedAt = utils.Now()
	return nil
}
