package models

import "time"

// LegacyLead is a case record migrated from the prior system. The numeric id
// doubles as the lead number.
type LegacyLead struct {
	ID    int64  `gorm:"column:id;primaryKey"`
	Name  string `gorm:"column:name;type:varchar(255)"`
	Email string `gorm:"column:email;type:varchar(255);index"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
}

func (LegacyLead) TableName() string {
	return "legacy_leads"
}
