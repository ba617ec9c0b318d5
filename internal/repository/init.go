package repository

import (
	"gorm.io/gorm"

	"github.com/caseflow/mailsync/interfaces"
	"github.com/caseflow/mailsync/internal/models"
)

type Repositories struct {
	LeadRepository        interfaces.LeadRepository
	LegacyLeadRepository  interfaces.LegacyLeadRepository
	AppUserRepository     interfaces.AppUserRepository
	SyncedEmailRepository interfaces.SyncedEmailRepository
}

func InitRepositories(crmDB *gorm.DB) *Repositories {
	return &Repositories{
		LeadRepository:        NewLeadRepository(crmDB),
		LegacyLeadRepository:  NewLegacyLeadRepository(crmDB),
		AppUserRepository:     NewAppUserRepository(crmDB),
		SyncedEmailRepository: NewSyncedEmailRepository(crmDB),
	}
}

func MigrateDB(crmDB *gorm.DB) error {
	return crmDB.AutoMigrate(
		&models.Lead{},
		&models.LegacyLead{},
		&models.AppUser{},
		&models.SyncedEmail{},
	)
}
