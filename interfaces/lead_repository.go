package interfaces

import (
	"context"

	"github.com/caseflow/mailsync/internal/models"
)

type LeadRepository interface {
	GetAll(ctx context.Context) ([]*models.Lead, error)
	GetByID(ctx context.Context, id string) (*models.Lead, error)
}

type LegacyLeadRepository interface {
	GetAll(ctx context.Context) ([]*models.LegacyLead, error)
}
