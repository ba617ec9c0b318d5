package interfaces

import (
	"context"

	"github.com/caseflow/mailsync/internal/models"
)

type SyncedEmailRepository interface {
	// UpsertBatch stores the records with provider_message_id as the conflict
	// key, fully replacing derived columns on conflict. Returns the number of
	// rows written.
	UpsertBatch(ctx context.Context, records []*models.SyncedEmail) (int64, error)
	GetByProviderMessageID(ctx context.Context, providerMessageID string) (*models.SyncedEmail, error)
	ListByLead(ctx context.Context, leadID string, limit, offset int) ([]*models.SyncedEmail, int64, error)
	ListByLegacyLead(ctx context.Context, legacyLeadID int64, limit, offset int) ([]*models.SyncedEmail, int64, error)
}
