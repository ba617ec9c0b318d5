package interfaces

import (
	"context"

	"github.com/caseflow/mailsync/dto"
)

type EmailSyncService interface {
	// SyncMailboxes runs one full sync pass. Explicit mailboxes, when given,
	// are unioned with the configured list; otherwise resolution falls back
	// to the active-user directory.
	SyncMailboxes(ctx context.Context, explicit ...string) (*dto.SyncResult, error)
}
