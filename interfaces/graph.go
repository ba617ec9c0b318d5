package interfaces

import (
	"context"

	"github.com/caseflow/mailsync/services/graph"
)

// GraphClient is the mail provider surface the sync orchestrator consumes.
type GraphClient interface {
	AcquireToken(ctx context.Context) (string, error)
	FetchFolderMessages(ctx context.Context, token, mailbox, folder string, opts graph.FetchOptions) ([]*graph.Message, error)
	FetchAttachments(ctx context.Context, token, mailbox, messageID string) ([]*graph.Attachment, error)
}
