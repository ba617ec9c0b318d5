package interfaces

import (
	"context"

	"github.com/caseflow/mailsync/dto"
)

type EventsPublisher interface {
	PublishLeadEmailAttached(ctx context.Context, event dto.LeadEmailAttached) error
	Close() error
}
