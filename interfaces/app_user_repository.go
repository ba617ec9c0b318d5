package interfaces

import "context"

type AppUserRepository interface {
	// GetActiveEmails returns all non-empty emails of active users,
	// optionally filtered to addresses on the given domain.
	GetActiveEmails(ctx context.Context, domain string) ([]string, error)
}
