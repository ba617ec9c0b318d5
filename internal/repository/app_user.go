package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/caseflow/mailsync/interfaces"
	"github.com/caseflow/mailsync/internal/models"
	"github.com/caseflow/mailsync/internal/tracing"
	"github.com/caseflow/mailsync/internal/utils"
)

type appUserRepository struct {
	db *gorm.DB
}

func NewAppUserRepository(db *gorm.DB) interfaces.AppUserRepository {
	return &appUserRepository{
		db: db,
	}
}

// GetActiveEmails returns the emails of all active users. The domain filter
// is applied client-side on the parsed domain part, not in SQL, so malformed
// addresses are simply dropped instead of matched by accident.
func (r *appUserRepository) GetActiveEmails(ctx context.Context, domain string) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "appUserRepository.GetActiveEmails")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var users []*models.AppUser
	if err := r.db.WithContext(ctx).
		Where("active = ? AND email IS NOT NULL AND email <> ''", true).
		Find(&users).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	emails := make([]string, 0, len(users))
	for _, u := range users {
		email := utils.NormalizeEmailAddress(u.Email)
		if email == "" {
			continue
		}
		if domain != "" && !utils.DomainMatches(email, domain) {
			continue
		}
		emails = append(emails, email)
	}

	return utils.UniqueEmails(emails), nil
}
