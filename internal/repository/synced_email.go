package repository

import (
	"context"
	"errors"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/caseflow/mailsync/interfaces"
	"github.com/caseflow/mailsync/internal/models"
	"github.com/caseflow/mailsync/internal/tracing"
)

type syncedEmailRepository struct {
	db *gorm.DB
}

func NewSyncedEmailRepository(db *gorm.DB) interfaces.SyncedEmailRepository {
	return &syncedEmailRepository{
		db: db,
	}
}

// UpsertBatch writes the batch in one statement with provider_message_id as
// the conflict key. The derived columns (attached lead, direction, body,
// preview, recipients) are always replaced on conflict, never carried over
// from a prior sync of the same message.
func (r *syncedEmailRepository) UpsertBatch(ctx context.Context, records []*models.SyncedEmail) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "syncedEmailRepository.UpsertBatch")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("records", len(records))

	if len(records) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	for _, rec := range records {
		rec.UpdatedAt = now
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider_message_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"internet_message_id",
			"lead_id",
			"legacy_lead_id",
			"thread_id",
			"from_name",
			"from_address",
			"to_addresses",
			"cc_addresses",
			"recipient_list",
			"subject",
			"body_html",
			"body_preview",
			"sent_at",
			"direction",
			"attachments",
			"updated_at",
		}),
	}).Create(&records)

	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

func (r *syncedEmailRepository) GetByProviderMessageID(ctx context.Context, providerMessageID string) (*models.SyncedEmail, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "syncedEmailRepository.GetByProviderMessageID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var email models.SyncedEmail
	if err := r.db.WithContext(ctx).
		Where("provider_message_id = ?", providerMessageID).
		First(&email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &email, nil
}

func (r *syncedEmailRepository) ListByLead(ctx context.Context, leadID string, limit, offset int) ([]*models.SyncedEmail, int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "syncedEmailRepository.ListByLead")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagLead(span, leadID)

	return r.list(ctx, span, "lead_id = ?", leadID, limit, offset)
}

func (r *syncedEmailRepository) ListByLegacyLead(ctx context.Context, legacyLeadID int64, limit, offset int) ([]*models.SyncedEmail, int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "syncedEmailRepository.ListByLegacyLead")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	return r.list(ctx, span, "legacy_lead_id = ?", legacyLeadID, limit, offset)
}

func (r *syncedEmailRepository) list(ctx context.Context, span opentracing.Span, condition string, arg interface{}, limit, offset int) ([]*models.SyncedEmail, int64, error) {
	var emails []*models.SyncedEmail
	var count int64

	if err := r.db.WithContext(ctx).Model(&models.SyncedEmail{}).
		Where(condition, arg).
		Count(&count).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Where(condition, arg).
		Order("sent_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&emails).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	return emails, count, nil
}
