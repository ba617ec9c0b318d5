package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/caseflow/mailsync/interfaces"
	"github.com/caseflow/mailsync/internal/models"
	"github.com/caseflow/mailsync/internal/tracing"
)

type legacyLeadRepository struct {
	db *gorm.DB
}

func NewLegacyLeadRepository(db *gorm.DB) interfaces.LegacyLeadRepository {
	return &legacyLeadRepository{
		db: db,
	}
}

func (r *legacyLeadRepository) GetAll(ctx context.Context) ([]*models.LegacyLead, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "legacyLeadRepository.GetAll")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var leads []*models.LegacyLead
	if err := r.db.WithContext(ctx).Find(&leads).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return leads, nil
}
