package repository

import (
	"context"
	"errors"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/caseflow/mailsync/interfaces"
	"github.com/caseflow/mailsync/internal/models"
	"github.com/caseflow/mailsync/internal/tracing"
)

type leadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) interfaces.LeadRepository {
	return &leadRepository{
		db: db,
	}
}

// GetAll returns a point-in-time projection of the current leads table. The
// contact index is rebuilt from this on every sync pass, so no caching here.
func (r *leadRepository) GetAll(ctx context.Context) ([]*models.Lead, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "leadRepository.GetAll")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var leads []*models.Lead
	if err := r.db.WithContext(ctx).Find(&leads).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return leads, nil
}

func (r *leadRepository) GetByID(ctx context.Context, id string) (*models.Lead, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "leadRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagLead(span, id)

	var lead models.Lead
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&lead).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &lead, nil
}
