package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/letmeget/swapgate/internal/model"
)

type PostgresEventRepo struct {
	db *gorm.DB
}

func NewPostgresEventRepo(db *gorm.DB) (*PostgresEventRepo, error) {
	if err := db.AutoMigrate(&model.EventRecord{}); err != nil {
		return nil, err
	}
	return &PostgresEventRepo{db: db}, nil
}

func (r *PostgresEventRepo) Insert(ctx context.Context, entry *model.EventRecord) error {
	if entry == nil {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entry).Error
}

func (r *PostgresEventRepo) List(ctx context.Context, filter model.EventFilter) ([]*model.EventRecord, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := r.db.WithContext(ctx).Model(&model.EventRecord{})
	if filter.Escrow != "" {
		query = query.Where("LOWER(escrow) = LOWER(?)", filter.Escrow)
	}
	if filter.OfferKey != "" {
		query = query.Where("LOWER(offer_key) = LOWER(?)", filter.OfferKey)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}

	records := make([]*model.EventRecord, 0, limit)
	err := query.Order("height DESC").Order("created_at DESC").Limit(limit).Find(&records).Error
	return records, err
}

func (r *PostgresEventRepo) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if olderThan <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	return r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&model.EventRecord{}).Error
}
