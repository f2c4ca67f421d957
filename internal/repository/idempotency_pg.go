package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/letmeget/swapgate/internal/middleware"
)

type idempotencyRow struct {
	Key          string    `gorm:"primaryKey;type:text"`
	StatusCode   int       `gorm:"not null;default:0"`
	ResponseBody []byte    `gorm:"type:bytea"`
	Processing   bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (idempotencyRow) TableName() string {
	return "idempotency_keys"
}

type PostgresIdempotencyStore struct {
	db *gorm.DB
}

func NewPostgresIdempotencyStore(db *gorm.DB) (*PostgresIdempotencyStore, error) {
	if err := db.AutoMigrate(&idempotencyRow{}); err != nil {
		return nil, err
	}
	return &PostgresIdempotencyStore{db: db}, nil
}

func (s *PostgresIdempotencyStore) GetOrLock(key string) (*middleware.IdempotencyRecord, bool) {
	ctx := context.Background()
	row := idempotencyRow{Key: key, Processing: true, CreatedAt: time.Now().UTC()}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error == nil && res.RowsAffected > 0 {
		return nil, false
	}

	var existing idempotencyRow
	if err := s.db.WithContext(ctx).Where("key = ?", key).Take(&existing).Error; err != nil {
		return nil, false
	}
	return &middleware.IdempotencyRecord{
		Status:     existing.StatusCode,
		Body:       existing.ResponseBody,
		CreatedAt:  existing.CreatedAt,
		Processing: existing.Processing,
	}, true
}

func (s *PostgresIdempotencyStore) Save(key string, status int, body []byte) {
	_ = s.db.WithContext(context.Background()).
		Model(&idempotencyRow{}).
		Where("key = ?", key).
		Updates(map[string]any{
			"status_code":   status,
			"response_body": body,
			"processing":    false,
		}).Error
}

func (s *PostgresIdempotencyStore) Unlock(key string) {
	_ = s.db.WithContext(context.Background()).Where("key = ?", key).Delete(&idempotencyRow{}).Error
}

func (s *PostgresIdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if olderThan <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	return s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&idempotencyRow{}).Error
}
