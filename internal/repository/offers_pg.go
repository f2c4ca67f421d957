package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/letmeget/swapgate/internal/escrow"
)

var _ escrow.Store = (*PostgresOfferStore)(nil)

// offerRow is one registry entry. A missing row is an absent offer.
type offerRow struct {
	Namespace string    `gorm:"primaryKey;type:text"`
	OfferKey  string    `gorm:"primaryKey;type:text"`
	Revoked   bool      `gorm:"not null;default:false"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (offerRow) TableName() string {
	return "escrow_offers"
}

type PostgresOfferStore struct {
	db        *gorm.DB
	namespace string
}

func NewPostgresOfferStore(db *gorm.DB, namespace string) (*PostgresOfferStore, error) {
	if err := db.AutoMigrate(&offerRow{}); err != nil {
		return nil, err
	}
	return &PostgresOfferStore{db: db, namespace: namespace}, nil
}

func (s *PostgresOfferStore) Get(ctx context.Context, offerKey common.Hash) (escrow.Record, error) {
	var row offerRow
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND offer_key = ?", s.namespace, offerKey.Hex()).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return escrow.Record{}, nil
	}
	if err != nil {
		return escrow.Record{}, err
	}
	return escrow.Record{Exists: true, Revoked: row.Revoked}, nil
}

func (s *PostgresOfferStore) Put(ctx context.Context, offerKey common.Hash, rec escrow.Record) error {
	db := s.db.WithContext(ctx)
	if !rec.Exists {
		return db.Where("namespace = ? AND offer_key = ?", s.namespace, offerKey.Hex()).
			Delete(&offerRow{}).Error
	}
	row := offerRow{
		Namespace: s.namespace,
		OfferKey:  offerKey.Hex(),
		Revoked:   rec.Revoked,
		UpdatedAt: time.Now().UTC(),
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "offer_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"revoked", "updated_at"}),
	}).Create(&row).Error
}

func (s *PostgresOfferStore) Delete(ctx context.Context, offerKey common.Hash) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("namespace = ? AND offer_key = ? AND revoked = ?", s.namespace, offerKey.Hex(), false).
		Delete(&offerRow{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
