package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/letmeget/swapgate/internal/escrow"
)

// EventRecord is the persisted and wire form of an escrow event.
type EventRecord struct {
	ID             string    `json:"id" gorm:"primaryKey;type:text"`
	Kind           string    `json:"kind" gorm:"index;type:text"`
	Version        uint8     `json:"version"`
	Escrow         string    `json:"escrow" gorm:"index:idx_escrow_events_escrow_height,priority:1;type:text"`
	OfferKey       string    `json:"offer_key" gorm:"index;type:text"`
	OfferContract  string    `json:"offer_contract" gorm:"type:text"`
	OfferTokenID   string    `json:"offer_token_id" gorm:"type:text"`
	WantedContract string    `json:"wanted_contract" gorm:"type:text"`
	WantedTokenID  string    `json:"wanted_token_id" gorm:"type:text"`
	Expires        uint64    `json:"expires,omitempty"`
	Signer         string    `json:"signer" gorm:"type:text"`
	Maker          string    `json:"maker,omitempty" gorm:"type:text"`
	Height         uint64    `json:"height" gorm:"index:idx_escrow_events_escrow_height,priority:2"`
	CreatedAt      time.Time `json:"created_at"`
}

func (EventRecord) TableName() string {
	return "escrow_events"
}

func NewEventRecord(ev escrow.Event) *EventRecord {
	rec := &EventRecord{
		ID:             uuid.NewString(),
		Kind:           string(ev.Kind),
		Version:        uint8(ev.Version),
		Escrow:         ev.Escrow.Hex(),
		OfferKey:       ev.OfferKey.Hex(),
		OfferContract:  ev.Terms.OfferContract.Hex(),
		OfferTokenID:   ev.Terms.OfferTokenID.String(),
		WantedContract: ev.Terms.WantedContract.Hex(),
		WantedTokenID:  ev.Terms.WantedTokenID.String(),
		Expires:        ev.Terms.Expires,
		Signer:         ev.Signer.Hex(),
		Height:         ev.Height,
		CreatedAt:      time.Now().UTC(),
	}
	if ev.Kind == escrow.KindAccept {
		rec.Maker = ev.Maker.Hex()
	}
	return rec
}

// EventFilter narrows an event listing; empty fields match everything.
type EventFilter struct {
	Escrow   string
	OfferKey string
	Kind     string
	Limit    int
}

func (f EventFilter) Match(rec *EventRecord) bool {
	if f.Escrow != "" && !strings.EqualFold(rec.Escrow, f.Escrow) {
		return false
	}
	if f.OfferKey != "" && !strings.EqualFold(rec.OfferKey, f.OfferKey) {
		return false
	}
	if f.Kind != "" && rec.Kind != f.Kind {
		return false
	}
	return true
}
