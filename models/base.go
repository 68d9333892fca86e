package models

import "time"

// Base carries the fields every catalog and ledger record shares.
// Records are soft-deleted by clearing Active.
type Base struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Active    bool      `json:"active" gorm:"not null"`
}
