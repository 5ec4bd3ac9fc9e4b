package models

import (
	"time"

	"github.com/google/uuid"
)

// RoomAuditEntry records one administrator action against a room, so every
// override is attributable after the fact.
type RoomAuditEntry struct {
	ID           uuid.UUID `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	AdminID      int       `json:"admin_id" db:"admin_id"`
	Action       string    `json:"action" db:"action"`
	Detail       string    `json:"detail" db:"detail"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
