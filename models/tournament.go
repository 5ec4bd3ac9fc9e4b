package models

import "time"

// TournamentStatus mirrors the ENUM owned by the tournament service.
type TournamentStatus string

const (
	StatusUpcoming  TournamentStatus = "upcoming"
	StatusLive      TournamentStatus = "live"
	StatusCompleted TournamentStatus = "completed"
	StatusCancelled TournamentStatus = "cancelled"
)

// Finished reports whether the tournament can no longer accept room changes.
func (s TournamentStatus) Finished() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// TournamentMode determines how many players a team seats.
type TournamentMode string

const (
	ModeSolo  TournamentMode = "solo"
	ModeDuo   TournamentMode = "duo"
	ModeSquad TournamentMode = "squad"
)

func (m TournamentMode) PlayersPerTeam() int {
	switch m {
	case ModeDuo:
		return 2
	case ModeSquad:
		return 4
	default:
		return 1
	}
}

// Tournament is owned by the tournament service; the room subsystem only
// reads the fields it needs and releases room credentials on its behalf.
type Tournament struct {
	ID                  int              `json:"id" db:"id"`
	Name                string           `json:"name" db:"name"`
	Mode                TournamentMode   `json:"mode" db:"mode"`
	Status              TournamentStatus `json:"status" db:"status"`
	StartDate           time.Time        `json:"start_date" db:"start_date"`
	MaxParticipants     int              `json:"max_participants" db:"max_participants"`
	RoomID              *string          `json:"-" db:"room_id"`
	RoomPassword        *string          `json:"-" db:"room_password"`
	CredentialsReleased bool             `json:"credentials_released" db:"credentials_released"`
	CreatedAt           time.Time        `json:"created_at" db:"created_at"`
}

// RoomCredentials is the in-game room id/password pair shown to participants
// once an admin releases it.
type RoomCredentials struct {
	RoomID   string `json:"room_id"`
	Password string `json:"password"`
}

// Credentials returns the released credentials, or nil while they are held
// back.
func (t *Tournament) Credentials() *RoomCredentials {
	if !t.CredentialsReleased || t.RoomID == nil || t.RoomPassword == nil {
		return nil
	}
	return &RoomCredentials{RoomID: *t.RoomID, Password: *t.RoomPassword}
}
