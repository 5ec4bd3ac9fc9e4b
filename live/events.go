package live

import (
	"time"

	"github.com/gameon-esports/gameon-rooms/models"
)

// EventType discriminates room broadcast messages.
type EventType string

const (
	EventPlayerMoved         EventType = "playerMoved"
	EventPlayerRemoved       EventType = "playerRemoved"
	EventSlotLocked          EventType = "slotLocked"
	EventSlotUnlocked        EventType = "slotUnlocked"
	EventSlotsLocked         EventType = "slotsLocked"
	EventSlotsUnlocked       EventType = "slotsUnlocked"
	EventSettingsUpdated     EventType = "settingsUpdated"
	EventCredentialsReleased EventType = "roomCredentialsReleased"
)

// RoomEvent carries the full updated room snapshot so clients always
// re-render from authoritative state instead of applying deltas. AdminID is
// set when the change was an administrator override.
type RoomEvent struct {
	Type         EventType    `json:"type"`
	TournamentID int          `json:"tournament_id"`
	Room         *models.Room `json:"room"`
	AdminID      *int         `json:"admin_id,omitempty"`
	At           time.Time    `json:"at"`
}

// Broadcaster fans a room event out to every client subscribed to the
// tournament's channel. Implementations must not block the caller; delivery
// is best effort and clients refetch the snapshot on reconnect.
type Broadcaster interface {
	BroadcastRoomEvent(event RoomEvent)
}
