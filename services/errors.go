package services

import "errors"

// Sentinel errors shared across the room services and the HTTP mapping.
var (
	// Not found
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrRoomNotFound       = errors.New("room not found")
	ErrTeamNotFound       = errors.New("team number out of range")
	ErrSlotNotFound       = errors.New("slot number out of range")
	ErrPlayerNotSeated    = errors.New("player does not occupy a slot in this room")

	// Authorization
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")
	ErrNotParticipant     = errors.New("user is not a participant of this tournament")

	// Lock state
	ErrRoomLocked = errors.New("room is locked")
	ErrSlotLocked = errors.New("slot is locked")

	// Occupancy and capacity
	ErrSlotOccupied = errors.New("slot is already occupied by another player")
	ErrRoomFull     = errors.New("no free slot available in this room")

	// Settings-level restrictions
	ErrSlotChangeNotAllowed = errors.New("slot changes are disabled for this room")
	ErrTeamSwitchNotAllowed = errors.New("team switching is disabled for this room")

	// Validation / lifecycle
	ErrValidationFailed = errors.New("validation failed")
	ErrRoomNotJoinable  = errors.New("tournament is no longer accepting room changes")
	ErrRoomArchived     = errors.New("room has been archived")
)
