package models

import "time"

// Slot is one seat within a team. At most one slot in the whole room may
// reference a given player id.
type Slot struct {
	SlotNumber int  `json:"slot_number" db:"slot_number"`
	PlayerID   *int `json:"player_id,omitempty" db:"player_id"`
	IsLocked   bool `json:"is_locked" db:"is_locked"`
}

func (s *Slot) Occupied() bool {
	return s.PlayerID != nil
}

func (s *Slot) OccupiedBy(playerID int) bool {
	return s.PlayerID != nil && *s.PlayerID == playerID
}

// Team groups MaxPlayersPerTeam slots. CaptainID and IsComplete are derived
// from slot occupancy and recomputed by the room mutators, never set from
// client input.
type Team struct {
	TeamNumber int    `json:"team_number" db:"team_number"`
	CaptainID  *int   `json:"captain_id,omitempty" db:"captain_id"`
	Slots      []Slot `json:"slots"`
	IsComplete bool   `json:"is_complete" db:"-"`
}

// Slot returns the slot with the given number, or nil if out of range.
func (t *Team) Slot(slotNumber int) *Slot {
	if slotNumber < 1 || slotNumber > len(t.Slots) {
		return nil
	}
	return &t.Slots[slotNumber-1]
}

func (t *Team) occupiedCount() int {
	n := 0
	for i := range t.Slots {
		if t.Slots[i].Occupied() {
			n++
		}
	}
	return n
}

// RoomSettings gate participant self-service mutations. Zero value is the
// most restrictive configuration; new rooms are created with
// DefaultRoomSettings.
type RoomSettings struct {
	AllowSlotChange    bool       `json:"allow_slot_change" db:"allow_slot_change"`
	AllowTeamSwitch    bool       `json:"allow_team_switch" db:"allow_team_switch"`
	AutoAssignTeams    bool       `json:"auto_assign_teams" db:"auto_assign_teams"`
	SlotChangeDeadline *time.Time `json:"slot_change_deadline,omitempty" db:"slot_change_deadline"`
}

func DefaultRoomSettings() RoomSettings {
	return RoomSettings{
		AllowSlotChange: true,
		AllowTeamSwitch: true,
		AutoAssignTeams: false,
	}
}

// SlotRef addresses one slot in a room.
type SlotRef struct {
	TeamNumber int `json:"team_number"`
	SlotNumber int `json:"slot_number"`
}

// Room is the authoritative slot layout for one tournament. TotalPlayers,
// team completeness and captaincy are derived; every mutator recomputes them.
type Room struct {
	TournamentID      int          `json:"tournament_id" db:"tournament_id"`
	MaxTeams          int          `json:"max_teams" db:"max_teams"`
	MaxPlayersPerTeam int          `json:"max_players_per_team" db:"max_players_per_team"`
	IsLocked          bool         `json:"is_locked" db:"is_locked"`
	// LockOverride records a post-deadline administrator unlock; the
	// scheduler leaves such rooms open until an admin locks them again.
	LockOverride      bool         `json:"lock_override" db:"lock_override"`
	Settings          RoomSettings `json:"settings"`
	Teams             []Team       `json:"teams"`
	TotalPlayers      int          `json:"total_players" db:"-"`
	CreatedAt         time.Time    `json:"created_at" db:"created_at"`
	ArchivedAt        *time.Time   `json:"archived_at,omitempty" db:"archived_at"`
}

// NewRoom builds an empty room with maxTeams * playersPerTeam open slots.
func NewRoom(tournamentID, maxTeams, playersPerTeam int) *Room {
	teams := make([]Team, maxTeams)
	for i := range teams {
		slots := make([]Slot, playersPerTeam)
		for j := range slots {
			slots[j] = Slot{SlotNumber: j + 1}
		}
		teams[i] = Team{TeamNumber: i + 1, Slots: slots}
	}
	return &Room{
		TournamentID:      tournamentID,
		MaxTeams:          maxTeams,
		MaxPlayersPerTeam: playersPerTeam,
		Settings:          DefaultRoomSettings(),
		Teams:             teams,
	}
}

// Team returns the team with the given number, or nil if out of range.
func (r *Room) Team(teamNumber int) *Team {
	if teamNumber < 1 || teamNumber > len(r.Teams) {
		return nil
	}
	return &r.Teams[teamNumber-1]
}

// Slot returns the slot at ref, or nil if either coordinate is out of range.
func (r *Room) Slot(ref SlotRef) *Slot {
	team := r.Team(ref.TeamNumber)
	if team == nil {
		return nil
	}
	return team.Slot(ref.SlotNumber)
}

// FindSlotForPlayer locates the slot currently held by playerID.
func (r *Room) FindSlotForPlayer(playerID int) (SlotRef, bool) {
	for ti := range r.Teams {
		for si := range r.Teams[ti].Slots {
			if r.Teams[ti].Slots[si].OccupiedBy(playerID) {
				return SlotRef{TeamNumber: ti + 1, SlotNumber: si + 1}, true
			}
		}
	}
	return SlotRef{}, false
}

// FirstFreeSlot returns the lowest (team, slot) with no occupant.
func (r *Room) FirstFreeSlot() (SlotRef, bool) {
	for ti := range r.Teams {
		for si := range r.Teams[ti].Slots {
			if !r.Teams[ti].Slots[si].Occupied() {
				return SlotRef{TeamNumber: ti + 1, SlotNumber: si + 1}, true
			}
		}
	}
	return SlotRef{}, false
}

// PlacePlayer writes playerID into the slot at ref and recomputes the
// derived fields. The caller is responsible for occupancy and lock checks;
// placing into an occupied slot overwrites it.
func (r *Room) PlacePlayer(ref SlotRef, playerID int) {
	slot := r.Slot(ref)
	if slot == nil {
		return
	}
	id := playerID
	slot.PlayerID = &id
	r.Recompute()
}

// ClearSlot vacates the slot at ref and recomputes the derived fields.
func (r *Room) ClearSlot(ref SlotRef) {
	slot := r.Slot(ref)
	if slot == nil {
		return
	}
	slot.PlayerID = nil
	r.Recompute()
}

// Recompute rebuilds every derived field from slot occupancy: TotalPlayers,
// per-team completeness, and captaincy. A team's captain is its occupant in
// the lowest-numbered slot that was already captain, or the lowest-numbered
// occupant when the previous captain left.
func (r *Room) Recompute() {
	total := 0
	for ti := range r.Teams {
		team := &r.Teams[ti]
		occupied := team.occupiedCount()
		total += occupied
		team.IsComplete = occupied == len(team.Slots)

		if team.CaptainID != nil {
			if _, stillHere := teamHolds(team, *team.CaptainID); !stillHere {
				team.CaptainID = nil
			}
		}
		if team.CaptainID == nil {
			for si := range team.Slots {
				if team.Slots[si].Occupied() {
					id := *team.Slots[si].PlayerID
					team.CaptainID = &id
					break
				}
			}
		}
	}
	r.TotalPlayers = total
}

func teamHolds(t *Team, playerID int) (int, bool) {
	for si := range t.Slots {
		if t.Slots[si].OccupiedBy(playerID) {
			return si + 1, true
		}
	}
	return 0, false
}

// Capacity is the maximum number of distinct players the room can hold.
func (r *Room) Capacity() int {
	return r.MaxTeams * r.MaxPlayersPerTeam
}
