package handlers

import (
	"errors"
	"net/http"

	"github.com/gameon-esports/gameon-rooms/models"
	"github.com/gameon-esports/gameon-rooms/services"
)

// RoomHandler is the participant-facing view of the room: it renders the
// team/slot grid with per-slot affordances for the calling player and
// translates their tap/drag gestures into move requests.
type RoomHandler struct {
	rooms *services.RoomService
}

func NewRoomHandler(rooms *services.RoomService) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

type participantSlotView struct {
	SlotNumber int  `json:"slot_number"`
	PlayerID   *int `json:"player_id,omitempty"`
	IsLocked   bool `json:"is_locked"`
	IsSelf     bool `json:"is_self"`
	// CanSelect marks a valid drop/tap target for the caller.
	CanSelect bool `json:"can_select"`
}

type participantTeamView struct {
	TeamNumber int                   `json:"team_number"`
	CaptainID  *int                  `json:"captain_id,omitempty"`
	IsComplete bool                  `json:"is_complete"`
	Slots      []participantSlotView `json:"slots"`
}

type participantRoomView struct {
	TournamentID int                     `json:"tournament_id"`
	MaxTeams     int                     `json:"max_teams"`
	PlayersPer   int                     `json:"max_players_per_team"`
	IsLocked     bool                    `json:"is_locked"`
	TotalPlayers int                     `json:"total_players"`
	Settings     models.RoomSettings     `json:"settings"`
	Teams        []participantTeamView   `json:"teams"`
	YourSlot     *models.SlotRef         `json:"your_slot,omitempty"`
	CanEdit      bool                    `json:"can_edit"`
	Credentials  *models.RoomCredentials `json:"credentials,omitempty"`
}

// buildParticipantView computes the caller-specific affordances: which slot
// is theirs (draggable), which slots they could move to, and whether the
// room accepts their changes at all. Released credentials are shown
// regardless of lock state.
func buildParticipantView(snap *services.RoomSnapshot, userID int) participantRoomView {
	room := snap.Room
	canEdit := !room.IsLocked &&
		room.Settings.AllowSlotChange &&
		!snap.Tournament.Status.Finished() &&
		room.ArchivedAt == nil

	view := participantRoomView{
		TournamentID: room.TournamentID,
		MaxTeams:     room.MaxTeams,
		PlayersPer:   room.MaxPlayersPerTeam,
		IsLocked:     room.IsLocked,
		TotalPlayers: room.TotalPlayers,
		Settings:     room.Settings,
		Teams:        make([]participantTeamView, 0, len(room.Teams)),
		CanEdit:      canEdit,
		Credentials:  snap.Tournament.Credentials(),
	}

	yourSlot, seated := room.FindSlotForPlayer(userID)
	if seated {
		ref := yourSlot
		view.YourSlot = &ref
	}

	for ti := range room.Teams {
		team := &room.Teams[ti]
		teamView := participantTeamView{
			TeamNumber: team.TeamNumber,
			CaptainID:  team.CaptainID,
			IsComplete: team.IsComplete,
			Slots:      make([]participantSlotView, 0, len(team.Slots)),
		}
		sameTeam := seated && yourSlot.TeamNumber == team.TeamNumber
		for si := range team.Slots {
			slot := &team.Slots[si]
			canSelect := canEdit && !slot.Occupied() && !slot.IsLocked
			if canSelect && seated && !sameTeam && !room.Settings.AllowTeamSwitch {
				canSelect = false
			}
			teamView.Slots = append(teamView.Slots, participantSlotView{
				SlotNumber: slot.SlotNumber,
				PlayerID:   slot.PlayerID,
				IsLocked:   slot.IsLocked,
				IsSelf:     slot.OccupiedBy(userID),
				CanSelect:  canSelect,
			})
		}
		view.Teams = append(view.Teams, teamView)
	}
	return view
}

// GetRoom returns the caller's view of the room grid.
func (h *RoomHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := tournamentIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actor, err := actorFromRequest(r)
	if err != nil {
		errorResponse(w, r, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	}

	snap, err := h.rooms.Snapshot(r.Context(), actor, tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	view := buildParticipantView(snap, actor.UserID)
	if err := writeJSON(w, http.StatusOK, jsonResponse{"room": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type moveSelfInput struct {
	ToTeam int `json:"to_team"`
	ToSlot int `json:"to_slot"`
}

// MoveSelf seats the calling player in the requested slot.
func (h *RoomHandler) MoveSelf(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := tournamentIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actor, err := actorFromRequest(r)
	if err != nil {
		errorResponse(w, r, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	}

	var input moveSelfInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.ToTeam <= 0 || input.ToSlot <= 0 {
		badRequestResponse(w, r, errors.New("to_team and to_slot must be positive"))
		return
	}

	to := models.SlotRef{TeamNumber: input.ToTeam, SlotNumber: input.ToSlot}
	room, err := h.rooms.RequestMove(r.Context(), actor, tournamentID, actor.UserID, to)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"room": room}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// LeaveRoom vacates the calling player's slot.
func (h *RoomHandler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := tournamentIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actor, err := actorFromRequest(r)
	if err != nil {
		errorResponse(w, r, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	}

	room, err := h.rooms.RemovePlayer(r.Context(), actor, tournamentID, actor.UserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"room": room}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
