package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gameon-esports/gameon-rooms/models"
	"github.com/gameon-esports/gameon-rooms/services"
)

// AdminRoomHandler is the back-office view of the room: every slot is a
// potential source and destination, slots and the whole room can be locked
// or unlocked, and settings are editable. Every mutation carries the acting
// administrator's identity.
type AdminRoomHandler struct {
	rooms *services.RoomService
}

func NewAdminRoomHandler(rooms *services.RoomService) *AdminRoomHandler {
	return &AdminRoomHandler{rooms: rooms}
}

func parseLockAction(action string) (bool, error) {
	switch action {
	case "lock":
		return true, nil
	case "unlock":
		return false, nil
	default:
		return false, fmt.Errorf("action must be %q or %q, got %q", "lock", "unlock", action)
	}
}

func (h *AdminRoomHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
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

	response := jsonResponse{
		"room":       snap.Room,
		"tournament": snap.Tournament,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type adminMoveInput struct {
	PlayerID int `json:"player_id"`
	ToTeam   int `json:"to_team"`
	ToSlot   int `json:"to_slot"`
}

// MovePlayer relocates any player, bypassing lock state and settings but not
// occupancy: an occupied destination still fails, use swap instead.
func (h *AdminRoomHandler) MovePlayer(w http.ResponseWriter, r *http.Request) {
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

	var input adminMoveInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.PlayerID <= 0 || input.ToTeam <= 0 || input.ToSlot <= 0 {
		badRequestResponse(w, r, errors.New("player_id, to_team and to_slot must be positive"))
		return
	}

	to := models.SlotRef{TeamNumber: input.ToTeam, SlotNumber: input.ToSlot}
	room, err := h.rooms.RequestMove(r.Context(), actor, tournamentID, input.PlayerID, to)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"room": room}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type swapInput struct {
	PlayerA int `json:"player_a"`
	PlayerB int `json:"player_b"`
}

func (h *AdminRoomHandler) SwapPlayers(w http.ResponseWriter, r *http.Request) {
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

	var input swapInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.PlayerA <= 0 || input.PlayerB <= 0 {
		badRequestResponse(w, r, errors.New("player_a and player_b must be positive"))
		return
	}

	room, err := h.rooms.SwapPlayers(r.Context(), actor, tournamentID, input.PlayerA, input.PlayerB)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"room": room}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type slotLockInput struct {
	TeamNumber int    `json:"team_number"`
	SlotNumber int    `json:"slot_number"`
	Action     string `json:"action"`
}

func (h *AdminRoomHandler) ToggleSlotLock(w http.ResponseWriter, r *http.Request) {
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

	var input slotLockInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	locked, err := parseLockAction(input.Action)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.TeamNumber <= 0 || input.SlotNumber <= 0 {
		badRequestResponse(w, r, errors.New("team_number and slot_number must be positive"))
		return
	}

	ref := models.SlotRef{TeamNumber: input.TeamNumber, SlotNumber: input.SlotNumber}
	room, err := h.rooms.SetSlotLock(r.Context(), actor, tournamentID, ref, locked)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"room": room}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type roomLockInput struct {
	Action string `json:"action"`
}

func (h *AdminRoomHandler) ToggleRoomLock(w http.ResponseWriter, r *http.Request) {
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

	var input roomLockInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	locked, err := parseLockAction(input.Action)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	room, err := h.rooms.SetRoomLock(r.Context(), actor, tournamentID, locked)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"room": room}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminRoomHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
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

	var input services.UpdateSettingsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	room, err := h.rooms.UpdateSettings(r.Context(), actor, tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"room": room}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type credentialsInput struct {
	RoomID   string `json:"room_id"`
	Password string `json:"password"`
}

// ReleaseCredentials publishes the in-game room id/password to participants.
func (h *AdminRoomHandler) ReleaseCredentials(w http.ResponseWriter, r *http.Request) {
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

	var input credentialsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	room, err := h.rooms.ReleaseCredentials(r.Context(), actor, tournamentID, input.RoomID, input.Password)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"room": room}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type removePlayerInput struct {
	PlayerID int `json:"player_id"`
}

func (h *AdminRoomHandler) RemovePlayer(w http.ResponseWriter, r *http.Request) {
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

	var input removePlayerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.PlayerID <= 0 {
		badRequestResponse(w, r, errors.New("player_id must be positive"))
		return
	}

	room, err := h.rooms.RemovePlayer(r.Context(), actor, tournamentID, input.PlayerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"room": room}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminRoomHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
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

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			badRequestResponse(w, r, errors.New("limit must be a non-negative integer"))
			return
		}
	}

	entries, err := h.rooms.AuditTrail(r.Context(), actor, tournamentID, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"audit": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
