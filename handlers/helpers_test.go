package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gameon-esports/gameon-rooms/services"
	"github.com/stretchr/testify/require"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantKind   string
	}{
		{services.ErrTournamentNotFound, http.StatusNotFound, "not_found"},
		{services.ErrRoomNotFound, http.StatusNotFound, "not_found"},
		{services.ErrTeamNotFound, http.StatusUnprocessableEntity, "validation_error"},
		{services.ErrSlotNotFound, http.StatusUnprocessableEntity, "validation_error"},
		{services.ErrForbiddenOperation, http.StatusForbidden, "forbidden"},
		{services.ErrNotParticipant, http.StatusForbidden, "forbidden"},
		{services.ErrRoomLocked, http.StatusConflict, "room_locked"},
		{services.ErrSlotLocked, http.StatusConflict, "slot_locked"},
		{services.ErrSlotOccupied, http.StatusConflict, "slot_occupied"},
		{services.ErrRoomFull, http.StatusConflict, "room_full"},
		{services.ErrSlotChangeNotAllowed, http.StatusForbidden, "change_not_allowed"},
		{services.ErrTeamSwitchNotAllowed, http.StatusForbidden, "team_switch_not_allowed"},
		{services.ErrPlayerNotSeated, http.StatusConflict, "not_seated"},
		{services.ErrRoomNotJoinable, http.StatusConflict, "room_closed"},
		{services.ErrRoomArchived, http.StatusConflict, "room_closed"},
		{services.ErrValidationFailed, http.StatusUnprocessableEntity, "validation_error"},
		{fmt.Errorf("pq: connection reset"), http.StatusInternalServerError, "internal"},
	}

	for _, tc := range tests {
		t.Run(tc.wantKind+"/"+tc.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/tournaments/1/room/move", nil)

			mapServiceErrorToHTTP(rec, req, tc.err)

			require.Equal(t, tc.wantStatus, rec.Code)
			require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body struct {
				Error errorBody `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tc.wantKind, body.Error.Kind)
			require.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestMapServiceErrorPreservesWrappedSentinel(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tournaments/1/room/move", nil)

	wrapped := fmt.Errorf("%w: cannot swap a player with themselves", services.ErrValidationFailed)
	mapServiceErrorToHTTP(rec, req, wrapped)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Error errorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "validation_error", body.Error.Kind)
	require.Contains(t, body.Error.Message, "swap")
}

func TestReadJSONRejectsMalformedBodies(t *testing.T) {
	type moveInput struct {
		ToTeam int `json:"to_team"`
		ToSlot int `json:"to_slot"`
	}

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"bad syntax", `{"to_team": 1,`},
		{"wrong type", `{"to_team": "one"}`},
		{"unknown field", `{"to_team": 1, "team_name": "x"}`},
		{"trailing value", `{"to_team": 1}{"to_team": 2}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))

			var dst moveInput
			require.Error(t, readJSON(rec, req, &dst))
		})
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"to_team": 2, "to_slot": 3}`))
	var dst moveInput
	require.NoError(t, readJSON(rec, req, &dst))
	require.Equal(t, 2, dst.ToTeam)
	require.Equal(t, 3, dst.ToSlot)
}
