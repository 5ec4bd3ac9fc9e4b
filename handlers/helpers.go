package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gameon-esports/gameon-rooms/middleware"
	"github.com/gameon-esports/gameon-rooms/services"
	"github.com/go-chi/chi/v5"
)

type jsonResponse map[string]interface{}

// errorBody is the structured failure envelope: a machine-readable kind for
// the admin UI plus a human-readable message for participants.
type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, kind, message string) {
	env := jsonResponse{"error": errorBody{Kind: kind, Message: message}}
	if err := writeJSON(w, status, env, nil); err != nil {
		slog.Error("failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
	errorResponse(w, r, http.StatusInternalServerError, "internal",
		"the server encountered a problem and could not process your request")
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, "validation_error", err.Error())
}

// mapServiceErrorToHTTP translates the service error taxonomy into HTTP
// responses. Every recoverable kind keeps its identity in the envelope so
// clients can render an actionable message.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrTournamentNotFound),
		errors.Is(err, services.ErrRoomNotFound):
		errorResponse(w, r, http.StatusNotFound, "not_found", err.Error())

	case errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrSlotNotFound):
		errorResponse(w, r, http.StatusUnprocessableEntity, "validation_error", err.Error())

	case errors.Is(err, services.ErrForbiddenOperation),
		errors.Is(err, services.ErrNotParticipant):
		errorResponse(w, r, http.StatusForbidden, "forbidden", err.Error())

	case errors.Is(err, services.ErrRoomLocked):
		errorResponse(w, r, http.StatusConflict, "room_locked", "the room is locked, slot changes are no longer possible")
	case errors.Is(err, services.ErrSlotLocked):
		errorResponse(w, r, http.StatusConflict, "slot_locked", "that slot has been locked by an organizer")
	case errors.Is(err, services.ErrSlotOccupied):
		errorResponse(w, r, http.StatusConflict, "slot_occupied", "that spot was just taken, pick another")
	case errors.Is(err, services.ErrRoomFull):
		errorResponse(w, r, http.StatusConflict, "room_full", "all slots in this room are taken")

	case errors.Is(err, services.ErrSlotChangeNotAllowed):
		errorResponse(w, r, http.StatusForbidden, "change_not_allowed", "slot changes are disabled for this room")
	case errors.Is(err, services.ErrTeamSwitchNotAllowed):
		errorResponse(w, r, http.StatusForbidden, "team_switch_not_allowed", "switching teams is disabled for this room")

	case errors.Is(err, services.ErrPlayerNotSeated):
		errorResponse(w, r, http.StatusConflict, "not_seated", err.Error())
	case errors.Is(err, services.ErrRoomNotJoinable),
		errors.Is(err, services.ErrRoomArchived):
		errorResponse(w, r, http.StatusConflict, "room_closed", err.Error())

	case errors.Is(err, services.ErrValidationFailed):
		errorResponse(w, r, http.StatusUnprocessableEntity, "validation_error", err.Error())

	default:
		serverErrorResponse(w, r, err)
	}
}

func actorFromRequest(r *http.Request) (services.Actor, error) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		return services.Actor{}, err
	}
	role, err := middleware.GetUserRoleFromContext(r.Context())
	if err != nil {
		return services.Actor{}, err
	}
	return services.Actor{UserID: userID, Role: role}, nil
}

func tournamentIDParam(r *http.Request) (int, error) {
	idStr := chi.URLParam(r, "tournamentID")
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid tournament id %q", idStr)
	}
	return id, nil
}
