package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gameon-esports/gameon-rooms/live"
	"github.com/gameon-esports/gameon-rooms/models"
	"github.com/gameon-esports/gameon-rooms/repositories"
	"github.com/google/uuid"
)

// Rescheduler is the slice of the lock scheduler the room service needs:
// re-derive a room's lock timer after a settings change, or drop it once the
// room is locked.
type Rescheduler interface {
	Schedule(tournamentID int, startDate time.Time, slotChangeDeadline *time.Time)
	Cancel(tournamentID int)
	DeadlinePassed(startDate time.Time, slotChangeDeadline *time.Time) bool
}

// RoomSnapshot pairs the room state with the tournament fields the views
// need (credentials, start date, status).
type RoomSnapshot struct {
	Room       *models.Room       `json:"room"`
	Tournament *models.Tournament `json:"tournament"`
}

// UpdateSettingsInput is a partial settings merge: nil fields are left
// unchanged. ClearSlotChangeDeadline removes the deadline entirely.
type UpdateSettingsInput struct {
	AllowSlotChange         *bool      `json:"allow_slot_change,omitempty"`
	AllowTeamSwitch         *bool      `json:"allow_team_switch,omitempty"`
	AutoAssignTeams         *bool      `json:"auto_assign_teams,omitempty"`
	SlotChangeDeadline      *time.Time `json:"slot_change_deadline,omitempty"`
	ClearSlotChangeDeadline bool       `json:"clear_slot_change_deadline,omitempty"`
}

// RoomService is the slot assignment engine and access gateway in one place:
// it validates every mutation against lock state, settings, occupancy and
// actor permissions, applies it atomically, and broadcasts the resulting
// snapshot.
//
// All mutations for one tournament are serialized behind a per-tournament
// mutex held from validation through commit, so no check-then-act window
// exists between concurrent requests.
type RoomService struct {
	db           *sql.DB
	rooms        repositories.RoomRepository
	tournaments  repositories.TournamentRepository
	participants repositories.ParticipantRepository
	audit        repositories.AuditRepository
	broadcaster  live.Broadcaster
	logger       *slog.Logger
	scheduler    Rescheduler

	mu        sync.Mutex
	roomLocks map[int]*sync.Mutex
}

func NewRoomService(
	db *sql.DB,
	rooms repositories.RoomRepository,
	tournaments repositories.TournamentRepository,
	participants repositories.ParticipantRepository,
	audit repositories.AuditRepository,
	broadcaster live.Broadcaster,
	logger *slog.Logger,
) *RoomService {
	return &RoomService{
		db:           db,
		rooms:        rooms,
		tournaments:  tournaments,
		participants: participants,
		audit:        audit,
		broadcaster:  broadcaster,
		logger:       logger,
		roomLocks:    make(map[int]*sync.Mutex),
	}
}

// SetLockScheduler wires the scheduler after construction; the scheduler
// itself depends on this service to perform the lock transition.
func (s *RoomService) SetLockScheduler(scheduler Rescheduler) {
	s.scheduler = scheduler
}

// lockRoom acquires the single-writer mutex for a tournament's room and
// returns the release func.
func (s *RoomService) lockRoom(tournamentID int) func() {
	s.mu.Lock()
	mu, ok := s.roomLocks[tournamentID]
	if !ok {
		mu = &sync.Mutex{}
		s.roomLocks[tournamentID] = mu
	}
	s.mu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// withTx runs fn inside a transaction when a database handle is present.
// Tests wire the service with a nil handle and in-memory repositories.
func (s *RoomService) withTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	if s.db == nil {
		return fn(nil)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *RoomService) getTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (*models.Tournament, error) {
	t, err := s.tournaments.GetByID(ctx, exec, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

// getOrCreateRoom lazily provisions the room on first access for a
// tournament that is still running, sized from the tournament mode.
func (s *RoomService) getOrCreateRoom(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) (*models.Room, error) {
	room, err := s.rooms.GetByTournament(ctx, exec, t.ID)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, repositories.ErrRoomNotFound) {
		return nil, err
	}
	if t.Status.Finished() {
		return nil, ErrRoomNotFound
	}

	playersPerTeam := t.Mode.PlayersPerTeam()
	maxTeams := t.MaxParticipants / playersPerTeam
	if maxTeams < 1 {
		maxTeams = 1
	}
	room = models.NewRoom(t.ID, maxTeams, playersPerTeam)
	if err := s.rooms.Create(ctx, exec, room); err != nil {
		// Lost a creation race with another instance; reload.
		if errors.Is(err, repositories.ErrRoomAlreadyExists) {
			return s.rooms.GetByTournament(ctx, exec, t.ID)
		}
		return nil, err
	}
	if s.scheduler != nil {
		s.scheduler.Schedule(t.ID, t.StartDate, room.Settings.SlotChangeDeadline)
	}
	return room, nil
}

// requireParticipant enforces the participant-membership half of the access
// gateway. Administrators pass unconditionally.
func (s *RoomService) requireParticipant(ctx context.Context, exec repositories.SQLExecutor, actor Actor, tournamentID int) error {
	if actor.IsAdmin() {
		return nil
	}
	ok, err := s.participants.IsParticipant(ctx, exec, tournamentID, actor.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotParticipant
	}
	return nil
}

// Snapshot returns the authoritative room state for a tournament. For
// participants the caller must be registered in the tournament.
func (s *RoomService) Snapshot(ctx context.Context, actor Actor, tournamentID int) (*RoomSnapshot, error) {
	unlock := s.lockRoom(tournamentID)
	defer unlock()

	var snap *RoomSnapshot
	err := s.withTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.getTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if err := s.requireParticipant(ctx, exec, actor, tournamentID); err != nil {
			return err
		}
		room, err := s.getOrCreateRoom(ctx, exec, t)
		if err != nil {
			return err
		}
		snap = &RoomSnapshot{Room: room, Tournament: t}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// RequestMove places or relocates playerID into the destination slot.
// Participants may only move themselves and are subject to lock state and
// room settings; administrators bypass locks and settings but can never
// silently displace another player.
func (s *RoomService) RequestMove(ctx context.Context, actor Actor, tournamentID, playerID int, to models.SlotRef) (*models.Room, error) {
	if !actor.IsAdmin() && actor.UserID != playerID {
		return nil, ErrForbiddenOperation
	}

	unlock := s.lockRoom(tournamentID)
	defer unlock()

	var (
		room  *models.Room
		moved bool
	)
	err := s.withTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.getTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if t.Status.Finished() {
			return ErrRoomNotJoinable
		}
		if err := s.requireParticipant(ctx, exec, actor, tournamentID); err != nil {
			return err
		}
		// The moved player must be registered regardless of who asks.
		if seated, err := s.participants.IsParticipant(ctx, exec, tournamentID, playerID); err != nil {
			return err
		} else if !seated {
			return ErrNotParticipant
		}

		room, err = s.getOrCreateRoom(ctx, exec, t)
		if err != nil {
			return err
		}
		if room.ArchivedAt != nil {
			return ErrRoomArchived
		}

		if room.Team(to.TeamNumber) == nil {
			return ErrTeamNotFound
		}
		dest := room.Slot(to)
		if dest == nil {
			return ErrSlotNotFound
		}

		from, seated := room.FindSlotForPlayer(playerID)

		if dest.OccupiedBy(playerID) {
			// Already there; nothing to do.
			moved = false
			return nil
		}

		if !actor.IsAdmin() {
			if room.IsLocked {
				return ErrRoomLocked
			}
			if dest.IsLocked {
				return ErrSlotLocked
			}
			if seated && room.Slot(from).IsLocked {
				return ErrSlotLocked
			}
		}

		if dest.Occupied() {
			return ErrSlotOccupied
		}

		if !actor.IsAdmin() {
			if !room.Settings.AllowSlotChange {
				return ErrSlotChangeNotAllowed
			}
			if seated && from.TeamNumber != to.TeamNumber && !room.Settings.AllowTeamSwitch {
				return ErrTeamSwitchNotAllowed
			}
		}

		if seated {
			if err := s.rooms.UpdateSlotPlayer(ctx, exec, tournamentID, from, nil); err != nil {
				return err
			}
			room.ClearSlot(from)
		}
		if err := s.rooms.UpdateSlotPlayer(ctx, exec, tournamentID, to, &playerID); err != nil {
			if errors.Is(err, repositories.ErrRoomPlayerConflict) {
				return ErrSlotOccupied
			}
			return err
		}
		room.PlacePlayer(to, playerID)

		teams := []int{to.TeamNumber}
		if seated && from.TeamNumber != to.TeamNumber {
			teams = append(teams, from.TeamNumber)
		}
		if err := s.syncCaptains(ctx, exec, room, teams...); err != nil {
			return err
		}

		if err := s.recordAudit(ctx, exec, actor, tournamentID, "move_player",
			fmt.Sprintf("player %d to team %d slot %d", playerID, to.TeamNumber, to.SlotNumber)); err != nil {
			return err
		}
		moved = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if moved {
		s.broadcast(live.EventPlayerMoved, room, actor)
	}
	return room, nil
}

// AutoAssign seats a newly joined participant into the first team with a
// free, unlocked slot (lowest team number, then lowest slot number). Called
// from the join flow when settings.auto_assign_teams is enabled. Idempotent
// for an already-seated player.
func (s *RoomService) AutoAssign(ctx context.Context, tournamentID, playerID int) (models.SlotRef, error) {
	unlock := s.lockRoom(tournamentID)
	defer unlock()

	var (
		assigned models.SlotRef
		room     *models.Room
		placed   bool
	)
	err := s.withTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.getTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if t.Status.Finished() {
			return ErrRoomNotJoinable
		}
		room, err = s.getOrCreateRoom(ctx, exec, t)
		if err != nil {
			return err
		}

		if ref, seated := room.FindSlotForPlayer(playerID); seated {
			assigned = ref
			return nil
		}

		ref, found := firstFreeUnlocked(room)
		if !found {
			return ErrRoomFull
		}
		if err := s.rooms.UpdateSlotPlayer(ctx, exec, tournamentID, ref, &playerID); err != nil {
			if errors.Is(err, repositories.ErrRoomPlayerConflict) {
				return ErrSlotOccupied
			}
			return err
		}
		room.PlacePlayer(ref, playerID)
		if err := s.syncCaptains(ctx, exec, room, ref.TeamNumber); err != nil {
			return err
		}
		assigned = ref
		placed = true
		return nil
	})
	if err != nil {
		return models.SlotRef{}, err
	}

	if placed {
		s.broadcast(live.EventPlayerMoved, room, SystemActor)
	}
	return assigned, nil
}

func firstFreeUnlocked(room *models.Room) (models.SlotRef, bool) {
	for ti := range room.Teams {
		for si := range room.Teams[ti].Slots {
			slot := &room.Teams[ti].Slots[si]
			if !slot.Occupied() && !slot.IsLocked {
				return models.SlotRef{TeamNumber: ti + 1, SlotNumber: si + 1}, true
			}
		}
	}
	return models.SlotRef{}, false
}

// RemovePlayer vacates a player's slot. Participants may only vacate their
// own slot; administrators may remove anyone.
func (s *RoomService) RemovePlayer(ctx context.Context, actor Actor, tournamentID, playerID int) (*models.Room, error) {
	if !actor.IsAdmin() && actor.UserID != playerID {
		return nil, ErrForbiddenOperation
	}

	unlock := s.lockRoom(tournamentID)
	defer unlock()

	var room *models.Room
	err := s.withTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.getTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if err := s.requireParticipant(ctx, exec, actor, tournamentID); err != nil {
			return err
		}
		room, err = s.getOrCreateRoom(ctx, exec, t)
		if err != nil {
			return err
		}

		ref, seated := room.FindSlotForPlayer(playerID)
		if !seated {
			return ErrPlayerNotSeated
		}
		if !actor.IsAdmin() {
			if room.IsLocked {
				return ErrRoomLocked
			}
			if room.Slot(ref).IsLocked {
				return ErrSlotLocked
			}
		}

		if err := s.rooms.UpdateSlotPlayer(ctx, exec, tournamentID, ref, nil); err != nil {
			return err
		}
		room.ClearSlot(ref)
		if err := s.syncCaptains(ctx, exec, room, ref.TeamNumber); err != nil {
			return err
		}
		return s.recordAudit(ctx, exec, actor, tournamentID, "remove_player",
			fmt.Sprintf("player %d from team %d slot %d", playerID, ref.TeamNumber, ref.SlotNumber))
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(live.EventPlayerRemoved, room, actor)
	return room, nil
}

// SwapPlayers atomically exchanges the slots of two seated players. Admin
// only; this is the sanctioned alternative to overwriting an occupied slot.
func (s *RoomService) SwapPlayers(ctx context.Context, actor Actor, tournamentID, playerA, playerB int) (*models.Room, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbiddenOperation
	}
	if playerA == playerB {
		return nil, fmt.Errorf("%w: cannot swap a player with themselves", ErrValidationFailed)
	}

	unlock := s.lockRoom(tournamentID)
	defer unlock()

	var room *models.Room
	err := s.withTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.getTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		room, err = s.getOrCreateRoom(ctx, exec, t)
		if err != nil {
			return err
		}

		refA, seatedA := room.FindSlotForPlayer(playerA)
		refB, seatedB := room.FindSlotForPlayer(playerB)
		if !seatedA || !seatedB {
			return ErrPlayerNotSeated
		}

		// Clear both before rewriting so the per-player unique index never
		// observes a duplicate.
		if err := s.rooms.UpdateSlotPlayer(ctx, exec, tournamentID, refA, nil); err != nil {
			return err
		}
		if err := s.rooms.UpdateSlotPlayer(ctx, exec, tournamentID, refB, nil); err != nil {
			return err
		}
		if err := s.rooms.UpdateSlotPlayer(ctx, exec, tournamentID, refA, &playerB); err != nil {
			return err
		}
		if err := s.rooms.UpdateSlotPlayer(ctx, exec, tournamentID, refB, &playerA); err != nil {
			return err
		}
		room.ClearSlot(refA)
		room.ClearSlot(refB)
		room.PlacePlayer(refA, playerB)
		room.PlacePlayer(refB, playerA)

		teams := []int{refA.TeamNumber}
		if refB.TeamNumber != refA.TeamNumber {
			teams = append(teams, refB.TeamNumber)
		}
		if err := s.syncCaptains(ctx, exec, room, teams...); err != nil {
			return err
		}
		return s.recordAudit(ctx, exec, actor, tournamentID, "swap_players",
			fmt.Sprintf("player %d <-> player %d", playerA, playerB))
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(live.EventPlayerMoved, room, actor)
	return room, nil
}

// SetSlotLock toggles the per-slot lock override. Admin only; idempotent.
func (s *RoomService) SetSlotLock(ctx context.Context, actor Actor, tournamentID int, ref models.SlotRef, locked bool) (*models.Room, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbiddenOperation
	}

	unlock := s.lockRoom(tournamentID)
	defer unlock()

	var (
		room    *models.Room
		changed bool
	)
	err := s.withTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.getTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		room, err = s.getOrCreateRoom(ctx, exec, t)
		if err != nil {
			return err
		}
		if room.Team(ref.TeamNumber) == nil {
			return ErrTeamNotFound
		}
		slot := room.Slot(ref)
		if slot == nil {
			return ErrSlotNotFound
		}
		if slot.IsLocked == locked {
			return nil
		}
		if err := s.rooms.UpdateSlotLock(ctx, exec, tournamentID, ref, locked); err != nil {
			return err
		}
		slot.IsLocked = locked
		changed = true
		action := "lock_slot"
		if !locked {
			action = "unlock_slot"
		}
		return s.recordAudit(ctx, exec, actor, tournamentID, action,
			fmt.Sprintf("team %d slot %d", ref.TeamNumber, ref.SlotNumber))
	})
	if err != nil {
		return nil, err
	}

	if changed {
		event := live.EventSlotLocked
		if !locked {
			event = live.EventSlotUnlocked
		}
		s.broadcast(event, room, actor)
	}
	return room, nil
}

// SetRoomLock toggles the room-wide lock. Admin only (the scheduler calls it
// as the system actor); idempotent. Unlocking before the deadline re-arms the
// lock timer; unlocking after it sets a persistent override so neither the
// timer nor the sweep reverts the admin's decision. Locking clears the
// override.
func (s *RoomService) SetRoomLock(ctx context.Context, actor Actor, tournamentID int, locked bool) (*models.Room, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbiddenOperation
	}

	unlock := s.lockRoom(tournamentID)
	defer unlock()

	var (
		room       *models.Room
		tournament *models.Tournament
		changed    bool
	)
	err := s.withTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.getTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		tournament = t
		room, err = s.getOrCreateRoom(ctx, exec, t)
		if err != nil {
			return err
		}
		if room.IsLocked == locked {
			return nil
		}
		override := false
		if !locked && s.scheduler != nil &&
			s.scheduler.DeadlinePassed(t.StartDate, room.Settings.SlotChangeDeadline) {
			override = true
		}
		if err := s.rooms.UpdateRoomLock(ctx, exec, tournamentID, locked, override); err != nil {
			return err
		}
		room.IsLocked = locked
		room.LockOverride = override
		changed = true
		action := "lock_room"
		if !locked {
			action = "unlock_room"
		}
		return s.recordAudit(ctx, exec, actor, tournamentID, action, "")
	})
	if err != nil {
		return nil, err
	}

	if changed {
		if s.scheduler != nil {
			if locked || room.LockOverride {
				s.scheduler.Cancel(tournamentID)
			} else {
				s.scheduler.Schedule(tournamentID, tournament.StartDate, room.Settings.SlotChangeDeadline)
			}
		}
		event := live.EventSlotsLocked
		if !locked {
			event = live.EventSlotsUnlocked
		}
		s.broadcast(event, room, actor)
	}
	return room, nil
}

// UpdateSettings merges the provided fields into the room settings. Admin
// only. A changed deadline reschedules the lock timer.
func (s *RoomService) UpdateSettings(ctx context.Context, actor Actor, tournamentID int, input UpdateSettingsInput) (*models.Room, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbiddenOperation
	}
	if input.SlotChangeDeadline != nil && input.ClearSlotChangeDeadline {
		return nil, fmt.Errorf("%w: cannot set and clear slot_change_deadline at once", ErrValidationFailed)
	}

	unlock := s.lockRoom(tournamentID)
	defer unlock()

	var (
		room       *models.Room
		tournament *models.Tournament
	)
	err := s.withTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.getTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		tournament = t
		room, err = s.getOrCreateRoom(ctx, exec, t)
		if err != nil {
			return err
		}

		settings := room.Settings
		if input.AllowSlotChange != nil {
			settings.AllowSlotChange = *input.AllowSlotChange
		}
		if input.AllowTeamSwitch != nil {
			settings.AllowTeamSwitch = *input.AllowTeamSwitch
		}
		if input.AutoAssignTeams != nil {
			settings.AutoAssignTeams = *input.AutoAssignTeams
		}
		if input.ClearSlotChangeDeadline {
			settings.SlotChangeDeadline = nil
		} else if input.SlotChangeDeadline != nil {
			deadline := input.SlotChangeDeadline.UTC()
			settings.SlotChangeDeadline = &deadline
		}

		if err := s.rooms.UpdateSettings(ctx, exec, tournamentID, settings); err != nil {
			return err
		}
		room.Settings = settings
		return s.recordAudit(ctx, exec, actor, tournamentID, "update_settings", "")
	})
	if err != nil {
		return nil, err
	}

	if s.scheduler != nil && !room.IsLocked && !room.LockOverride {
		s.scheduler.Schedule(tournamentID, tournament.StartDate, room.Settings.SlotChangeDeadline)
	}
	s.broadcast(live.EventSettingsUpdated, room, actor)
	return room, nil
}

// ReleaseCredentials publishes the in-game room id and password to
// participants. The write belongs to the tournament service's tables; this
// service performs it on the admin's behalf and fans out the event.
func (s *RoomService) ReleaseCredentials(ctx context.Context, actor Actor, tournamentID int, roomID, password string) (*models.Room, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbiddenOperation
	}
	if roomID == "" || password == "" {
		return nil, fmt.Errorf("%w: room id and password are required", ErrValidationFailed)
	}

	unlock := s.lockRoom(tournamentID)
	defer unlock()

	var room *models.Room
	err := s.withTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.getTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		room, err = s.getOrCreateRoom(ctx, exec, t)
		if err != nil {
			return err
		}
		if err := s.tournaments.ReleaseRoomCredentials(ctx, exec, tournamentID, roomID, password); err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}
		return s.recordAudit(ctx, exec, actor, tournamentID, "release_credentials", "")
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(live.EventCredentialsReleased, room, actor)
	return room, nil
}

// LockRoomForStart is the scheduler's entry point for the automatic
// Open -> Locked transition. The lock commits before the broadcast, so a
// failed fan-out never rolls the state back.
func (s *RoomService) LockRoomForStart(ctx context.Context, tournamentID int) error {
	_, err := s.SetRoomLock(ctx, SystemActor, tournamentID, true)
	if err != nil && !errors.Is(err, ErrRoomNotFound) && !errors.Is(err, ErrTournamentNotFound) {
		return err
	}
	return nil
}

// AuditTrail returns the most recent admin actions for a room.
func (s *RoomService) AuditTrail(ctx context.Context, actor Actor, tournamentID, limit int) ([]models.RoomAuditEntry, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbiddenOperation
	}
	return s.audit.ListByTournament(ctx, nil, tournamentID, limit)
}

// syncCaptains persists the recomputed captain of each listed team.
func (s *RoomService) syncCaptains(ctx context.Context, exec repositories.SQLExecutor, room *models.Room, teamNumbers ...int) error {
	for _, n := range teamNumbers {
		team := room.Team(n)
		if team == nil {
			continue
		}
		if err := s.rooms.UpdateTeamCaptain(ctx, exec, room.TournamentID, n, team.CaptainID); err != nil {
			return err
		}
	}
	return nil
}

// recordAudit writes an audit row for administrator-initiated actions.
// Participant self-moves and system transitions are not audited.
func (s *RoomService) recordAudit(ctx context.Context, exec repositories.SQLExecutor, actor Actor, tournamentID int, action, detail string) error {
	if !actor.IsAdmin() || actor.UserID == 0 {
		return nil
	}
	entry := &models.RoomAuditEntry{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		AdminID:      actor.UserID,
		Action:       action,
		Detail:       detail,
	}
	return s.audit.Insert(ctx, exec, entry)
}

func (s *RoomService) broadcast(event live.EventType, room *models.Room, actor Actor) {
	if s.broadcaster == nil || room == nil {
		return
	}
	var adminID *int
	if actor.IsAdmin() && actor.UserID > 0 {
		id := actor.UserID
		adminID = &id
	}
	s.broadcaster.BroadcastRoomEvent(live.RoomEvent{
		Type:         event,
		TournamentID: room.TournamentID,
		Room:         room,
		AdminID:      adminID,
		At:           time.Now().UTC(),
	})
}
