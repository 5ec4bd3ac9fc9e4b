package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gameon-esports/gameon-rooms/models"
	"github.com/lib/pq"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomSlotNotFound   = errors.New("room slot not found")
	ErrRoomAlreadyExists  = errors.New("room already exists for this tournament")
	ErrRoomPlayerConflict = errors.New("player already occupies a slot in this room")
)

// RoomLockDeadline is the per-room input the lock scheduler derives its fire
// time from.
type RoomLockDeadline struct {
	TournamentID       int
	StartDate          time.Time
	SlotChangeDeadline *time.Time
}

type RoomRepository interface {
	Create(ctx context.Context, exec SQLExecutor, room *models.Room) error
	GetByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.Room, error)
	UpdateSlotPlayer(ctx context.Context, exec SQLExecutor, tournamentID int, ref models.SlotRef, playerID *int) error
	UpdateSlotLock(ctx context.Context, exec SQLExecutor, tournamentID int, ref models.SlotRef, locked bool) error
	UpdateTeamCaptain(ctx context.Context, exec SQLExecutor, tournamentID, teamNumber int, captainID *int) error
	UpdateRoomLock(ctx context.Context, exec SQLExecutor, tournamentID int, locked, override bool) error
	UpdateSettings(ctx context.Context, exec SQLExecutor, tournamentID int, settings models.RoomSettings) error
	MarkArchived(ctx context.Context, exec SQLExecutor, tournamentID int, at time.Time) error
	ListLockDeadlines(ctx context.Context, exec SQLExecutor) ([]RoomLockDeadline, error)
	ListPendingArchive(ctx context.Context, exec SQLExecutor) ([]int, error)
}

type postgresRoomRepository struct {
	db *sql.DB
}

func NewPostgresRoomRepository(db *sql.DB) RoomRepository {
	return &postgresRoomRepository{db: db}
}

func (r *postgresRoomRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRoomRepository) Create(ctx context.Context, exec SQLExecutor, room *models.Room) error {
	executor := r.getExecutor(exec)

	query := `
		INSERT INTO rooms (
			tournament_id, max_teams, max_players_per_team, is_locked, lock_override,
			allow_slot_change, allow_team_switch, auto_assign_teams, slot_change_deadline
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	err := executor.QueryRowContext(ctx, query,
		room.TournamentID, room.MaxTeams, room.MaxPlayersPerTeam, room.IsLocked, room.LockOverride,
		room.Settings.AllowSlotChange, room.Settings.AllowTeamSwitch,
		room.Settings.AutoAssignTeams, room.Settings.SlotChangeDeadline,
	).Scan(&room.CreatedAt)
	if err != nil {
		return r.handleRoomError(err)
	}

	for _, team := range room.Teams {
		if _, err := executor.ExecContext(ctx,
			`INSERT INTO room_teams (tournament_id, team_number, captain_id) VALUES ($1, $2, $3)`,
			room.TournamentID, team.TeamNumber, team.CaptainID,
		); err != nil {
			return r.handleRoomError(err)
		}
		for _, slot := range team.Slots {
			if _, err := executor.ExecContext(ctx,
				`INSERT INTO room_slots (tournament_id, team_number, slot_number, player_id, is_locked)
				 VALUES ($1, $2, $3, $4, $5)`,
				room.TournamentID, team.TeamNumber, slot.SlotNumber, slot.PlayerID, slot.IsLocked,
			); err != nil {
				return r.handleRoomError(err)
			}
		}
	}
	return nil
}

func (r *postgresRoomRepository) GetByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.Room, error) {
	executor := r.getExecutor(exec)

	room := &models.Room{}
	err := executor.QueryRowContext(ctx, `
		SELECT tournament_id, max_teams, max_players_per_team, is_locked, lock_override,
		       allow_slot_change, allow_team_switch, auto_assign_teams, slot_change_deadline,
		       created_at, archived_at
		FROM rooms
		WHERE tournament_id = $1`, tournamentID,
	).Scan(
		&room.TournamentID, &room.MaxTeams, &room.MaxPlayersPerTeam, &room.IsLocked, &room.LockOverride,
		&room.Settings.AllowSlotChange, &room.Settings.AllowTeamSwitch,
		&room.Settings.AutoAssignTeams, &room.Settings.SlotChangeDeadline,
		&room.CreatedAt, &room.ArchivedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	room.Teams = make([]models.Team, room.MaxTeams)
	for i := range room.Teams {
		room.Teams[i] = models.Team{
			TeamNumber: i + 1,
			Slots:      make([]models.Slot, 0, room.MaxPlayersPerTeam),
		}
	}

	captainRows, err := executor.QueryContext(ctx,
		`SELECT team_number, captain_id FROM room_teams WHERE tournament_id = $1 ORDER BY team_number`,
		tournamentID,
	)
	if err != nil {
		return nil, err
	}
	defer captainRows.Close()
	for captainRows.Next() {
		var teamNumber int
		var captainID *int
		if err := captainRows.Scan(&teamNumber, &captainID); err != nil {
			return nil, err
		}
		if team := room.Team(teamNumber); team != nil {
			team.CaptainID = captainID
		}
	}
	if err := captainRows.Err(); err != nil {
		return nil, err
	}

	slotRows, err := executor.QueryContext(ctx, `
		SELECT team_number, slot_number, player_id, is_locked
		FROM room_slots
		WHERE tournament_id = $1
		ORDER BY team_number, slot_number`, tournamentID,
	)
	if err != nil {
		return nil, err
	}
	defer slotRows.Close()
	for slotRows.Next() {
		var teamNumber int
		var slot models.Slot
		if err := slotRows.Scan(&teamNumber, &slot.SlotNumber, &slot.PlayerID, &slot.IsLocked); err != nil {
			return nil, err
		}
		if team := room.Team(teamNumber); team != nil {
			team.Slots = append(team.Slots, slot)
		}
	}
	if err := slotRows.Err(); err != nil {
		return nil, err
	}

	room.Recompute()
	return room, nil
}

func (r *postgresRoomRepository) UpdateSlotPlayer(ctx context.Context, exec SQLExecutor, tournamentID int, ref models.SlotRef, playerID *int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `
		UPDATE room_slots SET player_id = $1
		WHERE tournament_id = $2 AND team_number = $3 AND slot_number = $4`,
		playerID, tournamentID, ref.TeamNumber, ref.SlotNumber,
	)
	if err != nil {
		return r.handleRoomError(err)
	}
	return checkAffectedRows(result, ErrRoomSlotNotFound)
}

func (r *postgresRoomRepository) UpdateSlotLock(ctx context.Context, exec SQLExecutor, tournamentID int, ref models.SlotRef, locked bool) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `
		UPDATE room_slots SET is_locked = $1
		WHERE tournament_id = $2 AND team_number = $3 AND slot_number = $4`,
		locked, tournamentID, ref.TeamNumber, ref.SlotNumber,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRoomSlotNotFound)
}

func (r *postgresRoomRepository) UpdateTeamCaptain(ctx context.Context, exec SQLExecutor, tournamentID, teamNumber int, captainID *int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `
		UPDATE room_teams SET captain_id = $1
		WHERE tournament_id = $2 AND team_number = $3`,
		captainID, tournamentID, teamNumber,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRoomNotFound)
}

func (r *postgresRoomRepository) UpdateRoomLock(ctx context.Context, exec SQLExecutor, tournamentID int, locked, override bool) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE rooms SET is_locked = $1, lock_override = $2 WHERE tournament_id = $3`,
		locked, override, tournamentID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRoomNotFound)
}

func (r *postgresRoomRepository) UpdateSettings(ctx context.Context, exec SQLExecutor, tournamentID int, settings models.RoomSettings) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `
		UPDATE rooms SET
			allow_slot_change = $1,
			allow_team_switch = $2,
			auto_assign_teams = $3,
			slot_change_deadline = $4
		WHERE tournament_id = $5`,
		settings.AllowSlotChange, settings.AllowTeamSwitch,
		settings.AutoAssignTeams, settings.SlotChangeDeadline,
		tournamentID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRoomNotFound)
}

func (r *postgresRoomRepository) MarkArchived(ctx context.Context, exec SQLExecutor, tournamentID int, at time.Time) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE rooms SET archived_at = $1 WHERE tournament_id = $2 AND archived_at IS NULL`,
		at, tournamentID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRoomNotFound)
}

// ListLockDeadlines returns the scheduling inputs for every unlocked,
// unarchived room whose tournament has not finished. Rooms an administrator
// explicitly unlocked after their deadline carry lock_override and are
// excluded, so the sweep never reverts that decision.
func (r *postgresRoomRepository) ListLockDeadlines(ctx context.Context, exec SQLExecutor) ([]RoomLockDeadline, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx, `
		SELECT r.tournament_id, t.start_date, r.slot_change_deadline
		FROM rooms r
		JOIN tournaments t ON t.id = r.tournament_id
		WHERE r.is_locked = FALSE
		  AND r.lock_override = FALSE
		  AND r.archived_at IS NULL
		  AND t.status NOT IN ($1, $2)`,
		models.StatusCompleted, models.StatusCancelled,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query room lock deadlines: %w", err)
	}
	defer rows.Close()

	var deadlines []RoomLockDeadline
	for rows.Next() {
		var d RoomLockDeadline
		if err := rows.Scan(&d.TournamentID, &d.StartDate, &d.SlotChangeDeadline); err != nil {
			return nil, fmt.Errorf("failed to scan room lock deadline: %w", err)
		}
		deadlines = append(deadlines, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return deadlines, nil
}

// ListPendingArchive returns tournament ids whose tournaments have finished
// but whose rooms are not yet archived.
func (r *postgresRoomRepository) ListPendingArchive(ctx context.Context, exec SQLExecutor) ([]int, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx, `
		SELECT r.tournament_id
		FROM rooms r
		JOIN tournaments t ON t.id = r.tournament_id
		WHERE r.archived_at IS NULL
		  AND t.status IN ($1, $2)`,
		models.StatusCompleted, models.StatusCancelled,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms pending archive: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *postgresRoomRepository) handleRoomError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			// room_slots_player_uniq is the partial unique index on
			// (tournament_id, player_id); it backs the one-slot-per-player
			// invariant at the storage layer.
			if pqErr.Constraint == "room_slots_player_uniq" {
				return ErrRoomPlayerConflict
			}
			return ErrRoomAlreadyExists
		}
	}
	return err
}
