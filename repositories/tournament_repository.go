package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gameon-esports/gameon-rooms/models"
)

var (
	ErrTournamentNotFound = errors.New("tournament not found")
)

// TournamentRepository is the narrow read surface the room subsystem needs
// from the tournament service's tables, plus the credentials release it
// performs on the tournament's behalf.
type TournamentRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	ReleaseRoomCredentials(ctx context.Context, exec SQLExecutor, id int, roomID, password string) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, name, mode, status, start_date, max_participants,
		       room_id, room_password, credentials_released, created_at
		FROM tournaments
		WHERE id = $1`

	t := &models.Tournament{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Mode, &t.Status, &t.StartDate, &t.MaxParticipants,
		&t.RoomID, &t.RoomPassword, &t.CredentialsReleased, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) ReleaseRoomCredentials(ctx context.Context, exec SQLExecutor, id int, roomID, password string) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournaments SET
			room_id = $1,
			room_password = $2,
			credentials_released = TRUE
		WHERE id = $3`

	result, err := executor.ExecContext(ctx, query, roomID, password, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
