package repositories

import (
	"context"
	"database/sql"
)

// ParticipantRepository answers membership questions for the access gateway.
// Registration itself (payments, joins) belongs to the tournament service.
type ParticipantRepository interface {
	IsParticipant(ctx context.Context, exec SQLExecutor, tournamentID, userID int) (bool, error)
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipantRepository) IsParticipant(ctx context.Context, exec SQLExecutor, tournamentID, userID int) (bool, error) {
	executor := r.getExecutor(exec)
	var exists bool
	err := executor.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM participants
			WHERE tournament_id = $1 AND user_id = $2
		)`, tournamentID, userID,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
