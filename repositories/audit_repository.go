package repositories

import (
	"context"
	"database/sql"

	"github.com/gameon-esports/gameon-rooms/models"
)

// AuditRepository persists the admin action trail for rooms.
type AuditRepository interface {
	Insert(ctx context.Context, exec SQLExecutor, entry *models.RoomAuditEntry) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID, limit int) ([]models.RoomAuditEntry, error)
}

type postgresAuditRepository struct {
	db *sql.DB
}

func NewPostgresAuditRepository(db *sql.DB) AuditRepository {
	return &postgresAuditRepository{db: db}
}

func (r *postgresAuditRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresAuditRepository) Insert(ctx context.Context, exec SQLExecutor, entry *models.RoomAuditEntry) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO room_audit (id, tournament_id, admin_id, action, detail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	return executor.QueryRowContext(ctx, query,
		entry.ID, entry.TournamentID, entry.AdminID, entry.Action, entry.Detail,
	).Scan(&entry.CreatedAt)
}

func (r *postgresAuditRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID, limit int) ([]models.RoomAuditEntry, error) {
	executor := r.getExecutor(exec)
	if limit <= 0 {
		limit = 50
	}
	rows, err := executor.QueryContext(ctx, `
		SELECT id, tournament_id, admin_id, action, detail, created_at
		FROM room_audit
		WHERE tournament_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, tournamentID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.RoomAuditEntry, 0)
	for rows.Next() {
		var e models.RoomAuditEntry
		if err := rows.Scan(&e.ID, &e.TournamentID, &e.AdminID, &e.Action, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
