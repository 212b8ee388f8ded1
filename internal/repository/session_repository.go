package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/coffeeapi/backend/internal/domain"
)

const sessionColumns = `id, user_id, is_disabled, keep_alive, valid_until, refreshable_until, created_at, updated_at`

type PostgresSessionRepository struct {
	db *sql.DB
}

func NewPostgresSessionRepository(db *sql.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

func scanSession(row interface{ Scan(...any) error }) (*domain.Session, error) {
	var session domain.Session
	var userID sql.NullInt64

	err := row.Scan(
		&session.ID,
		&userID,
		&session.IsDisabled,
		&session.KeepAlive,
		&session.ValidUntil,
		&session.RefreshableUntil,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		session.UserID = &userID.Int64
	}

	return &session, nil
}

func (r *PostgresSessionRepository) Create(ctx context.Context, input domain.CreateSessionInput) (*domain.Session, error) {
	query := `
		INSERT INTO sessions (id, user_id, keep_alive, valid_until, refreshable_until)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + sessionColumns

	return scanSession(r.db.QueryRowContext(ctx, query,
		input.ID,
		input.UserID,
		input.KeepAlive,
		input.ValidUntil,
		input.RefreshableUntil,
	))
}

func (r *PostgresSessionRepository) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	return scanSession(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresSessionRepository) FindByUserID(ctx context.Context, userID int64) ([]domain.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *PostgresSessionRepository) Update(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	query := `
		UPDATE sessions SET
			is_disabled = $2,
			keep_alive = $3,
			valid_until = $4,
			refreshable_until = $5,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + sessionColumns

	updated, err := scanSession(r.db.QueryRowContext(ctx, query,
		session.ID,
		session.IsDisabled,
		session.KeepAlive,
		session.ValidUntil,
		session.RefreshableUntil,
	))
	if err != nil {
		return nil, err
	}

	return updated, nil
}

var _ domain.SessionRepository = (*PostgresSessionRepository)(nil)
