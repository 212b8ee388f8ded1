package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/coffeeapi/backend/internal/domain"
)

const userColumns = `id, username, email, password_hash, role, is_active, is_verified, created_at, updated_at`

// Postgres unique_violation, raised by the username and email constraints.
const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.IsActive,
		&user.IsVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *PostgresUserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresUserRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, identifier))
}

func (r *PostgresUserRepository) FindAll(ctx context.Context, offset, limit int) ([]domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY id
		OFFSET $1 LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *PostgresUserRepository) Create(ctx context.Context, input domain.CreateUserInput) (*domain.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query,
		input.Username,
		input.Email,
		input.PasswordHash,
	))
	if isUniqueViolation(err) {
		return nil, domain.ErrAlreadyExists
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, id int64, input domain.UpdateUserInput) (*domain.User, error) {
	query := `
		UPDATE users SET
			username = COALESCE($2, username),
			email = COALESCE($3, email),
			role = COALESCE($4, role),
			is_active = COALESCE($5, is_active),
			is_verified = COALESCE($6, is_verified),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	var username, email, role sql.NullString
	var isActive, isVerified sql.NullBool

	if input.Username != nil {
		username = sql.NullString{String: *input.Username, Valid: true}
	}
	if input.Email != nil {
		email = sql.NullString{String: *input.Email, Valid: true}
	}
	if input.Role != nil {
		role = sql.NullString{String: string(*input.Role), Valid: true}
	}
	if input.IsActive != nil {
		isActive = sql.NullBool{Bool: *input.IsActive, Valid: true}
	}
	if input.IsVerified != nil {
		isVerified = sql.NullBool{Bool: *input.IsVerified, Valid: true}
	}

	user, err := scanUser(r.db.QueryRowContext(ctx, query,
		id,
		username,
		email,
		role,
		isActive,
		isVerified,
	))
	if isUniqueViolation(err) {
		return nil, domain.ErrAlreadyExists
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

var _ domain.UserRepository = (*PostgresUserRepository)(nil)
