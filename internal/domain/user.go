package domain

import (
	"context"
	"time"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	IsActive     bool
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CreateUserInput struct {
	Username     string
	Email        string
	PasswordHash string
}

type UpdateUserInput struct {
	Username   *string
	Email      *string
	Role       *Role
	IsActive   *bool
	IsVerified *bool
}

type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// FindByIdentifier resolves a user by username or email.
	FindByIdentifier(ctx context.Context, identifier string) (*User, error)
	FindAll(ctx context.Context, offset, limit int) ([]User, error)
	Create(ctx context.Context, input CreateUserInput) (*User, error)
	Update(ctx context.Context, id int64, input UpdateUserInput) (*User, error)
}
