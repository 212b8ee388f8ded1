package domain

import (
	"context"
	"time"
)

// Session is the durable server-side record of one authenticated login.
// Sessions are never hard-deleted by the application; disablement is the
// terminal state. UserID is nullable so that deleting a user orphans its
// sessions instead of removing them.
type Session struct {
	ID               string
	UserID           *int64
	IsDisabled       bool
	KeepAlive        bool
	ValidUntil       time.Time
	RefreshableUntil time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type CreateSessionInput struct {
	ID               string
	UserID           int64
	KeepAlive        bool
	ValidUntil       time.Time
	RefreshableUntil time.Time
}

type SessionRepository interface {
	Create(ctx context.Context, input CreateSessionInput) (*Session, error)
	FindByID(ctx context.Context, id string) (*Session, error)
	FindByUserID(ctx context.Context, userID int64) ([]Session, error)
	Update(ctx context.Context, session *Session) (*Session, error)
}
