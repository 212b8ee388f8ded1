// Package session owns every mutation of session records: creation on
// login, timestamp extension on refresh, and disablement on logout.
// Readers (the authentication guard) never write.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/coffeeapi/backend/internal/crypto"
	"github.com/coffeeapi/backend/internal/domain"
)

type Lifecycle struct {
	sessions   domain.SessionRepository
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *slog.Logger
}

func NewLifecycle(sessions domain.SessionRepository, accessTTL, refreshTTL time.Duration, logger *slog.Logger) *Lifecycle {
	return &Lifecycle{
		sessions:   sessions,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// StartNew disables every session the user currently holds, then creates a
// fresh one. Last login wins: at most one non-disabled session per user.
//
// The disable loop issues one update per session and is not transactional;
// a store failure mid-loop leaves earlier sessions disabled and later ones
// untouched, and a concurrent login for the same user can interleave with
// it. Callers get the store error as-is.
func (l *Lifecycle) StartNew(ctx context.Context, userID int64, keepAlive bool) (*domain.Session, error) {
	existing, err := l.sessions.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range existing {
		existing[i].IsDisabled = true
		if _, err := l.sessions.Update(ctx, &existing[i]); err != nil {
			return nil, err
		}
	}

	if len(existing) > 0 {
		l.logger.Debug("disabled previous sessions", "user_id", userID, "count", len(existing))
	}

	id, err := crypto.GenerateSessionID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	created, err := l.sessions.Create(ctx, domain.CreateSessionInput{
		ID:               id,
		UserID:           userID,
		KeepAlive:        keepAlive,
		ValidUntil:       now.Add(l.accessTTL),
		RefreshableUntil: now.Add(l.refreshTTL),
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("session started", "session_id", created.ID, "user_id", userID, "keep_alive", keepAlive)

	return created, nil
}

// Refresh extends the access window, and the refresh window too when the
// session was opened with keep-alive.
func (l *Lifecycle) Refresh(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	now := time.Now()
	if session.KeepAlive {
		session.RefreshableUntil = now.Add(l.refreshTTL)
	}
	session.ValidUntil = now.Add(l.accessTTL)

	return l.sessions.Update(ctx, session)
}

// Disable marks the session disabled. Disabling an already-disabled session
// is a semantic no-op, though it still issues a write.
func (l *Lifecycle) Disable(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	session.IsDisabled = true
	return l.sessions.Update(ctx, session)
}
