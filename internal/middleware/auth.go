package middleware

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/coffeeapi/backend/internal/apperr"
	"github.com/coffeeapi/backend/internal/domain"
	"github.com/coffeeapi/backend/internal/handler"
	"github.com/coffeeapi/backend/internal/token"
	"github.com/coffeeapi/backend/internal/transport"
)

// AuthMiddleware verifies inbound access credentials and resolves them to an
// authenticated user. It only reads session records; every write to them
// belongs to the session lifecycle.
type AuthMiddleware struct {
	sessions  domain.SessionRepository
	users     domain.UserRepository
	codec     *token.Codec
	transport *transport.Transport
	logger    *slog.Logger
}

type AuthMiddlewareConfig struct {
	Sessions  domain.SessionRepository
	Users     domain.UserRepository
	Codec     *token.Codec
	Transport *transport.Transport
	Logger    *slog.Logger
}

func NewAuthMiddleware(cfg AuthMiddlewareConfig) *AuthMiddleware {
	return &AuthMiddleware{
		sessions:  cfg.Sessions,
		users:     cfg.Users,
		codec:     cfg.Codec,
		transport: cfg.Transport,
		logger:    cfg.Logger,
	}
}

// currentUser runs the verification sequence for one request: resolve the
// token, verify the signature, validate the claims, look up the session,
// then its owner. Each step fails with its own taxonomy kind; anything
// unexpected in the storage path is re-signaled as token_invalid so that
// internals never leak through the error body.
func (m *AuthMiddleware) currentUser(c *fiber.Ctx) (*domain.User, error) {
	tok, _, err := m.transport.AccessToken(c)
	if err != nil {
		return nil, err
	}
	if tok == "" {
		return nil, apperr.TokenMissing()
	}

	claims, err := m.codec.Verify(tok)
	if err != nil {
		return nil, err
	}

	sessionID, err := claims.AccessSessionID(time.Now())
	if err != nil {
		return nil, err
	}

	session, err := m.sessions.FindByID(c.Context(), sessionID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, apperr.AuthRequired()
	case err != nil:
		m.logger.Debug("session lookup failed", "session_id", sessionID, "error", err)
		return nil, apperr.TokenInvalid("")
	}

	if session.IsDisabled {
		m.logger.Debug("session is disabled", "session_id", sessionID)
		return nil, apperr.AuthRequired()
	}

	if session.UserID == nil {
		// Orphaned session: the owning user was deleted.
		return nil, apperr.TokenInvalid("")
	}

	user, err := m.users.FindByID(c.Context(), *session.UserID)
	if err != nil {
		m.logger.Debug("user lookup failed", "user_id", *session.UserID, "error", err)
		return nil, apperr.TokenInvalid("")
	}

	if !user.IsActive {
		m.logger.Warn("disabled account presented a valid session", "user_id", user.ID)
		return nil, apperr.Forbidden("account disabled", map[string]any{"identifier": userIdentifier(user)})
	}

	return user, nil
}

// Require rejects the request unless it carries a valid access credential.
func (m *AuthMiddleware) Require() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := m.currentUser(c)
		if err != nil {
			return err
		}

		handler.SetUserInContext(c, user)
		return c.Next()
	}
}

// RequireAdmin additionally rejects principals without the admin role.
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := m.currentUser(c)
		if err != nil {
			return err
		}

		if user.Role != domain.RoleAdmin {
			return apperr.Forbidden("you do not have permission to access this endpoint", nil)
		}

		handler.SetUserInContext(c, user)
		return c.Next()
	}
}

// Optional resolves a principal when one is present but lets anonymous
// requests through: token and authorization failures are swallowed and the
// request proceeds with no user in context.
func (m *AuthMiddleware) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := m.currentUser(c)
		if err != nil {
			if apperr.IsTokenError(err) ||
				apperr.IsKind(err, apperr.KindAuthRequired) ||
				apperr.IsKind(err, apperr.KindForbidden) {
				return c.Next()
			}
			return err
		}

		handler.SetUserInContext(c, user)
		return c.Next()
	}
}

func userIdentifier(user *domain.User) string {
	if user.Email != "" {
		return user.Email
	}
	return user.Username
}
