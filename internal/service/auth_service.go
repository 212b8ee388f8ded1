package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coffeeapi/backend/internal/apperr"
	"github.com/coffeeapi/backend/internal/domain"
	"github.com/coffeeapi/backend/internal/mail"
	"github.com/coffeeapi/backend/internal/password"
	"github.com/coffeeapi/backend/internal/session"
	"github.com/coffeeapi/backend/internal/token"
)

// TokenPair carries freshly minted credentials together with the session
// they are bound to.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	Session      *domain.Session
}

type AuthService struct {
	users     domain.UserRepository
	sessions  domain.SessionRepository
	lifecycle *session.Lifecycle
	codec     *token.Codec
	mailer    mail.Mailer
	logger    *slog.Logger

	verificationTTL time.Duration
	verificationURL string
	requireVerified bool
}

type AuthServiceConfig struct {
	Users     domain.UserRepository
	Sessions  domain.SessionRepository
	Lifecycle *session.Lifecycle
	Codec     *token.Codec
	Mailer    mail.Mailer
	Logger    *slog.Logger

	VerificationTTL time.Duration
	VerificationURL string
	RequireVerified bool
}

func NewAuthService(cfg AuthServiceConfig) *AuthService {
	return &AuthService{
		users:           cfg.Users,
		sessions:        cfg.Sessions,
		lifecycle:       cfg.Lifecycle,
		codec:           cfg.Codec,
		mailer:          cfg.Mailer,
		logger:          cfg.Logger,
		verificationTTL: cfg.VerificationTTL,
		verificationURL: cfg.VerificationURL,
		requireVerified: cfg.RequireVerified,
	}
}

// Register creates a new account. The returned message is all a caller ever
// sees; the created user is never exposed. A verification email is
// dispatched out of band and cannot fail the registration.
func (s *AuthService) Register(ctx context.Context, username, email, plainPassword string) (string, error) {
	field, value := "username", username
	existing, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		field, value = "email", email
		existing, err = s.users.FindByEmail(ctx, email)
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}
	if existing != nil {
		s.logger.Warn("registration collision", "field", field)
		return "", apperr.UserExists(field, value)
	}

	hash, err := password.Hash(plainPassword)
	if err != nil {
		return "", err
	}

	user, err := s.users.Create(ctx, domain.CreateUserInput{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		// A concurrent signup slipped in between the lookup and the insert.
		s.logger.Warn("registration collision on insert", "username", username)
		return "", apperr.UserExists("username", username)
	}
	if err != nil {
		return "", err
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)

	go s.sendVerificationEmail(user)

	return fmt.Sprintf("User %s registered successfully", user.Username), nil
}

// Login authenticates by username or email and opens a fresh session,
// disabling any the user already held.
func (s *AuthService) Login(ctx context.Context, identifier, plainPassword string, keepAlive bool) (*TokenPair, error) {
	user, err := s.users.FindByIdentifier(ctx, identifier)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Warn("login for unknown identifier", "identifier", identifier)
		return nil, apperr.UserNotFound("identifier", identifier)
	}
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		s.logger.Warn("login for disabled account", "user_id", user.ID)
		return nil, apperr.Forbidden("account disabled", map[string]any{"identifier": identifier})
	}

	if s.requireVerified && !user.IsVerified {
		s.logger.Warn("login for unverified account", "user_id", user.ID)
		return nil, apperr.Forbidden("email not verified", map[string]any{"identifier": identifier})
	}

	if !password.Verify(user.PasswordHash, plainPassword) {
		s.logger.Warn("invalid password", "user_id", user.ID)
		return nil, apperr.InvalidPassword()
	}

	sess, err := s.lifecycle.StartNew(ctx, user.ID, keepAlive)
	if err != nil {
		return nil, err
	}

	return s.mintPair(sess)
}

// Refresh rotates both tokens. A new refresh token is issued every time;
// the old one stays formally decodable but is bounded by the session's own
// validity window.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		return nil, err
	}

	sessionID, err := claims.RefreshSessionID(time.Now())
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.FindByID(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Warn("refresh for missing session", "session_id", sessionID)
		return nil, apperr.SessionNotFound("id", sessionID)
	}
	if err != nil {
		return nil, err
	}
	if sess.IsDisabled {
		s.logger.Warn("refresh for disabled session", "session_id", sessionID)
		return nil, apperr.SessionNotFound("id", sessionID)
	}

	sess, err = s.lifecycle.Refresh(ctx, sess)
	if err != nil {
		return nil, err
	}

	return s.mintPair(sess)
}

// Logout disables the session behind the access token, best effort: decode
// failures are logged and swallowed so logout always succeeds.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.codec.Verify(accessToken)
	if err != nil {
		s.logger.Warn("logout with undecodable access token", "error", err)
		return nil
	}

	sessionID, err := claims.AccessSessionID(time.Now())
	if err != nil {
		s.logger.Warn("logout with invalid access claims", "error", err)
		return nil
	}

	sess, err := s.sessions.FindByID(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if !sess.IsDisabled {
		if _, err := s.lifecycle.Disable(ctx, sess); err != nil {
			return err
		}
		s.logger.Info("session disabled on logout", "session_id", sess.ID)
	}

	return nil
}

// VerifyEmail confirms ownership of the registered address. Verifying an
// already-verified account is an idempotent success.
func (s *AuthService) VerifyEmail(ctx context.Context, verificationToken string) (string, error) {
	claims, err := s.codec.Verify(verificationToken)
	if err != nil {
		return "", err
	}

	userID, err := claims.VerificationUserID(time.Now())
	if err != nil {
		return "", err
	}

	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", apperr.UserNotFound("id", claims.Subject)
	}
	if err != nil {
		return "", err
	}

	if user.IsVerified {
		return "Email already verified", nil
	}

	verified := true
	if _, err := s.users.Update(ctx, user.ID, domain.UpdateUserInput{IsVerified: &verified}); err != nil {
		return "", err
	}

	s.logger.Info("email verified", "user_id", user.ID)

	return "Email verified successfully", nil
}

func (s *AuthService) mintPair(sess *domain.Session) (*TokenPair, error) {
	accessToken, err := s.codec.Sign(token.AccessClaims(sess.ID, sess.ValidUntil))
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.codec.Sign(token.RefreshClaims(sess.ID, sess.RefreshableUntil))
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Session:      sess,
	}, nil
}

// sendVerificationEmail runs detached from the request that triggered it.
func (s *AuthService) sendVerificationEmail(user *domain.User) {
	verificationToken, err := s.codec.Sign(token.VerificationClaims(user.ID, time.Now().Add(s.verificationTTL)))
	if err != nil {
		s.logger.Error("failed to mint verification token", "user_id", user.ID, "error", err)
		return
	}

	link := fmt.Sprintf("%s?token=%s", s.verificationURL, verificationToken)
	msg := mail.Message{
		To:      user.Email,
		Subject: "Confirm your registration",
		Body:    fmt.Sprintf("Hello %s,\n\nFollow the link to confirm your email address:\n%s\n", user.Username, link),
	}

	if err := s.mailer.Send(context.Background(), msg); err != nil {
		s.logger.Error("failed to send verification email", "user_id", user.ID, "error", err)
	}
}
