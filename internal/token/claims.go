package token

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/coffeeapi/backend/internal/apperr"
)

const (
	TypeAccess       = "access"
	TypeRefresh      = "refresh"
	TypeVerification = "verification"
)

// Claims is the signed claim set carried by every token. Access and refresh
// tokens put a session id in the subject; verification tokens put a user id.
type Claims struct {
	Subject   string `json:"sub"`
	ExpiresAt int64  `json:"expires_at"`
	Type      string `json:"type"`
}

// GetExpirationTime exposes expires_at to the jwt parser, so the signature
// library rejects expired tokens on Verify. The guard re-checks expires_at
// explicitly on top of that.
func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) {
	if c.ExpiresAt == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.ExpiresAt, 0)), nil
}

func (c Claims) GetIssuedAt() (*jwt.NumericDate, error)  { return nil, nil }
func (c Claims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (c Claims) GetIssuer() (string, error)              { return "", nil }
func (c Claims) GetSubject() (string, error)             { return c.Subject, nil }
func (c Claims) GetAudience() (jwt.ClaimStrings, error)  { return nil, nil }

func AccessClaims(sessionID string, validUntil time.Time) Claims {
	return Claims{Subject: sessionID, ExpiresAt: validUntil.Unix(), Type: TypeAccess}
}

func RefreshClaims(sessionID string, refreshableUntil time.Time) Claims {
	return Claims{Subject: sessionID, ExpiresAt: refreshableUntil.Unix(), Type: TypeRefresh}
}

func VerificationClaims(userID int64, expiresAt time.Time) Claims {
	return Claims{Subject: strconv.FormatInt(userID, 10), ExpiresAt: expiresAt.Unix(), Type: TypeVerification}
}

func (c Claims) Expired(now time.Time) bool {
	return now.Unix() > c.ExpiresAt
}

func (c Claims) validate(expectedType string, now time.Time) error {
	if c.Type != expectedType {
		return apperr.TokenInvalid("expected token type: " + expectedType)
	}
	if c.Expired(now) {
		return apperr.TokenExpired()
	}
	return nil
}

// AccessSessionID validates an access claim set and returns the session id.
func (c Claims) AccessSessionID(now time.Time) (string, error) {
	if err := c.validate(TypeAccess, now); err != nil {
		return "", err
	}
	if c.Subject == "" {
		return "", apperr.InvalidCredentials()
	}
	return c.Subject, nil
}

// RefreshSessionID validates a refresh claim set and returns the session id.
func (c Claims) RefreshSessionID(now time.Time) (string, error) {
	if err := c.validate(TypeRefresh, now); err != nil {
		return "", err
	}
	if c.Subject == "" {
		return "", apperr.TokenInvalid("missing session id in refresh token payload")
	}
	return c.Subject, nil
}

// VerificationUserID validates a verification claim set and returns the user id.
func (c Claims) VerificationUserID(now time.Time) (int64, error) {
	if err := c.validate(TypeVerification, now); err != nil {
		return 0, err
	}
	if c.Subject == "" {
		return 0, apperr.TokenInvalid("missing user id in verification token payload")
	}
	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, apperr.TokenInvalid("malformed user id in verification token payload")
	}
	return userID, nil
}
