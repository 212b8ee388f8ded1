// Package transport decides where credentials are read from and written to:
// explicit headers first, cookies as fallback, and cookie issuance with the
// security attributes the deployment is configured with.
package transport

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/coffeeapi/backend/internal/apperr"
)

const (
	AccessTokenHeader  = "access-token"
	RefreshTokenHeader = "refresh-token"

	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"

	// The refresh cookie is only ever sent back to the refresh endpoint.
	RefreshCookiePath = "/auth/refresh"
)

type Config struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	CookieSecure    bool
	CookieSameSite  string
	CookieDomain    string
}

type Transport struct {
	cfg Config
}

func New(cfg Config) *Transport {
	return &Transport{cfg: cfg}
}

// FromAuthHeader extracts a bearer token from a header value. An absent
// header yields an empty token so callers can fall back to the cookie; a
// present header must carry the Bearer scheme with a non-empty token.
func FromAuthHeader(value string) (string, error) {
	if value == "" {
		return "", nil
	}

	scheme, tok, found := strings.Cut(value, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", apperr.TokenInvalid("")
	}
	if tok == "" {
		return "", apperr.TokenMissing()
	}

	return tok, nil
}

// AccessToken resolves the inbound access token: header first, else cookie.
// fromCookie reports which path supplied it.
func (t *Transport) AccessToken(c *fiber.Ctx) (tok string, fromCookie bool, err error) {
	tok, err = FromAuthHeader(c.Get(AccessTokenHeader))
	if err != nil {
		return "", false, err
	}
	if tok != "" {
		return tok, false, nil
	}

	tok = c.Cookies(AccessTokenCookie)
	return tok, tok != "", nil
}

// RefreshToken resolves the inbound refresh token: header first, else
// cookie. The refresh header carries the raw token, no scheme.
func (t *Transport) RefreshToken(c *fiber.Ctx) (tok string, fromCookie bool) {
	if tok = c.Get(RefreshTokenHeader); tok != "" {
		return tok, false
	}
	tok = c.Cookies(RefreshTokenCookie)
	return tok, tok != ""
}

// SetAuthCookies issues both token cookies. The access cookie is valid for
// the whole API, the refresh cookie only for the refresh endpoint.
func (t *Transport) SetAuthCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	t.setCookie(c, AccessTokenCookie, accessToken, "/", int(t.cfg.AccessTokenTTL.Seconds()))
	t.setCookie(c, RefreshTokenCookie, refreshToken, RefreshCookiePath, int(t.cfg.RefreshTokenTTL.Seconds()))
}

func (t *Transport) ClearAuthCookies(c *fiber.Ctx) {
	t.setCookie(c, AccessTokenCookie, "", "/", -1)
	t.setCookie(c, RefreshTokenCookie, "", RefreshCookiePath, -1)
}

func (t *Transport) setCookie(c *fiber.Ctx, name, value, path string, maxAge int) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   t.cfg.CookieDomain,
		MaxAge:   maxAge,
		HTTPOnly: true,
		Secure:   t.cfg.CookieSecure,
		SameSite: t.cfg.CookieSameSite,
	})
}
