package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/coffeeapi/backend/internal/apperr"
	"github.com/coffeeapi/backend/internal/response"
	"github.com/coffeeapi/backend/internal/service"
	"github.com/coffeeapi/backend/internal/transport"
)

type AuthHandler struct {
	auth      *service.AuthService
	transport *transport.Transport
	logger    *slog.Logger
}

type AuthHandlerConfig struct {
	Auth      *service.AuthService
	Transport *transport.Transport
	Logger    *slog.Logger
}

func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		auth:      cfg.Auth,
		transport: cfg.Transport,
		logger:    cfg.Logger,
	}
}

func (h *AuthHandler) Register(app *fiber.App) {
	auth := app.Group("/auth")
	auth.Post("/signup", h.Signup)
	auth.Post("/login", h.Login)
	auth.Post("/refresh", h.Refresh)
	auth.Post("/logout", h.Logout)
	auth.Get("/verify", h.Verify)
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "username, email and password are required")
	}

	msg, err := h.auth.Register(c.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}

	return response.Message(c, msg)
}

type loginRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	KeepAlive bool   `json:"keep_alive"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "username and password are required")
	}

	pair, err := h.auth.Login(c.Context(), req.Username, req.Password, req.KeepAlive)
	if err != nil {
		return err
	}

	useCookies := c.QueryBool("use_cookies", true)
	return h.tokenResponse(c, "auth successful", pair, useCookies)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	tok, fromCookie := h.transport.RefreshToken(c)
	if tok == "" {
		return apperr.TokenMissing()
	}

	pair, err := h.auth.Refresh(c.Context(), tok)
	if err != nil {
		return err
	}

	// Credentials go back the way they came in.
	return h.tokenResponse(c, "refresh successful", pair, fromCookie)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	useCookies := false

	tok, err := transport.FromAuthHeader(c.Get(transport.AccessTokenHeader))
	if err != nil {
		return err
	}
	if tok == "" {
		tok = c.Cookies(transport.AccessTokenCookie)
		useCookies = true
	}
	if tok == "" {
		return apperr.AuthRequired()
	}

	if err := h.auth.Logout(c.Context(), tok); err != nil {
		return err
	}

	if useCookies {
		h.transport.ClearAuthCookies(c)
	}

	return response.Message(c, "Logout successful")
}

func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	tok := c.Query("token")
	if tok == "" {
		return apperr.TokenMissing()
	}

	msg, err := h.auth.VerifyEmail(c.Context(), tok)
	if err != nil {
		return err
	}

	return response.Message(c, msg)
}

// tokenResponse renders a freshly minted pair. In cookie mode the tokens
// travel as Set-Cookie headers and the body carries nulls; otherwise the
// body carries the tokens and no cookies are set.
func (h *AuthHandler) tokenResponse(c *fiber.Ctx, message string, pair *service.TokenPair, useCookies bool) error {
	expiresIn := pair.Session.ValidUntil.Unix()

	if useCookies {
		h.transport.SetAuthCookies(c, pair.AccessToken, pair.RefreshToken)
		return response.Tokens(c, message, nil, nil, expiresIn)
	}

	return response.Tokens(c, message, &pair.AccessToken, &pair.RefreshToken, expiresIn)
}
