package response

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Base is the minimal success body shared by message-only endpoints.
type Base struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Token is the body returned by login and refresh. Token fields are null
// when the credentials were issued as cookies instead.
type Token struct {
	Success      bool    `json:"success"`
	Message      string  `json:"message"`
	AccessToken  *string `json:"access_token"`
	RefreshToken *string `json:"refresh_token"`
	TokenType    string  `json:"token_type"`
	ExpiresIn    int64   `json:"expires_in"`
}

const TokenTypeBearer = "Bearer"

// ErrorBody mirrors the structured error schema rendered at the transport
// boundary for every taxonomy kind.
type ErrorBody struct {
	Detail     string         `json:"detail"`
	ErrorType  string         `json:"error_type"`
	StatusCode int            `json:"status_code"`
	Timestamp  string         `json:"timestamp"`
	RequestID  string         `json:"request_id"`
	Extra      map[string]any `json:"extra,omitempty"`
}

type ErrorEnvelope struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

func Message(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusOK).JSON(Base{Success: true, Message: message})
}

func Tokens(c *fiber.Ctx, message string, accessToken, refreshToken *string, expiresIn int64) error {
	return c.Status(fiber.StatusOK).JSON(Token{
		Success:      true,
		Message:      message,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    expiresIn,
	})
}

func OK(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusOK).JSON(data)
}

func Error(c *fiber.Ctx, status int, errorType, detail, requestID string, extra map[string]any) error {
	return c.Status(status).JSON(ErrorEnvelope{
		Success: false,
		Error: ErrorBody{
			Detail:     detail,
			ErrorType:  errorType,
			StatusCode: status,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			RequestID:  requestID,
			Extra:      extra,
		},
	})
}
