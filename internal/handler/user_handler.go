package handler

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/coffeeapi/backend/internal/domain"
	"github.com/coffeeapi/backend/internal/response"
	"github.com/coffeeapi/backend/internal/service"
	"github.com/coffeeapi/backend/internal/transport"
)

type UserHandler struct {
	users     *service.UserService
	transport *transport.Transport
	logger    *slog.Logger
}

type UserHandlerConfig struct {
	Users     *service.UserService
	Transport *transport.Transport
	Logger    *slog.Logger
}

func NewUserHandler(cfg UserHandlerConfig) *UserHandler {
	return &UserHandler{
		users:     cfg.Users,
		transport: cfg.Transport,
		logger:    cfg.Logger,
	}
}

func (h *UserHandler) Register(app *fiber.App, requireAuth, requireAdmin fiber.Handler) {
	users := app.Group("/users")
	users.Get("/me", requireAuth, h.Me)
	users.Get("/", requireAdmin, h.List)
	users.Get("/:id", requireAuth, h.Get)
	users.Patch("/:id", requireAdmin, h.Update)
	users.Delete("/:id", requireAdmin, h.Delete)
}

type UserResponse struct {
	ID         int64       `json:"id"`
	Username   string      `json:"username"`
	Email      string      `json:"email"`
	Role       domain.Role `json:"role"`
	IsActive   bool        `json:"is_active"`
	IsVerified bool        `json:"is_verified"`
	CreatedAt  time.Time   `json:"created_at"`
}

func toUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		Role:       user.Role,
		IsActive:   user.IsActive,
		IsVerified: user.IsVerified,
		CreatedAt:  user.CreatedAt,
	}
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	user := GetUserFromContext(c)
	if user == nil {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	return response.OK(c, toUserResponse(user))
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	users, err := h.users.List(c.Context(), offset, limit)
	if err != nil {
		return err
	}

	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = toUserResponse(&users[i])
	}

	return response.OK(c, out)
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	user, err := h.users.Get(c.Context(), id)
	if err != nil {
		return err
	}

	return response.OK(c, toUserResponse(user))
}

type updateUserRequest struct {
	Username   *string      `json:"username"`
	Email      *string      `json:"email"`
	Role       *domain.Role `json:"role"`
	IsActive   *bool        `json:"is_active"`
	IsVerified *bool        `json:"is_verified"`
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.users.Update(c.Context(), id, domain.UpdateUserInput{
		Username:   req.Username,
		Email:      req.Email,
		Role:       req.Role,
		IsActive:   req.IsActive,
		IsVerified: req.IsVerified,
	})
	if err != nil {
		return err
	}

	return response.OK(c, toUserResponse(user))
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	if err := h.users.Delete(c.Context(), id); err != nil {
		return err
	}

	// An admin deactivating themselves loses their cookie credentials too.
	if actor := GetUserFromContext(c); actor != nil && actor.ID == id {
		h.transport.ClearAuthCookies(c)
	}

	return response.Message(c, "User deactivated successfully")
}

func parseUserID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}
	return id, nil
}
