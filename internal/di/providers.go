package di

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/wire"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lmittmann/tint"

	"github.com/coffeeapi/backend/internal/config"
	"github.com/coffeeapi/backend/internal/domain"
	"github.com/coffeeapi/backend/internal/handler"
	"github.com/coffeeapi/backend/internal/mail"
	"github.com/coffeeapi/backend/internal/middleware"
	"github.com/coffeeapi/backend/internal/repository"
	"github.com/coffeeapi/backend/internal/server"
	"github.com/coffeeapi/backend/internal/service"
	"github.com/coffeeapi/backend/internal/session"
	"github.com/coffeeapi/backend/internal/token"
	"github.com/coffeeapi/backend/internal/transport"
)

var ConfigSet = wire.NewSet(
	config.Load,
)

var LoggerSet = wire.NewSet(
	ProvideLogger,
)

var DatabaseSet = wire.NewSet(
	ProvideDatabase,
)

var RepositorySet = wire.NewSet(
	repository.NewPostgresUserRepository,
	wire.Bind(new(domain.UserRepository), new(*repository.PostgresUserRepository)),
	repository.NewPostgresSessionRepository,
	wire.Bind(new(domain.SessionRepository), new(*repository.PostgresSessionRepository)),
)

var AuthSet = wire.NewSet(
	ProvideCodec,
	ProvideLifecycle,
	ProvideTransport,
	ProvideMailer,
)

var ServiceSet = wire.NewSet(
	ProvideAuthService,
	service.NewUserService,
)

var MiddlewareSet = wire.NewSet(
	ProvideAuthMiddleware,
)

var HandlerSet = wire.NewSet(
	ProvideHealthHandler,
	ProvideAuthHandler,
	ProvideUserHandler,
)

var ServerSet = wire.NewSet(
	ProvideServerConfig,
	server.New,
)

var AppSet = wire.NewSet(
	ConfigSet,
	LoggerSet,
	DatabaseSet,
	RepositorySet,
	AuthSet,
	ServiceSet,
	MiddlewareSet,
	HandlerSet,
	ServerSet,
	wire.Struct(new(Application), "*"),
)

const Version = "0.1.0"

func ProvideLogger(cfg *config.Config) *slog.Logger {
	var logLevel slog.Level
	switch cfg.Server.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var h slog.Handler
	if cfg.Server.LogFormat == "text" {
		h = tint.NewHandler(os.Stdout, &tint.Options{Level: logLevel})
	} else {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}

	return slog.New(h)
}

func ProvideDatabase(cfg *config.Config) (*sql.DB, func(), error) {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	cleanup := func() {
		db.Close()
	}

	return db, cleanup, nil
}

func ProvideCodec(cfg *config.Config) (*token.Codec, error) {
	return token.Load(cfg.Auth.PrivateKeyPath, cfg.Auth.PublicKeyPath)
}

func ProvideLifecycle(cfg *config.Config, sessions domain.SessionRepository, logger *slog.Logger) *session.Lifecycle {
	return session.NewLifecycle(sessions, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL, logger)
}

func ProvideTransport(cfg *config.Config) *transport.Transport {
	return transport.New(transport.Config{
		AccessTokenTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
		CookieSecure:    cfg.Auth.CookieSecure,
		CookieSameSite:  cfg.Auth.CookieSameSite,
		CookieDomain:    cfg.Auth.CookieDomain,
	})
}

func ProvideMailer(cfg *config.Config, logger *slog.Logger) mail.Mailer {
	if cfg.Mail.Enabled {
		return mail.NewSMTPMailer(cfg.Mail)
	}
	return mail.NewLogMailer(logger)
}

func ProvideAuthService(
	cfg *config.Config,
	users domain.UserRepository,
	sessions domain.SessionRepository,
	lifecycle *session.Lifecycle,
	codec *token.Codec,
	mailer mail.Mailer,
	logger *slog.Logger,
) *service.AuthService {
	return service.NewAuthService(service.AuthServiceConfig{
		Users:           users,
		Sessions:        sessions,
		Lifecycle:       lifecycle,
		Codec:           codec,
		Mailer:          mailer,
		Logger:          logger,
		VerificationTTL: cfg.Auth.VerificationTokenTTL,
		VerificationURL: cfg.Auth.VerificationURL,
		RequireVerified: cfg.Auth.RequireVerified,
	})
}

func ProvideAuthMiddleware(
	sessions domain.SessionRepository,
	users domain.UserRepository,
	codec *token.Codec,
	tp *transport.Transport,
	logger *slog.Logger,
) *middleware.AuthMiddleware {
	return middleware.NewAuthMiddleware(middleware.AuthMiddlewareConfig{
		Sessions:  sessions,
		Users:     users,
		Codec:     codec,
		Transport: tp,
		Logger:    logger,
	})
}

func ProvideHealthHandler() *handler.HealthHandler {
	return handler.NewHealthHandler(Version)
}

func ProvideAuthHandler(auth *service.AuthService, tp *transport.Transport, logger *slog.Logger) *handler.AuthHandler {
	return handler.NewAuthHandler(handler.AuthHandlerConfig{
		Auth:      auth,
		Transport: tp,
		Logger:    logger,
	})
}

func ProvideUserHandler(users *service.UserService, tp *transport.Transport, logger *slog.Logger) *handler.UserHandler {
	return handler.NewUserHandler(handler.UserHandlerConfig{
		Users:     users,
		Transport: tp,
		Logger:    logger,
	})
}

func ProvideServerConfig(cfg *config.Config) server.Config {
	return server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		CorsOrigins:  cfg.Server.CorsOrigins,
	}
}

type Application struct {
	Config         *config.Config
	Logger         *slog.Logger
	DB             *sql.DB
	Server         *server.Server
	AuthMiddleware *middleware.AuthMiddleware
	HealthHandler  *handler.HealthHandler
	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
}
