package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/coffeeapi/backend/internal/database"
	"github.com/coffeeapi/backend/internal/di"
	"github.com/coffeeapi/backend/internal/server"
)

func main() {
	_ = godotenv.Load()

	app, cleanup, err := di.InitializeApplication()
	if err != nil {
		panic(err)
	}
	defer cleanup()

	app.Logger.Info("Starting Coffee Auth API", "version", di.Version, "env", app.Config.Server.Env)

	migrationsPath := getMigrationsPath()
	if err := database.RunMigrations(app.DB, migrationsPath, app.Logger); err != nil {
		app.Logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	fiberApp := app.Server.App()

	app.HealthHandler.Register(fiberApp)

	fiberApp.Use("/auth", server.AuthRateLimiter())
	app.AuthHandler.Register(fiberApp)

	app.UserHandler.Register(fiberApp, app.AuthMiddleware.Require(), app.AuthMiddleware.RequireAdmin())

	go func() {
		if err := app.Server.Start(); err != nil {
			app.Logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if err := app.Server.Shutdown(); err != nil {
		app.Logger.Error("Server forced to shutdown", "error", err)
	}

	app.Logger.Info("Server stopped")
}

func getMigrationsPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return "migrations"
	}

	execDir := filepath.Dir(execPath)

	possiblePaths := []string{
		filepath.Join(execDir, "migrations"),
		filepath.Join(execDir, "..", "..", "migrations"),
		"migrations",
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "migrations"
}
