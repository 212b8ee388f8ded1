package config

import (
	"os"
	"strconv"
	"time"
)

const (
	DefaultPort                  = 8080
	DefaultAccessTokenTTLMin     = 15
	DefaultRefreshTokenTTLDays   = 7
	DefaultVerificationTTLMin    = 1440
	DefaultCookieSameSite        = "None"
	DefaultPrivateKeyPath        = "keys/jwt_private.pem"
	DefaultPublicKeyPath         = "keys/jwt_public.pem"
	DefaultVerificationURL       = "http://localhost:8080/auth/verify"
	DefaultMailFrom              = "no-reply@coffeeapi.local"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Mail     MailConfig
}

type ServerConfig struct {
	Env         string
	Host        string
	Port        int
	LogLevel    string
	LogFormat   string
	CorsOrigins string
}

type DatabaseConfig struct {
	URL string
}

type AuthConfig struct {
	// PEM files holding the RS256 key pair. Loaded once at startup;
	// a missing or unreadable key is fatal.
	PrivateKeyPath string
	PublicKeyPath  string

	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	VerificationTokenTTL time.Duration

	// RequireVerified rejects logins from accounts that have not
	// confirmed their email address.
	RequireVerified bool

	CookieSecure   bool
	CookieSameSite string
	CookieDomain   string

	// VerificationURL is the base link embedded in verification emails.
	VerificationURL string
}

type MailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Env:         getEnv("APP_ENV", "development"),
			Host:        getEnv("HOST", "0.0.0.0"),
			Port:        getEnvInt("PORT", DefaultPort),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "json"),
			CorsOrigins: getEnv("CORS_ORIGINS", "http://localhost:8000"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Auth: AuthConfig{
			PrivateKeyPath:       getEnv("JWT_PRIVATE_KEY_PATH", DefaultPrivateKeyPath),
			PublicKeyPath:        getEnv("JWT_PUBLIC_KEY_PATH", DefaultPublicKeyPath),
			AccessTokenTTL:       time.Duration(getEnvInt("ACCESS_TOKEN_TTL_MINUTES", DefaultAccessTokenTTLMin)) * time.Minute,
			RefreshTokenTTL:      time.Duration(getEnvInt("REFRESH_TOKEN_TTL_DAYS", DefaultRefreshTokenTTLDays)) * 24 * time.Hour,
			VerificationTokenTTL: time.Duration(getEnvInt("VERIFICATION_TOKEN_TTL_MINUTES", DefaultVerificationTTLMin)) * time.Minute,
			RequireVerified:      getEnvBool("AUTH_REQUIRE_VERIFIED", false),
			CookieSecure:         getEnvBool("COOKIE_SECURE", true),
			CookieSameSite:       getEnv("COOKIE_SAMESITE", DefaultCookieSameSite),
			CookieDomain:         getEnv("COOKIE_DOMAIN", ""),
			VerificationURL:      getEnv("VERIFICATION_URL", DefaultVerificationURL),
		},
		Mail: MailConfig{
			Enabled:  getEnvBool("MAIL_ENABLED", false),
			Host:     getEnv("MAIL_HOST", ""),
			Port:     getEnvInt("MAIL_PORT", 587),
			Username: getEnv("MAIL_USERNAME", ""),
			Password: getEnv("MAIL_PASSWORD", ""),
			From:     getEnv("MAIL_FROM", DefaultMailFrom),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
