package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env      string `env:"APP_ENV" envDefault:"dev"`
	HTTPPort string `env:"HTTP_PORT" envDefault:"8081"`

	// Base URL of the attendance backend that owns all business logic.
	BackendURL     string        `env:"BACKEND_URL" envDefault:"http://127.0.0.1:5000"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"10s"`

	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	StudentCookieName string        `env:"STUDENT_COOKIE_NAME" envDefault:"user"`
	AdminCookieName   string        `env:"ADMIN_COOKIE_NAME" envDefault:"adminUsername"`
	StudentSessionTTL time.Duration `env:"STUDENT_SESSION_TTL" envDefault:"168h"`
	AdminSessionTTL   time.Duration `env:"ADMIN_SESSION_TTL" envDefault:"24h"`

	JWTIssuer     string `env:"JWT_ISSUER" envDefault:"attendance-portal"`
	JWTSigningKey string `env:"JWT_SIGNING_KEY" envDefault:"dev-signing-secret-change"`

	RateLimitPerMin int `env:"RATE_LIMIT_PER_MIN" envDefault:"120"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	LogDir   string `env:"LOG_DIR" envDefault:"./logs"`
	LogLevel int    `env:"LOG_LEVEL" envDefault:"1"`

	PageSize int `env:"PAGE_SIZE" envDefault:"5"`
}

// Load reads .env when present and parses the environment into App.
func Load() (App, error) {
	_ = godotenv.Load(".env")

	var cfg App
	if err := env.Parse(&cfg); err != nil {
		return App{}, err
	}
	return cfg, nil
}
