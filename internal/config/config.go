package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr     string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath       string     `env:"DB_PATH" envDefault:"data/studio.db"`
	LogLevel     slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir       string     `env:"SPA_DIR" envDefault:"../web/dist"`
	CORSOrigins  []string   `env:"CORS_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
	CookieSecure bool       `env:"COOKIE_SECURE" envDefault:"false"`

	RedisURL string `env:"REDIS_URL"`
	NATSURL  string `env:"NATS_URL"`

	Auth  AuthConfig
	Mail  MailConfig
	Stage StageConfig
}

type AuthConfig struct {
	DevMode     bool          `env:"AUTH_DEV_MODE" envDefault:"false"`
	DevFakeOTP  string        `env:"DEV_FAKE_OTP" envDefault:"4242"`
	CodeLength  int           `env:"OTP_LENGTH" envDefault:"4"`
	CodeTTL     time.Duration `env:"OTP_TTL" envDefault:"10m"`
	MaxAttempts int           `env:"OTP_MAX_ATTEMPTS" envDefault:"5"`
	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	JWTSecret   string        `env:"JWT_SECRET" envDefault:"dev-only-secret-change-in-prod"`
}

type MailConfig struct {
	MailerSendKey string `env:"MAILERSEND_API_KEY"`
	From          string `env:"MAIL_FROM" envDefault:"noreply@studio.local"`
	FromName      string `env:"MAIL_FROM_NAME" envDefault:"Studio"`
	SMTPHost      string `env:"SMTP_HOST"`
	SMTPPort      int    `env:"SMTP_PORT" envDefault:"1025"`
	SMTPUser      string `env:"SMTP_USER"`
	SMTPPass      string `env:"SMTP_PASS"`
	SMTPUseTLS    bool   `env:"SMTP_USE_TLS" envDefault:"false"`
}

// StageConfig holds the simulated processing delays of the registration wizard.
type StageConfig struct {
	StageDelay  time.Duration `env:"STAGE_DELAY" envDefault:"500ms"`
	SubmitDelay time.Duration `env:"SUBMIT_DELAY" envDefault:"2s"`
}

// Load reads an optional .env file and then the process environment.
// Values already present in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.Auth.CodeLength < 1 {
		return nil, fmt.Errorf("OTP_LENGTH must be positive, got %d", cfg.Auth.CodeLength)
	}
	return &cfg, nil
}
