package common

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Env      string `env:"APP_ENV" envDefault:"production"`
	Database DatabaseConfig
	Server   ServerConfig
	Gmail    GmailConfig
	Extract  ExtractConfig
	Output   OutputConfig
	Queue    QueueConfig
	Log      LogConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string        `env:"DB_DRIVER" envDefault:"postgres"` // postgres | sqlite
	DSN              string        `env:"DB_URL"`
	MaxConns         int32         `env:"DB_MAX_CONNS" envDefault:"20"`
	MinConns         int32         `env:"DB_MIN_CONNS" envDefault:"5"`
	MaxConnLifetime  time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"30m"`
	MaxConnIdleTime  time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	DialTimeout      time.Duration `env:"DB_DIAL_TIMEOUT" envDefault:"3s"`
	StatementTimeout time.Duration `env:"DB_STATEMENT_TIMEOUT" envDefault:"0s"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr         string `env:"GRPC_ADDR" envDefault:":8080"`
	MaxDocumentBytes int    `env:"MAX_DOCUMENT_BYTES" envDefault:"4194304"`
}

// GmailConfig holds the OAuth client and stored token used to read the mailbox.
type GmailConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURI  string `env:"REDIRECT_URI"`
	AccessToken  string `env:"ACCESS_TOKEN"`
	RefreshToken string `env:"REFRESH_TOKEN"`
	Scope        string `env:"SCOPE"`
	TokenType    string `env:"TOKEN_TYPE" envDefault:"Bearer"`
	ExpiryMillis int64  `env:"EXPIRY_DATE"`
	UserID       string `env:"GMAIL_USER_ID" envDefault:"me"`
	Query        string `env:"GMAIL_QUERY"`
	Endpoint     string `env:"GMAIL_ENDPOINT"`
}

// ExtractConfig holds extraction engine settings.
type ExtractConfig struct {
	// IDKey namespaces content-derived ids; changing it invalidates stored ids.
	IDKey       string `env:"ID_NAMESPACE_KEY"`
	SkipBadRows bool   `env:"SKIP_BAD_ROWS" envDefault:"false"`
}

// OutputConfig controls the JSON dump of every extraction.
type OutputConfig struct {
	JSONDir string `env:"JSON_OUT_DIR"`
}

// QueueConfig sizes the extraction worker pool.
type QueueConfig struct {
	Workers        int           `env:"QUEUE_WORKERS" envDefault:"4"`
	Size           int           `env:"QUEUE_SIZE" envDefault:"256"`
	ProcessTimeout time.Duration `env:"QUEUE_PROCESS_TIMEOUT" envDefault:"1m"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	Format     string `env:"LOG_FORMAT" envDefault:"text"`   // text | json
	Output     string `env:"LOG_OUTPUT" envDefault:"stdout"` // stdout | file | both
	File       string `env:"LOG_FILE" envDefault:"./logs/order-extractor.log"`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"50"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"28"`
	Compress   bool   `env:"LOG_COMPRESS" envDefault:"true"`
}

// IsDevelopment reports whether APP_ENV is development.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// LoadConfig loads configuration from environment variables. In development a .env file
// in the working directory (or the given files) is loaded first; values already present
// in the environment win.
func LoadConfig(files ...string) (*Config, error) {
	if os.Getenv("APP_ENV") == "development" {
		if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, NewAppError("CONFIG_ERROR", "parse environment", err)
	}
	return cfg, nil
}

// ValidateDatabase checks the settings needed to open the store.
func (c *Config) ValidateDatabase() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" {
			return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
		}
	case "sqlite":
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unsupported DB_DRIVER %q", c.Database.Driver), ErrInvalidInput)
	}
	return nil
}

// ValidateGmail checks the settings needed to read the mailbox.
func (c *Config) ValidateGmail() error {
	if c.Gmail.ClientID == "" || c.Gmail.ClientSecret == "" {
		return NewAppError("CONFIG_ERROR", "CLIENT_ID and CLIENT_SECRET are required", ErrInvalidInput)
	}
	if c.Gmail.AccessToken == "" && c.Gmail.RefreshToken == "" {
		return NewAppError("CONFIG_ERROR", "ACCESS_TOKEN or REFRESH_TOKEN is required", ErrInvalidInput)
	}
	return nil
}

// ValidateServer checks the settings needed to serve gRPC.
func (c *Config) ValidateServer() error {
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	return nil
}
