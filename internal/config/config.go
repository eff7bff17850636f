// Package config loads process configuration from environment variables and optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

// Config - runtime settings of both server and client roles, read from environment.
type Config struct {
	BindHost   string `env:"BIND_HOST"`
	ServerHost string `env:"SERVER_HOST,default=localhost" validate:"required"`
	Port       int    `env:"PORT,default=9999" validate:"min=1,max=65535"`

	WriteTimeout   time.Duration `env:"WRITE_TIMEOUT,default=10s" validate:"min=0"`
	MaxLineBytes   int           `env:"MAX_LINE_BYTES,default=65536" validate:"min=1"`
	MaxConnections int           `env:"MAX_CONNECTIONS,default=0" validate:"min=0"`
	LineRate       float64       `env:"LINE_RATE,default=0" validate:"min=0"`
	LineBurst      int           `env:"LINE_BURST,default=1" validate:"min=1"`
	HistoryGreets  int           `env:"HISTORY_GREETS,default=0" validate:"min=0"`

	// OpsAddress - address of HTTP server with metrics, health and WebSocket gateway, empty disables it
	OpsAddress       string        `env:"OPS_ADDRESS" validate:"omitempty,hostname_port"`
	WSAllowedOrigins string        `env:"WS_ALLOWED_ORIGINS"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s" validate:"gt=0"`

	ClientName string `env:"CLIENT_NAME,default=guest" validate:"required"`
	LogLevel   string `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`
}

// Load - reads .env file (if any) and environment, then validates the result.
// Variables which are set in environment already are not overwritten by .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// ListenAddress - TCP address of the chat server.
func (c *Config) ListenAddress() string {
	return net.JoinHostPort(c.BindHost, strconv.Itoa(c.Port))
}

// ServerAddress - TCP address the client connects to.
func (c *Config) ServerAddress() string {
	return net.JoinHostPort(c.ServerHost, strconv.Itoa(c.Port))
}

// AllowedOrigins - list of browser origins allowed to open WebSocket.
func (c *Config) AllowedOrigins() []string {
	origins := lo.Map(strings.Split(c.WSAllowedOrigins, ","), func(origin string, _ int) string {
		return strings.TrimSpace(origin)
	})
	return lo.Compact(origins)
}
