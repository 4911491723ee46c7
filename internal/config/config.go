// Package config содержит логику чтения конфигурации сервиса PawConnect.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса PawConnect.
type Config struct {
	RunAddress     string        `env:"RUN_ADDRESS"`
	DatabaseURI    string        `env:"DATABASE_URI"`
	JWTSecret      string        `env:"JWT_SECRET"`
	TokenTTL       time.Duration `env:"TOKEN_TTL"`
	DBMaxConns     int32         `env:"DATABASE_MAX_CONNS"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Значения переменных окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envJWTSecret := cfg.JWTSecret
	envTokenTTL := cfg.TokenTTL
	envDBMaxConns := cfg.DBMaxConns
	envRequestTimeout := cfg.RequestTimeout

	var maxConns int
	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.JWTSecret, "s", "pawconnect-secret", "secret key for signing access tokens")
	flag.DurationVar(&cfg.TokenTTL, "t", 24*time.Hour, "access token time to live")
	flag.IntVar(&maxConns, "c", 10, "maximum database connections")
	flag.DurationVar(&cfg.RequestTimeout, "r", 15*time.Second, "per-request processing timeout")

	flag.Parse()

	cfg.DBMaxConns = int32(maxConns)

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envJWTSecret != "" {
		cfg.JWTSecret = envJWTSecret
	}
	if envTokenTTL != 0 {
		cfg.TokenTTL = envTokenTTL
	}
	if envDBMaxConns != 0 {
		cfg.DBMaxConns = envDBMaxConns
	}
	if envRequestTimeout != 0 {
		cfg.RequestTimeout = envRequestTimeout
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.DBMaxConns <= 0 {
		cfg.DBMaxConns = 10
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}

	return cfg, nil
}
