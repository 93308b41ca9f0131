package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	Database struct {
		Host     string
		Port     int
		User     string
		Password string
		Name     string // YAML key: "database"
	}
	RabbitMQ struct {
		Host     string
		Port     int
		User     string
		Password string
	}
	Redis struct {
		Host string
		Port int
		DB   int
	}
	Services struct {
		LifecycleServicePort int
		AutopilotServicePort int
	}
	Autopilot struct {
		ScanIntervalSeconds int
		BatchLimit          int
	}
	JWT struct {
		SecretKey string
	}
}

// LoadFromFile loads config from a YAML file, applies defaults, and validates required fields.
func LoadFromFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := parseYAML(file, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// ScanInterval returns the autopilot sweep interval as a duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Autopilot.ScanIntervalSeconds) * time.Second
}

// applyDefaults sets safe defaults for some fields.
func applyDefaults(cfg *Config) {
	// Database
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}

	// RabbitMQ
	if cfg.RabbitMQ.Host == "" {
		cfg.RabbitMQ.Host = "localhost"
	}
	if cfg.RabbitMQ.Port == 0 {
		cfg.RabbitMQ.Port = 5672
	}

	// Redis
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}

	// Services
	if cfg.Services.LifecycleServicePort == 0 {
		cfg.Services.LifecycleServicePort = 3000
	}
	if cfg.Services.AutopilotServicePort == 0 {
		cfg.Services.AutopilotServicePort = 3002
	}

	// Autopilot
	if cfg.Autopilot.ScanIntervalSeconds == 0 {
		cfg.Autopilot.ScanIntervalSeconds = 15
	}
	if cfg.Autopilot.BatchLimit == 0 {
		cfg.Autopilot.BatchLimit = 100
	}

	if cfg.JWT.SecretKey == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			// fallback: time-based bytes
			key = []byte(fmt.Sprintf("%d", time.Now().UnixNano()))
		}
		cfg.JWT.SecretKey = base64.StdEncoding.EncodeToString(key)
	}
}

// validate checks required fields and basic ranges.
func (c *Config) validate() error {
	var problems []string

	// DB
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		problems = append(problems, "database.port must be in 1..65535")
	}
	if c.Database.User == "" {
		problems = append(problems, "database.user is required")
	}
	if c.Database.Password == "" {
		problems = append(problems, "database.password is required")
	}
	if c.Database.Name == "" {
		problems = append(problems, "database.name is required")
	}

	// RabbitMQ
	if c.RabbitMQ.Port <= 0 || c.RabbitMQ.Port > 65535 {
		problems = append(problems, "rabbitmq.port must be in 1..65535")
	}
	if c.RabbitMQ.User == "" {
		problems = append(problems, "rabbitmq.user is required")
	}
	if c.RabbitMQ.Password == "" {
		problems = append(problems, "rabbitmq.password is required")
	}

	// Redis
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		problems = append(problems, "redis.port must be in 1..65535")
	}
	if c.Redis.DB < 0 || c.Redis.DB > 15 {
		problems = append(problems, "redis.db must be in 0..15")
	}

	// Services
	if c.Services.LifecycleServicePort <= 0 || c.Services.LifecycleServicePort > 65535 {
		problems = append(problems, "services.lifecycle_service must be in 1..65535")
	}
	if c.Services.AutopilotServicePort <= 0 || c.Services.AutopilotServicePort > 65535 {
		problems = append(problems, "services.autopilot_service must be in 1..65535")
	}

	// Autopilot
	if c.Autopilot.ScanIntervalSeconds < 1 {
		problems = append(problems, "autopilot.scan_interval_seconds must be >= 1")
	}
	if c.Autopilot.BatchLimit < 1 {
		problems = append(problems, "autopilot.batch_limit must be >= 1")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
