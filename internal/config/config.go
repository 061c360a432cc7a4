package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full broker configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	AI       AIConfig       `mapstructure:"ai"`
	Lab      LabConfig      `mapstructure:"lab"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// AIConfig selects and tunes the analysis provider. An empty Provider
// disables outbound calls and the broker answers with fallbacks only.
type AIConfig struct {
	Provider    string        `mapstructure:"provider"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Region      string        `mapstructure:"region"`
	Profile     string        `mapstructure:"profile"`

	// static Bedrock credentials; empty uses the default AWS chain
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

type LabConfig struct {
	RolePolicy         string        `mapstructure:"role_policy"`
	DefaultLanguage    string        `mapstructure:"default_language"`
	MaxActivePerMentor int           `mapstructure:"max_active_per_mentor"`
	IdleTTL            time.Duration `mapstructure:"idle_ttl"`
	ReapInterval       time.Duration `mapstructure:"reap_interval"`
	ChatHistory        int           `mapstructure:"chat_history"`
	MaxMessageSize     int64         `mapstructure:"max_message_size"`
	SendBuffer         int           `mapstructure:"send_buffer"`
	AuditQueue         int           `mapstructure:"audit_queue"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

const (
	RolePolicyReconnect = "reconnect"
	RolePolicyReject    = "reject"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("database.path", "./data/virtuallab.db")

	v.SetDefault("ai.provider", "")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.timeout", "10s")
	v.SetDefault("ai.temperature", 0.3)
	v.SetDefault("ai.max_tokens", 1024)
	v.SetDefault("ai.region", "us-east-1")
	v.SetDefault("ai.profile", "")
	v.SetDefault("ai.access_key_id", "")
	v.SetDefault("ai.secret_access_key", "")

	v.SetDefault("lab.role_policy", RolePolicyReconnect)
	v.SetDefault("lab.default_language", "javascript")
	v.SetDefault("lab.max_active_per_mentor", 10)
	v.SetDefault("lab.idle_ttl", "2h")
	v.SetDefault("lab.reap_interval", "1m")
	v.SetDefault("lab.chat_history", 50)
	v.SetDefault("lab.max_message_size", 512*1024)
	v.SetDefault("lab.send_buffer", 256)
	v.SetDefault("lab.audit_queue", 1024)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Load reads configuration from an optional YAML file, then overlays
// LAB_* environment variables (LAB_SERVER_PORT, LAB_AI_API_KEY, ...).
// GEMINI_API_KEY is honoured as an alias for ai.api_key.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("ai.api_key", "LAB_AI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// a key without an explicit provider means Gemini
	if cfg.AI.Provider == "" && cfg.AI.APIKey != "" {
		cfg.AI.Provider = "gemini"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the broker cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	switch c.Lab.RolePolicy {
	case RolePolicyReconnect, RolePolicyReject:
	default:
		errs = append(errs, fmt.Errorf("lab.role_policy must be %q or %q, got %q", RolePolicyReconnect, RolePolicyReject, c.Lab.RolePolicy))
	}
	switch c.AI.Provider {
	case "", "gemini", "bedrock":
	default:
		errs = append(errs, fmt.Errorf("unknown ai.provider %q", c.AI.Provider))
	}
	if (c.AI.AccessKeyID == "") != (c.AI.SecretAccessKey == "") {
		errs = append(errs, errors.New("ai.access_key_id and ai.secret_access_key must be set together"))
	}
	if c.AI.Timeout <= 0 {
		errs = append(errs, errors.New("ai.timeout must be positive"))
	}
	if c.Lab.IdleTTL < 0 {
		errs = append(errs, errors.New("lab.idle_ttl must not be negative"))
	}
	if c.Lab.ChatHistory < 0 || c.Lab.SendBuffer <= 0 || c.Lab.AuditQueue <= 0 {
		errs = append(errs, errors.New("lab.chat_history, lab.send_buffer and lab.audit_queue must be sized"))
	}
	return errors.Join(errs...)
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
