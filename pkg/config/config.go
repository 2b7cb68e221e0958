package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig
	Engagement EngagementConfig
	Claude     ClaudeConfig
	Panel      PanelConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
}

// EngagementConfig holds the tunables of the aggregation window and the
// escalation state machine.
type EngagementConfig struct {
	WindowSeconds     int           `envconfig:"WINDOW_SECONDS" default:"300"`
	KeepWindow        time.Duration `envconfig:"KEEP_WINDOW" default:"15m"`
	NudgeCooldown     time.Duration `envconfig:"NUDGE_COOLDOWN" default:"240s"`
	NudgeThreshold    int           `envconfig:"NUDGE_THRESHOLD" default:"3"`
	LookAwayThreshold int           `envconfig:"LOOKAWAY_THRESHOLD" default:"3"`
	GracePeriod       time.Duration `envconfig:"GRACE_PERIOD" default:"60s"`
	TickInterval      time.Duration `envconfig:"TICK_INTERVAL" default:"60s"`
	SchedulerEnabled  bool          `envconfig:"SCHEDULER_ENABLED" default:"true"`
	MaterialTTL       time.Duration `envconfig:"MATERIAL_TTL" default:"4h"`
	HistoryLimit      int           `envconfig:"HISTORY_LIMIT" default:"50"`
	TranscriptLimit   int           `envconfig:"TRANSCRIPT_LIMIT" default:"100"`
	NudgeLogLimit     int           `envconfig:"NUDGE_LOG_LIMIT" default:"20"`
}

// ClaudeConfig holds Claude API configuration
type ClaudeConfig struct {
	APIKey  string        `envconfig:"CLAUDE_API_KEY"`
	BaseURL string        `envconfig:"CLAUDE_API_URL" default:"https://api.anthropic.com"`
	Model   string        `envconfig:"CLAUDE_MODEL" default:"claude-3-haiku-20240307"`
	Timeout time.Duration `envconfig:"AGENT_TIMEOUT" default:"30s"`
}

// PanelConfig holds panel token configuration
type PanelConfig struct {
	TokenSecret string        `envconfig:"PANEL_TOKEN_SECRET" default:"change-me-in-production"`
	TokenExpiry time.Duration `envconfig:"PANEL_TOKEN_EXPIRY" default:"4h"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Engagement.WindowSeconds <= 0 {
		return fmt.Errorf("WINDOW_SECONDS must be positive")
	}
	if c.Engagement.NudgeThreshold <= 0 {
		return fmt.Errorf("NUDGE_THRESHOLD must be positive")
	}
	if c.Engagement.LookAwayThreshold <= 0 {
		return fmt.Errorf("LOOKAWAY_THRESHOLD must be positive")
	}
	if c.Server.Environment == "production" && c.Panel.TokenSecret == "change-me-in-production" {
		return fmt.Errorf("PANEL_TOKEN_SECRET must be set in production")
	}
	return nil
}

// Window returns the aggregation window as a duration.
func (c *EngagementConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// GetAddr returns the listen address.
func (c *Config) GetAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
