// ABOUTME: Configuration loading and parsing for courier
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete courier configuration
type Config struct {
	Relay   RelayConfig   `yaml:"relay"`
	Discord DiscordConfig `yaml:"discord"`
	HTTP    HTTPConfig    `yaml:"http"`
	Logging LoggingConfig `yaml:"logging"`
}

// RelayConfig holds relay behavior configuration
type RelayConfig struct {
	OwnerID       string `yaml:"owner_id"`
	CommandPrefix string `yaml:"command_prefix"`

	InvitePromptTimeout time.Duration `yaml:"-"`
	RejectNoticeTTL     time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	InvitePromptTimeoutRaw string `yaml:"invite_prompt_timeout"`
	RejectNoticeTTLRaw     string `yaml:"reject_notice_ttl"`
}

// DiscordConfig holds Discord connection configuration
type DiscordConfig struct {
	Token        string `yaml:"token"`
	Status       string `yaml:"status"`        // online, idle, dnd, invisible
	ActivityType string `yaml:"activity_type"` // playing, listening, watching, competing
	ActivityName string `yaml:"activity_name"`
}

// HTTPConfig holds the keepalive HTTP endpoint configuration
type HTTPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded, "enc:" values
// are decrypted, duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.decryptSecrets(); err != nil {
		return nil, fmt.Errorf("decrypting secrets: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// ResolvePath returns the first existing config file location, checking the
// COURIER_CONFIG environment variable, then the current directory, then the
// user config directory.
func ResolvePath() (string, error) {
	if p := os.Getenv("COURIER_CONFIG"); p != "" {
		return p, nil
	}

	candidates := []string{"config.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, home+"/.config/courier/config.yaml")
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no config file found (set COURIER_CONFIG or create config.yaml)")
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// decryptSecrets replaces "enc:"-prefixed values with their decrypted form.
func (c *Config) decryptSecrets() error {
	if !strings.HasPrefix(c.Discord.Token, encPrefix) {
		return nil
	}

	plain, err := DecryptValue(c.Discord.Token, os.Getenv("COURIER_KEY"))
	if err != nil {
		return fmt.Errorf("discord.token: %w", err)
	}
	c.Discord.Token = plain
	return nil
}

func (c *Config) applyDefaults() {
	if c.Relay.CommandPrefix == "" {
		c.Relay.CommandPrefix = "!"
	}
	if c.Relay.InvitePromptTimeout == 0 {
		c.Relay.InvitePromptTimeout = 60 * time.Second
	}
	if c.Relay.RejectNoticeTTL == 0 {
		c.Relay.RejectNoticeTTL = 5 * time.Second
	}
	if c.Discord.Status == "" {
		c.Discord.Status = "online"
	}
	if c.HTTP.Enabled && c.HTTP.Addr == "" {
		c.HTTP.Addr = "0.0.0.0:8080"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Relay.OwnerID == "" {
		return fmt.Errorf("relay.owner_id is required")
	}
	if c.Discord.Token == "" {
		return fmt.Errorf("discord.token is required")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json (got %q)", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Relay.InvitePromptTimeoutRaw != "" {
		cfg.Relay.InvitePromptTimeout, err = time.ParseDuration(cfg.Relay.InvitePromptTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing invite_prompt_timeout %q: %w", cfg.Relay.InvitePromptTimeoutRaw, err)
		}
	}

	if cfg.Relay.RejectNoticeTTLRaw != "" {
		cfg.Relay.RejectNoticeTTL, err = time.ParseDuration(cfg.Relay.RejectNoticeTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing reject_notice_ttl %q: %w", cfg.Relay.RejectNoticeTTLRaw, err)
		}
	}

	return nil
}
