// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, duration parsing, and defaults

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
relay:
  owner_id: "123456789"
  command_prefix: "!"
  invite_prompt_timeout: "90s"
  reject_notice_ttl: "10s"

discord:
  token: "bot-token"
  status: "idle"
  activity_type: "watching"
  activity_name: "your DMs"

http:
  enabled: true
  addr: "127.0.0.1:9090"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Relay.OwnerID != "123456789" {
		t.Errorf("Relay.OwnerID = %q, want %q", cfg.Relay.OwnerID, "123456789")
	}
	if cfg.Relay.InvitePromptTimeout != 90*time.Second {
		t.Errorf("Relay.InvitePromptTimeout = %v, want 90s", cfg.Relay.InvitePromptTimeout)
	}
	if cfg.Relay.RejectNoticeTTL != 10*time.Second {
		t.Errorf("Relay.RejectNoticeTTL = %v, want 10s", cfg.Relay.RejectNoticeTTL)
	}
	if cfg.Discord.Token != "bot-token" {
		t.Errorf("Discord.Token = %q, want %q", cfg.Discord.Token, "bot-token")
	}
	if cfg.Discord.Status != "idle" {
		t.Errorf("Discord.Status = %q, want %q", cfg.Discord.Status, "idle")
	}
	if !cfg.HTTP.Enabled || cfg.HTTP.Addr != "127.0.0.1:9090" {
		t.Errorf("HTTP = %+v, want enabled on 127.0.0.1:9090", cfg.HTTP)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want debug/json", cfg.Logging)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
relay:
  owner_id: "123456789"

discord:
  token: "bot-token"

http:
  enabled: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Relay.CommandPrefix != "!" {
		t.Errorf("Relay.CommandPrefix = %q, want %q", cfg.Relay.CommandPrefix, "!")
	}
	if cfg.Relay.InvitePromptTimeout != 60*time.Second {
		t.Errorf("Relay.InvitePromptTimeout = %v, want 60s", cfg.Relay.InvitePromptTimeout)
	}
	if cfg.Relay.RejectNoticeTTL != 5*time.Second {
		t.Errorf("Relay.RejectNoticeTTL = %v, want 5s", cfg.Relay.RejectNoticeTTL)
	}
	if cfg.Discord.Status != "online" {
		t.Errorf("Discord.Status = %q, want %q", cfg.Discord.Status, "online")
	}
	if cfg.HTTP.Addr != "0.0.0.0:8080" {
		t.Errorf("HTTP.Addr = %q, want %q", cfg.HTTP.Addr, "0.0.0.0:8080")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v, want info/text", cfg.Logging)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("COURIER_TEST_TOKEN", "expanded-token")
	t.Setenv("COURIER_TEST_OWNER", "987654321")

	path := writeConfig(t, `
relay:
  owner_id: "${COURIER_TEST_OWNER}"

discord:
  token: "${COURIER_TEST_TOKEN}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Discord.Token != "expanded-token" {
		t.Errorf("Discord.Token = %q, want %q", cfg.Discord.Token, "expanded-token")
	}
	if cfg.Relay.OwnerID != "987654321" {
		t.Errorf("Relay.OwnerID = %q, want %q", cfg.Relay.OwnerID, "987654321")
	}
}

func TestLoad_MissingOwner(t *testing.T) {
	path := writeConfig(t, `
discord:
  token: "bot-token"
`)

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "owner_id") {
		t.Errorf("Load() error = %v, want owner_id validation failure", err)
	}
}

func TestLoad_MissingToken(t *testing.T) {
	path := writeConfig(t, `
relay:
  owner_id: "123456789"
`)

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "discord.token") {
		t.Errorf("Load() error = %v, want discord.token validation failure", err)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, `
relay:
  owner_id: "123456789"
  invite_prompt_timeout: "soon"

discord:
  token: "bot-token"
`)

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "invite_prompt_timeout") {
		t.Errorf("Load() error = %v, want duration parse failure", err)
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	path := writeConfig(t, `
relay:
  owner_id: "123456789"

discord:
  token: "bot-token"

logging:
  level: "verbose"
`)

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "logging.level") {
		t.Errorf("Load() error = %v, want logging.level validation failure", err)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestResolvePath_EnvOverride(t *testing.T) {
	t.Setenv("COURIER_CONFIG", "/etc/courier/custom.yaml")

	path, err := ResolvePath()
	if err != nil {
		t.Fatalf("ResolvePath() error = %v", err)
	}
	if path != "/etc/courier/custom.yaml" {
		t.Errorf("ResolvePath() = %q, want env override", path)
	}
}
