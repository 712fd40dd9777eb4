// Package config handles configuration loading for courier.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from COURIER_CONFIG environment variable
//  2. ./config.yaml (current directory)
//  3. ~/.config/courier/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	discord:
//	  token: "${DISCORD_TOKEN}"
//
// Syntax: ${VAR_NAME}
//
// # Encrypted Values
//
// Values prefixed with "enc:" are decrypted at load time using the key from
// the COURIER_KEY environment variable:
//
//	discord:
//	  token: "enc:bXkgc2VjcmV0IHRva2Vu..."
//
// The payload is base64, AES-256-CBC, IV prepended. COURIER_KEY is either a
// url-safe base64 encoding of a 32-byte key or an arbitrary passphrase, which
// is stretched with PBKDF2-SHA256.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	relay:
//	  invite_prompt_timeout: "60s"
//	  reject_notice_ttl: "5s"
//
// # Configuration Sections
//
// Relay settings:
//
//	relay:
//	  owner_id: "123456789"
//	  command_prefix: "!"
//	  invite_prompt_timeout: "60s"
//	  reject_notice_ttl: "5s"
//
// Discord connection:
//
//	discord:
//	  token: "${DISCORD_TOKEN}"
//	  status: "online"
//	  activity_type: "watching"
//	  activity_name: "your DMs"
//
// Keepalive HTTP endpoint:
//
//	http:
//	  enabled: true
//	  addr: "0.0.0.0:8080"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
