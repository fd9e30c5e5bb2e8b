package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "127.0.0.1",
			Port:         8000,
			RateLimitRPM: 30,
		},
		Storage: StorageConfig{
			DataDir: "~/.tgva",
		},
		Telemetry: TelemetryConfig{
			Protocol:    "grpc",
			ServiceName: "tgva",
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	envStr("TGVA_SERVER_TOKEN", &c.Server.Token)
	envStr("TGVA_TELEGRAM_TOKEN", &c.Telegram.Token)
	envStr("TGVA_GROQ_API_KEY", &c.Providers.Groq.APIKey)
	envStr("TGVA_GEMINI_API_KEY", &c.Providers.Gemini.APIKey)

	envStr("TGVA_HOST", &c.Server.Host)
	if v := os.Getenv("TGVA_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Server.Port = port
		}
	}

	envStr("TGVA_DATA_DIR", &c.Storage.DataDir)
	envStr("TGVA_SESSION_FILE", &c.Telegram.SessionFile)

	envStr("TGVA_TELEMETRY_ENDPOINT", &c.Telemetry.Endpoint)
	envStr("TGVA_TELEMETRY_PROTOCOL", &c.Telemetry.Protocol)
	envStr("TGVA_TELEMETRY_SERVICE_NAME", &c.Telemetry.ServiceName)
	if v := os.Getenv("TGVA_TELEMETRY_ENABLED"); v != "" {
		c.Telemetry.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("TGVA_TELEMETRY_INSECURE"); v != "" {
		c.Telemetry.Insecure = v == "true" || v == "1"
	}
}

// Save writes the config to a JSON file, secrets stripped.
func Save(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// ExpandHome replaces leading ~ with the user home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, _ := os.UserHomeDir()
	if len(path) > 1 && path[1] == '/' {
		return home + path[1:]
	}
	return home
}
