// Package config holds the runtime configuration for the voice assistant:
// a JSON5 file overlaid with TGVA_* environment variables. Secrets come
// from the environment and are never written back to disk.
package config

import (
	"net"
	"strconv"
	"sync"
)

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Telegram  TelegramConfig  `json:"telegram"`
	Providers ProvidersConfig `json:"providers"`
	Storage   StorageConfig   `json:"storage"`
	Telemetry TelemetryConfig `json:"telemetry,omitempty"`
	mu        sync.RWMutex
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Token        string `json:"-"` // from env TGVA_SERVER_TOKEN only
	RateLimitRPM int    `json:"rate_limit_rpm"`
}

// TelegramConfig configures the delivery client.
type TelegramConfig struct {
	Token       string `json:"-"` // from env TGVA_TELEGRAM_TOKEN only
	SessionFile string `json:"session_file,omitempty"`
}

// ProvidersConfig holds the grammar-correction provider credentials.
// Groq is preferred; Gemini is the fallback when Groq has no key.
type ProvidersConfig struct {
	Groq   ProviderConfig `json:"groq,omitempty"`
	Gemini ProviderConfig `json:"gemini,omitempty"`
}

// ProviderConfig is one provider's credentials and endpoint override.
type ProviderConfig struct {
	APIKey  string `json:"-"` // from env only
	APIBase string `json:"api_base,omitempty"`
}

// StorageConfig configures on-disk state.
type StorageConfig struct {
	DataDir      string `json:"data_dir"`
	ContactsFile string `json:"contacts_file,omitempty"` // default <data_dir>/contacts.json
	HistoryFile  string `json:"history_file,omitempty"`  // default <data_dir>/history.db
}

// TelemetryConfig configures optional OTLP trace export.
type TelemetryConfig struct {
	Enabled     bool              `json:"enabled,omitempty"`
	Endpoint    string            `json:"endpoint,omitempty"`     // e.g. "localhost:4317"
	Protocol    string            `json:"protocol,omitempty"`     // "grpc" (default) or "http"
	Insecure    bool              `json:"insecure,omitempty"`
	ServiceName string            `json:"service_name,omitempty"` // default "tgva"
	Headers     map[string]string `json:"headers,omitempty"`
}

// Update replaces the config's contents in place so holders of the
// pointer observe the new values.
func (c *Config) Update(next *Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Server = next.Server
	c.Telegram = next.Telegram
	c.Providers = next.Providers
	c.Storage = next.Storage
	c.Telemetry = next.Telemetry
}

// ListenAddr returns the HTTP API host:port.
func (c *Config) ListenAddr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// APIToken returns the bearer token protecting the HTTP API, "" when
// authentication is disabled.
func (c *Config) APIToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Server.Token
}

// ContactsPath returns the expanded contacts file path.
func (c *Config) ContactsPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Storage.ContactsFile != "" {
		return ExpandHome(c.Storage.ContactsFile)
	}
	return ExpandHome(c.Storage.DataDir) + "/contacts.json"
}

// HistoryPath returns the expanded history database path.
func (c *Config) HistoryPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Storage.HistoryFile != "" {
		return ExpandHome(c.Storage.HistoryFile)
	}
	return ExpandHome(c.Storage.DataDir) + "/history.db"
}

// SessionPath returns the expanded Telegram session file path.
func (c *Config) SessionPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Telegram.SessionFile != "" {
		return ExpandHome(c.Telegram.SessionFile)
	}
	return ExpandHome(c.Storage.DataDir) + "/telegram_session.json"
}

// MaskedCopy returns a deep copy with all secret fields masked, for
// exposing config over the API without leaking credentials.
func (c *Config) MaskedCopy() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cp := &Config{
		Server:    c.Server,
		Telegram:  c.Telegram,
		Providers: c.Providers,
		Storage:   c.Storage,
		Telemetry: c.Telemetry,
	}
	if len(c.Telemetry.Headers) > 0 {
		cp.Telemetry.Headers = make(map[string]string, len(c.Telemetry.Headers))
		for k, v := range c.Telemetry.Headers {
			cp.Telemetry.Headers[k] = v
		}
	}

	maskNonEmpty(&cp.Server.Token)
	maskNonEmpty(&cp.Telegram.Token)
	maskNonEmpty(&cp.Providers.Groq.APIKey)
	maskNonEmpty(&cp.Providers.Gemini.APIKey)
	return cp
}

// StripSecrets zeros all secret fields so they never persist in the
// config file.
func (c *Config) StripSecrets() {
	c.Server.Token = ""
	c.Telegram.Token = ""
	c.Providers.Groq.APIKey = ""
	c.Providers.Gemini.APIKey = ""
}

const secretMask = "***"

func maskNonEmpty(s *string) {
	if *s != "" {
		*s = secretMask
	}
}
