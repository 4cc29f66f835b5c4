// Package config loads application configuration from the platform-native
// backend with environment variable overrides, and manages the API bearer
// token in the platform secret store.
package config

import (
	"strings"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Catalog CatalogConfig
	Weather WeatherConfig
	Planner PlannerConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port    int
	MCPPort int
}

type StorageConfig struct {
	DataDir string
}

type CatalogConfig struct {
	// EmbeddingDim is the expected embedding vector width for imported
	// catalogs. Garments with a different width degrade to attribute-only.
	EmbeddingDim int
}

type WeatherConfig struct {
	// APIKey enables the live WeatherAPI client. Empty key falls back to
	// the simulated provider.
	APIKey string
	City   string
}

type PlannerConfig struct {
	TopK              int
	SearchBudget      int
	Parallelism       int
	RelaxationPenalty float64
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:    4600,
			MCPPort: 4601,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Catalog: CatalogConfig{
			EmbeddingDim: 512,
		},
		Planner: PlannerConfig{
			TopK:              3,
			SearchBudget:      8,
			Parallelism:       4,
			RelaxationPenalty: 0.15,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and the platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.attire.app) and secrets
// fall back to macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/attire/config.json
// and secrets live in a data-dir secrets file.
//
// Environment variables (ATTIRE_*) override backend values on all
// platforms. A missing weather API key is not an error: the simulated
// weather provider covers for it.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts secret-store access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// Try the platform secret store for the weather key if still empty.
	if cfg.Weather.APIKey == "" {
		if key, err := kc.Get(secretService, "weather_api_key"); err == nil && key != "" {
			cfg.Weather.APIKey = key
		}
	}

	return cfg, nil
}

const secretService = "attire"

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainGet(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
