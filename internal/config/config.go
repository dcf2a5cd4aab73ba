package config

import (
	"fmt"
	"strings"
)

type Config struct {
	Server  ServerConfig
	Upstage UpstageConfig
	Storage StorageConfig
	Log     LogConfig
	Mock    bool
}

type ServerConfig struct {
	Port int
}

type UpstageConfig struct {
	APIKey    string
	BaseURL   string
	ChatModel string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4000,
		},
		Upstage: UpstageConfig{
			BaseURL:   "https://api.upstage.ai/v1",
			ChatModel: "solar-pro2",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.polnav.app) and the API
// key falls back to macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/polnav/config.json
// and the API key falls back to $XDG_DATA_HOME/polnav/secrets.json.
//
// Environment variables (POLNAV_*, UPSTAGE_*) override backend values on all
// platforms.
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

	// Try the platform secret store for the API key if still empty.
	if cfg.Upstage.APIKey == "" {
		if key, err := kc.Get("polnav", "upstage_api_key"); err == nil && key != "" {
			cfg.Upstage.APIKey = key
		}
	}

	// Mock mode runs entirely offline; no credentials needed.
	if cfg.Upstage.APIKey == "" && !cfg.Mock {
		msg := "missing required config: Upstage API key. " +
			"Set it via environment variable UPSTAGE_API_KEY" +
			apiKeyHint()
		return Config{}, fmt.Errorf("%s", msg)
	}

	return cfg, nil
}

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainExec(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
