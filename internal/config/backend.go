package config

// ConfigBackend is where non-secret config keys live between runs: macOS
// UserDefaults (via the `defaults` CLI) or an XDG JSON file elsewhere.
// Secrets never pass through it; they stay in the platform secret store.
type ConfigBackend interface {
	GetString(key string) (val string, ok bool, err error)
	GetInt(key string) (val int, ok bool, err error)
	SetString(key, val string) error
	SetInt(key string, val int) error
	Delete(key string) error
}
