package driven

// SettingsStore provides access to engine settings (transfer concurrency,
// page sizes, callback port range). Implementations handle persistence and
// type conversion.
type SettingsStore interface {
	// GetString retrieves a string setting, empty when absent.
	GetString(key string) string

	// GetInt retrieves an integer setting, 0 when absent.
	GetInt(key string) int

	// GetBool retrieves a boolean setting, false when absent.
	GetBool(key string) bool

	// Set stores a setting and persists it immediately.
	Set(key string, value any) error

	// Path returns the backing file path.
	Path() string
}
