package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// EnvConfigPath names the environment variable that overrides the config file location.
const EnvConfigPath = "CUPS_PDF_CONFIG"

// Title policies accepted by output.title_policy.
const (
	TitlePolicySanitize = "sanitize"
	TitlePolicyPreserve = "preserve"
)

// Inspection modes accepted by inspect.mode.
const (
	InspectOff    = "off"
	InspectWarn   = "warn"
	InspectReject = "reject"
)

// Output describes where and how delivered jobs are written.
type Output struct {
	// Subdir is joined onto the resolved user's home directory.
	Subdir    string `toml:"subdir"`
	Extension string `toml:"extension"`
	// FileMode and DirMode are octal strings such as "0644".
	FileMode      string `toml:"file_mode"`
	DirMode       string `toml:"dir_mode"`
	TitlePolicy   string `toml:"title_policy"`
	FallbackTitle string `toml:"fallback_title"`
	Atomic        bool   `toml:"atomic"`

	fileMode os.FileMode
	dirMode  os.FileMode
}

// FilePerm returns the parsed permission bits for delivered files.
func (o Output) FilePerm() os.FileMode { return o.fileMode }

// DirPerm returns the parsed permission bits for created output directories.
func (o Output) DirPerm() os.FileMode { return o.dirMode }

// Device holds the tokens printed in capability-announcement mode.
type Device struct {
	Scheme      string `toml:"scheme"`
	URI         string `toml:"uri"`
	Name        string `toml:"name"`
	Description string `toml:"description"`
	MakeModel   string `toml:"make_model"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Inspect controls input sniffing before delivery.
type Inspect struct {
	Mode string `toml:"mode"`
}

// Lock configures per-destination advisory locking. An empty Dir disables it.
type Lock struct {
	Dir string `toml:"dir"`
}

// Journal configures the optional SQLite delivery journal.
type Journal struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Config encapsulates all configuration values for the backend.
type Config struct {
	Output  Output  `toml:"output"`
	Device  Device  `toml:"device"`
	Logging Logging `toml:"logging"`
	Inspect Inspect `toml:"inspect"`
	Lock    Lock    `toml:"lock"`
	Journal Journal `toml:"journal"`
}

// DefaultConfigPath returns the config file location honoring CUPS_PDF_CONFIG.
func DefaultConfigPath() string {
	if value := strings.TrimSpace(os.Getenv(EnvConfigPath)); value != "" {
		return value
	}
	return defaultConfigPath
}

// Load locates, parses, and validates a configuration file. An empty path
// falls back to DefaultConfigPath. The boolean reports whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// MustDefault returns normalized defaults. It panics only if the built-in
// defaults themselves are invalid.
func MustDefault() *Config {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		panic(err)
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return &cfg
}

func resolveConfigPath(path string) (string, bool, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultConfigPath()
	}
	cleaned, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", false, fmt.Errorf("resolve config path %q: %w", path, err)
	}
	info, err := os.Stat(cleaned)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cleaned, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", cleaned)
	}
	return cleaned, true, nil
}

// LockingEnabled reports whether deliveries should take a destination lock.
func (c *Config) LockingEnabled() bool {
	return strings.TrimSpace(c.Lock.Dir) != ""
}
