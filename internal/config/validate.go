package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateDevice(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	switch c.Inspect.Mode {
	case InspectOff, InspectWarn, InspectReject:
	default:
		return fmt.Errorf("inspect.mode: unsupported value %q (want off, warn, or reject)", c.Inspect.Mode)
	}
	if c.LockingEnabled() && !filepath.IsAbs(c.Lock.Dir) {
		return fmt.Errorf("lock.dir must be absolute, got %q", c.Lock.Dir)
	}
	if c.Journal.Enabled && !filepath.IsAbs(c.Journal.Path) {
		return fmt.Errorf("journal.path must be absolute, got %q", c.Journal.Path)
	}
	return nil
}

func (c *Config) validateOutput() error {
	subdir := c.Output.Subdir
	if subdir == "" {
		return errors.New("output.subdir must be set")
	}
	if filepath.IsAbs(subdir) || subdir == ".." || strings.HasPrefix(subdir, ".."+string(filepath.Separator)) {
		return fmt.Errorf("output.subdir must stay inside the home directory, got %q", subdir)
	}
	if strings.ContainsRune(c.Output.Extension, filepath.Separator) {
		return fmt.Errorf("output.extension must not contain a path separator, got %q", c.Output.Extension)
	}
	switch c.Output.TitlePolicy {
	case TitlePolicySanitize, TitlePolicyPreserve:
	default:
		return fmt.Errorf("output.title_policy: unsupported value %q (want sanitize or preserve)", c.Output.TitlePolicy)
	}
	if strings.ContainsRune(c.Output.FallbackTitle, filepath.Separator) {
		return fmt.Errorf("output.fallback_title must not contain a path separator, got %q", c.Output.FallbackTitle)
	}
	if c.Output.fileMode&0o600 != 0o600 {
		return fmt.Errorf("output.file_mode %s must keep owner rw", c.Output.FileMode)
	}
	if c.Output.dirMode&0o700 != 0o700 {
		return fmt.Errorf("output.dir_mode %s must keep owner rwx", c.Output.DirMode)
	}
	return nil
}

func (c *Config) validateDevice() error {
	if c.Device.Scheme == "" {
		return errors.New("device.scheme must be set")
	}
	if c.Device.URI == "" {
		return errors.New("device.uri must be set")
	}
	if c.Device.Name == "" {
		return errors.New("device.name must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "cups", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.File != "" && !filepath.IsAbs(c.Logging.File) {
		return fmt.Errorf("logging.file must be absolute, got %q", c.Logging.File)
	}
	return nil
}
