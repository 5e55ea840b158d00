package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeOutput(); err != nil {
		return err
	}
	c.normalizeDevice()
	c.normalizeLogging()
	c.Inspect.Mode = strings.ToLower(strings.TrimSpace(c.Inspect.Mode))
	if c.Inspect.Mode == "" {
		c.Inspect.Mode = defaultInspectMode
	}
	if dir := strings.TrimSpace(c.Lock.Dir); dir != "" {
		c.Lock.Dir = filepath.Clean(dir)
	} else {
		c.Lock.Dir = ""
	}
	c.Journal.Path = strings.TrimSpace(c.Journal.Path)
	if c.Journal.Path == "" {
		c.Journal.Path = defaultJournalPath
	}
	c.Journal.Path = filepath.Clean(c.Journal.Path)
	return nil
}

func (c *Config) normalizeOutput() error {
	c.Output.Subdir = strings.TrimSpace(c.Output.Subdir)
	if c.Output.Subdir != "" {
		c.Output.Subdir = filepath.Clean(c.Output.Subdir)
	}

	ext := strings.TrimSpace(c.Output.Extension)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	c.Output.Extension = ext

	c.Output.TitlePolicy = strings.ToLower(strings.TrimSpace(c.Output.TitlePolicy))
	if c.Output.TitlePolicy == "" {
		c.Output.TitlePolicy = defaultTitlePolicy
	}
	c.Output.FallbackTitle = strings.TrimSpace(c.Output.FallbackTitle)
	if c.Output.FallbackTitle == "" {
		c.Output.FallbackTitle = defaultFallbackTitle
	}

	var err error
	if c.Output.fileMode, err = parseMode(c.Output.FileMode, defaultFileMode); err != nil {
		return fmt.Errorf("output.file_mode: %w", err)
	}
	if c.Output.dirMode, err = parseMode(c.Output.DirMode, defaultDirMode); err != nil {
		return fmt.Errorf("output.dir_mode: %w", err)
	}
	return nil
}

func (c *Config) normalizeDevice() {
	c.Device.Scheme = strings.TrimSpace(c.Device.Scheme)
	c.Device.URI = strings.TrimSpace(c.Device.URI)
	c.Device.Name = strings.TrimSpace(c.Device.Name)
	c.Device.Description = strings.TrimSpace(c.Device.Description)
	if c.Device.Description == "" {
		c.Device.Description = c.Device.Name
	}
	c.Device.MakeModel = strings.TrimSpace(c.Device.MakeModel)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
}

func parseMode(value, fallback string) (os.FileMode, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = fallback
	}
	parsed, err := strconv.ParseUint(value, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid octal mode %q", value)
	}
	if parsed&^uint64(os.ModePerm) != 0 {
		return 0, fmt.Errorf("mode %q has bits outside 0777", value)
	}
	return os.FileMode(parsed), nil
}
