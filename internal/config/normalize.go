package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeMerge()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryDBPath) == "" {
		c.Paths.HistoryDBPath = defaultHistoryDBPath
	}
	if c.Paths.HistoryDBPath, err = expandPath(c.Paths.HistoryDBPath); err != nil {
		return fmt.Errorf("paths.history_db_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
}

func (c *Config) normalizeMerge() {
	c.Merge.PreferredLanguage = strings.ToLower(strings.TrimSpace(c.Merge.PreferredLanguage))
	if c.Merge.PreferredLanguage == "" {
		c.Merge.PreferredLanguage = defaultPreferredLanguage
	}
	c.Merge.AutoSelectLanguage = strings.ToLower(strings.TrimSpace(c.Merge.AutoSelectLanguage))
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
}
