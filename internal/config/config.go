package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Ning0612/jutil/internal/domain"
	"github.com/Ning0612/jutil/internal/logger"
)

// Config is the complete jutil configuration
type Config struct {
	GDrive GDriveConfig `mapstructure:"gdrive"`
	Log    LogConfig    `mapstructure:"log"`

	// DataDir holds the run history database and the upload lock
	DataDir string `mapstructure:"data_dir"`
}

// GDriveConfig holds the OAuth client used to reach Google Drive
type GDriveConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	// TokenPath defaults to <data_dir>/gdrive-token.json
	TokenPath string `mapstructure:"token_path"`
}

// LogConfig configures the process logger
type LogConfig struct {
	Level  string        `mapstructure:"level"`
	Format string        `mapstructure:"format"`
	File   LogFileConfig `mapstructure:"file"`
}

// LogFileConfig configures the optional rotating log file
type LogFileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// Validate checks that the configuration is usable. Drive credentials are
// checked separately by RequireGDrive since only some commands need them.
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", domain.ErrConfigInvalid, err)
	}
	if _, err := logger.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("%w: log.format: %v", domain.ErrConfigInvalid, err)
	}
	if c.Log.File.Enabled && c.Log.File.Path == "" {
		return fmt.Errorf("%w: log.file.path is required when file logging is enabled", domain.ErrConfigInvalid)
	}
	if c.Log.File.MaxSizeMB < 0 || c.Log.File.MaxAgeDays < 0 || c.Log.File.MaxBackups < 0 {
		return fmt.Errorf("%w: log.file limits cannot be negative", domain.ErrConfigInvalid)
	}
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir cannot be empty", domain.ErrConfigInvalid)
	}
	return nil
}

// RequireGDrive reports whether Drive OAuth credentials are configured
func (c *Config) RequireGDrive() error {
	if c.GDrive.ClientID == "" || c.GDrive.ClientSecret == "" {
		return fmt.Errorf("%w: gdrive.client_id and gdrive.client_secret are required (or JUTIL_GDRIVE_CLIENT_ID / JUTIL_GDRIVE_CLIENT_SECRET)",
			domain.ErrConfigInvalid)
	}
	return nil
}

// HistoryPath is the sqlite run ledger location
func (c *Config) HistoryPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// LockPath is the upload lock file location
func (c *Config) LockPath() string {
	return filepath.Join(c.DataDir, "upload.lock")
}

// LoggerConfig converts the log section. Console records go to console,
// which is stderr when nil.
func (c *Config) LoggerConfig(console io.Writer) (logger.Config, error) {
	level, err := logger.ParseLevel(c.Log.Level)
	if err != nil {
		return logger.Config{}, err
	}
	format, err := logger.ParseFormat(c.Log.Format)
	if err != nil {
		return logger.Config{}, err
	}

	lc := logger.Config{
		Level:   level,
		Format:  format,
		Outputs: []logger.OutputConfig{{Type: logger.OutputStderr, Writer: console}},
		File: logger.FileConfig{
			Enabled:    c.Log.File.Enabled,
			Path:       c.Log.File.Path,
			MaxSizeMB:  c.Log.File.MaxSizeMB,
			MaxAgeDays: c.Log.File.MaxAgeDays,
			MaxBackups: c.Log.File.MaxBackups,
			Compress:   c.Log.File.Compress,
		},
	}
	if lc.File.Enabled {
		lc.Outputs = append(lc.Outputs, logger.OutputConfig{Type: logger.OutputFile})
	}
	return lc, nil
}

// expandPaths resolves ~ and environment variables in path settings and
// fills path defaults derived from DataDir
func (c *Config) expandPaths() {
	c.DataDir = ExpandPath(c.DataDir)
	if c.GDrive.TokenPath == "" {
		c.GDrive.TokenPath = filepath.Join(c.DataDir, "gdrive-token.json")
	} else {
		c.GDrive.TokenPath = ExpandPath(c.GDrive.TokenPath)
	}
	if c.Log.File.Path != "" {
		c.Log.File.Path = ExpandPath(c.Log.File.Path)
	}
}

// DefaultDataDir is <user config dir>/jutil, or ~/.jutil when the config dir
// is unknown
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "jutil")
	}
	return filepath.Join("~", ".jutil")
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			if len(path) > 1 && (path[1] == '/' || path[1] == filepath.Separator) {
				path = filepath.Join(home, path[2:])
			} else if len(path) == 1 {
				path = home
			}
		}
	}
	path = os.ExpandEnv(path)
	return filepath.Clean(path)
}
