package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
)

// EnvironmentConfig describes a single named environment from bowtie.toml.
type EnvironmentConfig struct {
	DatabaseURL string `toml:"database_url"`
	// Dialect overrides connection-string autodetection when a driver
	// can't be inferred from the URL scheme (e.g. a bare SQL Server
	// ADO-style string). One of sqlserver, postgresql, mysql, sqlite.
	Dialect string `toml:"dialect"`
}

// Config is the parsed shape of bowtie.toml.
type Config struct {
	DefaultEnvironment string                       `toml:"default_environment"`
	DatabaseURL        string                       `toml:"database_url"`
	Dialect            string                       `toml:"dialect"`
	Environments       map[string]EnvironmentConfig `toml:"environments"`
	ConfigFilePath     string                       `toml:"-"`
}

// ConfigDir returns the directory bowtie.toml was loaded from.
func (c *Config) ConfigDir() string {
	if c == nil || c.ConfigFilePath == "" {
		return ""
	}
	return filepath.Dir(c.ConfigFilePath)
}

// ProjectDir returns the nearest project boundary (a directory with a
// .git, go.mod or package.json) at or above ConfigDir, falling back to
// ConfigDir itself when no boundary is found.
func (c *Config) ProjectDir() string {
	dir := c.ConfigDir()
	if dir == "" {
		return ""
	}
	root := walkUpward(dir, isProjectRoot)
	if !isProjectRoot(root) {
		return dir
	}
	return root
}

// walkUpward climbs from start toward the filesystem root one directory
// at a time, stopping at and returning the first directory for which
// stop reports true, or the filesystem root if stop never does.
func walkUpward(start string, stop func(dir string) bool) string {
	dir := start
	for {
		if stop(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}

// PrintLoadConfigErrorDetails reports a TOML decode error's exact
// position, for use in tests or CLI error output.
func PrintLoadConfigErrorDetails(err error, t *testing.T) {
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		if t != nil {
			t.Log(derr.String())
			row, col := derr.Position()
			t.Logf("error occurred at row %d, column %d", row, col)
		} else {
			fmt.Println(derr.String())
			row, col := derr.Position()
			fmt.Printf("error occurred at row %d, column %d\n", row, col)
		}
	}
}

// LoadConfig walks up from the working directory looking for
// bowtie.toml, stopping at a project boundary. When no file is found it
// returns an empty Config whose ConfigFilePath is empty.
func LoadConfig() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.ConfigFilePath = configPath
	return &cfg, nil
}

// configFileOverrideEnv, when set to an existing file path, bypasses the
// upward directory search entirely (useful for CI jobs that keep
// bowtie.toml outside the working tree).
const configFileOverrideEnv = "BOWTIE_CONFIG_FILE"

func getConfigPath() (string, error) {
	if override := os.Getenv(configFileOverrideEnv); override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("%s=%q: %w", configFileOverrideEnv, override, err)
		}
		return override, nil
	}

	startDir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	var found string
	walkUpward(startDir, func(dir string) bool {
		configPath := filepath.Join(dir, "bowtie.toml")
		if _, err := os.Stat(configPath); err == nil {
			found = configPath
			return true
		}
		return isProjectRoot(dir)
	})
	return found, nil
}

// isProjectRoot reports whether dir looks like a project root.
func isProjectRoot(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, "package.json")); err == nil {
		return true
	}
	return false
}
