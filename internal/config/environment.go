package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultEnvironmentName = "local"
	defaultDatabaseURL     = "sqlite://bowtie.db"
)

// ResolvedEnvironment is a fully-resolved environment: a concrete
// connection string and, when it could be determined, the dialect to
// open it with.
type ResolvedEnvironment struct {
	Name              string
	DatabaseURL       string
	Dialect           string
	DotenvPath        string
	FromConfig        bool
	FromDotenv        bool
	ResolvedConfigDir string
}

// ResolveEnvironment resolves the named environment (or the config's
// default, or "local") into a connection string, layering a
// ".env.<name>" file over bowtie.toml: the TOML value is the base,
// DATABASE_URL/DIALECT in the dotenv file win when present.
func ResolveEnvironment(cfg *Config, name string) (*ResolvedEnvironment, error) {
	envName := strings.TrimSpace(name)
	if envName == "" {
		if cfg != nil && cfg.DefaultEnvironment != "" {
			envName = cfg.DefaultEnvironment
		} else {
			envName = defaultEnvironmentName
		}
	}

	var (
		envConfig EnvironmentConfig
		envExists bool
	)
	if cfg != nil && cfg.Environments != nil {
		if e, ok := cfg.Environments[envName]; ok {
			envConfig = e
			envExists = true
		}
	}

	resolved := &ResolvedEnvironment{Name: envName}

	if cfg != nil {
		resolved.ResolvedConfigDir = cfg.ConfigDir()
		if cfg.DatabaseURL != "" && envConfig.DatabaseURL == "" {
			envConfig.DatabaseURL = cfg.DatabaseURL
		}
		if cfg.Dialect != "" && envConfig.Dialect == "" {
			envConfig.Dialect = cfg.Dialect
		}
	}

	resolved.DatabaseURL = envConfig.DatabaseURL
	resolved.Dialect = envConfig.Dialect
	if envExists {
		resolved.FromConfig = true
	}

	var baseDir, projectDir string
	if cfg != nil {
		baseDir = cfg.ConfigDir()
		projectDir = cfg.ProjectDir()
	} else if cwd, err := os.Getwd(); err == nil {
		baseDir = cwd
	}

	dotenvFileName := ".env." + envName
	if baseDir != "" {
		resolved.DotenvPath = filepath.Join(baseDir, dotenvFileName)
	} else {
		resolved.DotenvPath = dotenvFileName
	}

	if _, err := os.Stat(resolved.DotenvPath); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing %s: %w", resolved.DotenvPath, err)
		}
		if projectDir != "" && projectDir != baseDir {
			if altPath := filepath.Join(projectDir, dotenvFileName); fileExists(altPath) {
				resolved.DotenvPath = altPath
			}
		}
	}

	if fileExists(resolved.DotenvPath) {
		values, err := godotenv.Read(resolved.DotenvPath)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", resolved.DotenvPath, err)
		}
		resolved.FromDotenv = true
		if v := values["DATABASE_URL"]; v != "" {
			resolved.DatabaseURL = v
		}
		if v := values["DIALECT"]; v != "" {
			resolved.Dialect = v
		}
	}

	if resolved.DatabaseURL == "" {
		resolved.DatabaseURL = defaultDatabaseURL
	}

	if cfg != nil && len(cfg.Environments) > 0 && !envExists && !resolved.FromDotenv {
		return nil, fmt.Errorf("environment %q not defined in bowtie.toml and %s not found", envName, resolved.DotenvPath)
	}

	return resolved, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
