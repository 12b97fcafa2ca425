package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAPIURL           = "http://127.0.0.1:7877"
	DefaultDBFileName       = "packreg.db"
	DefaultLogLevel         = "info"
	DefaultMetadataTimezone = "utc"

	configDirEnvKey = "PACKREG_CONFIG_DIR"
	configFileName  = ".packreg.toml"
)

// Config defines runtime configuration for packreg.
type Config struct {
	APIURL           string `toml:"api_url"`
	DBPath           string `toml:"db_path"`
	BlobRoot         string `toml:"blob_root"`
	ProjectsPath     string `toml:"projects_path"`
	LogLevel         string `toml:"log_level"`
	MetadataTimezone string `toml:"metadata_timezone"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:           DefaultAPIURL,
		LogLevel:         DefaultLogLevel,
		MetadataTimezone: DefaultMetadataTimezone,
	}
}

var allowedKeys = []string{
	"api_url",
	"db_path",
	"blob_root",
	"projects_path",
	"log_level",
	"metadata_timezone",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "db_path":
		return c.DBPath, nil
	case "blob_root":
		return c.BlobRoot, nil
	case "projects_path":
		return c.ProjectsPath, nil
	case "log_level":
		return c.LogLevel, nil
	case "metadata_timezone":
		return c.MetadataTimezone, nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// MetadataLocation resolves the configured lastUpdated timestamp zone.
// "utc" is the default; "local" matches servers that want wall-clock
// timestamps in synthesized metadata.
func (c *Config) MetadataLocation() (*time.Location, error) {
	switch strings.ToLower(strings.TrimSpace(c.MetadataTimezone)) {
	case "", "utc":
		return time.UTC, nil
	case "local":
		return time.Local, nil
	default:
		return nil, fmt.Errorf("metadata_timezone must be utc or local, got %q", c.MetadataTimezone)
	}
}

// GlobalPath returns the path to the config file.
func GlobalPath() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(configDirEnvKey)); dir != "" {
		return filepath.Join(dir, configFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}
	data[key] = strings.TrimSpace(value)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(data)
}

// Load reads config from the config file and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	path, err := GlobalPath()
	if err == nil {
		if info, statErr := os.Stat(path); statErr == nil && !info.IsDir() {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		} else if statErr != nil && !os.IsNotExist(statErr) {
			return nil, statErr
		}
	}

	if apiURL := os.Getenv("PACKREG_API_URL"); apiURL != "" {
		cfg.APIURL = apiURL
	}
	if dbPath := os.Getenv("PACKREG_DB"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if blobRoot := os.Getenv("PACKREG_BLOB_ROOT"); blobRoot != "" {
		cfg.BlobRoot = blobRoot
	}
	if projectsPath := os.Getenv("PACKREG_PROJECTS"); projectsPath != "" {
		cfg.ProjectsPath = projectsPath
	}

	if cfg.DBPath == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfg.DBPath = filepath.Join(cwd, DefaultDBFileName)
		}
	}
	if cfg.BlobRoot == "" {
		cfg.BlobRoot = filepath.Join(filepath.Dir(cfg.DBPath), "blobs")
	}
	if cfg.ProjectsPath == "" {
		cfg.ProjectsPath = filepath.Join(filepath.Dir(cfg.DBPath), "projects.yaml")
	}

	return &cfg, nil
}
