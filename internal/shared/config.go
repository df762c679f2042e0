package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Downloads   DownloadsConfig   `toml:"downloads"`
	Search      SearchConfig      `toml:"search"`
	Logging     LoggingConfig     `toml:"logging"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	YouTube YouTubeConfig `toml:"youtube"`
}

// SpotifyConfig contains Spotify client-credentials settings.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	TokenURL     string `toml:"token_url"`
	APIBaseURL   string `toml:"api_base_url"`
}

// YouTubeConfig contains YouTube Data API credentials.
type YouTubeConfig struct {
	APIKey string `toml:"api_key"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// DownloadsConfig controls where files land and how the extractor is invoked.
type DownloadsConfig struct {
	Root         string `toml:"root"`
	FolderName   string `toml:"folder_name"`
	LogFile      string `toml:"log_file"`
	Concurrency  int    `toml:"concurrency"`
	YtDlpPath    string `toml:"ytdlp_path"`
	CoverMaxSize int    `toml:"cover_max_size"`
}

// SearchConfig contains search backend settings.
type SearchConfig struct {
	RateLimit float64 `toml:"rate_limit"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// Environment variables that override the config file.
const (
	EnvClientID        = "CLIENT_ID"
	EnvClientSecret    = "CLIENT_SECRET"
	EnvAPIKey          = "API_KEY"
	EnvPort            = "PORT"
	EnvDownloadsFolder = "DOWNLOADS_FOLDER_NAME"
	EnvDownloadsRoot   = "SPOTDL_DOWNLOADS_ROOT"
	EnvYtDlpPath       = "YTDLP_PATH"
)

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, fs.ErrExist)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ResolveConfig loads the config file at path when it exists and falls back to defaults otherwise.
//
// Environment overrides are applied in both cases.
func ResolveConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}
	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadEnv loads .env files into the process environment without overwriting variables that are already set.
//
// With no paths it reads ".env" from the working directory, and a missing file is not an error.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		return nil
	}
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("%w: failed to load env file: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ApplyEnv overrides config values with any matching environment variables.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvClientID); ok && v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v, ok := os.LookupEnv(EnvClientSecret); ok && v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v, ok := os.LookupEnv(EnvAPIKey); ok {
		c.Credentials.YouTube.APIKey = v
	}
	if v, ok := os.LookupEnv(EnvDownloadsFolder); ok && v != "" {
		c.Downloads.FolderName = v
	}
	if v, ok := os.LookupEnv(EnvDownloadsRoot); ok && v != "" {
		c.Downloads.Root = v
	}
	if v, ok := os.LookupEnv(EnvYtDlpPath); ok && v != "" {
		c.Downloads.YtDlpPath = v
	}
	if v, ok := os.LookupEnv(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("%w: %s=%q is not a valid port", ErrInvalidConfig, EnvPort, v)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks that the credentials needed to reach the catalog are present.
func (c *Config) Validate() error {
	if c.Credentials.Spotify.ClientID == "" || c.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: %s and %s are required", ErrMissingCredentials, EnvClientID, EnvClientSecret)
	}
	return nil
}

// DownloadsDir returns the directory audio files are written to.
//
// An empty root resolves to ~/Desktop.
func (c *Config) DownloadsDir() (string, error) {
	root := c.Downloads.Root
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		root = filepath.Join(home, "Desktop")
	}
	folder := c.Downloads.FolderName
	if folder == "" {
		folder = "SpotifyDownloads"
	}
	return filepath.Join(root, folder), nil
}

// FailureLogPath returns the path of the append-only failure log inside the downloads directory.
func (c *Config) FailureLogPath() (string, error) {
	dir, err := c.DownloadsDir()
	if err != nil {
		return "", err
	}
	name := c.Downloads.LogFile
	if name == "" {
		name = "failed_downloads.txt"
	}
	return filepath.Join(dir, name), nil
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
