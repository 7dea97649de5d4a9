// Package config handles the configuration directory, config.toml, .env files
// and environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	// AppName is the application directory name.
	AppName = "gtodo"

	// ConfigFile is the optional TOML configuration filename.
	ConfigFile = "config.toml"

	// EnvFile is the optional dotenv filename.
	EnvFile = ".env"

	// OAuthClientFile is the OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename.
	TokenFile = "token.json"
)

// Backend names.
const (
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
	BackendRedis     = "redis"
	BackendMemory    = "memory"
)

const (
	defaultBackend    = BackendFirestore
	defaultCollection = "todos"
	defaultListenAddr = ":8080"
	defaultLogLevel   = "info"
)

// FirestoreConfig selects the Firestore project and credentials.
type FirestoreConfig struct {
	ProjectID       string `toml:"project_id"`
	DatabaseID      string `toml:"database_id"`
	CredentialsFile string `toml:"credentials_file"`
	EmulatorHost    string `toml:"emulator_host"`
}

// PostgresConfig holds the PostgreSQL connection string.
type PostgresConfig struct {
	URL string `toml:"url"`
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string `toml:"-"`

	// Debug enables debug logging.
	Debug bool `toml:"-"`

	// Quiet suppresses informational output.
	Quiet bool `toml:"-"`

	// Backend selects the task store: firestore, postgres, redis or memory.
	Backend string `toml:"backend"`

	// Collection is the collection (table, key prefix) holding tasks.
	Collection string `toml:"collection"`

	// ListenAddr is the HTTP listen address for the web view.
	ListenAddr string `toml:"listen_addr"`

	LogLevel string `toml:"log_level"`
	LogJSON  bool   `toml:"log_json"`

	// SurfaceMutationErrors shows toggle/edit/delete failures on the
	// error banner instead of only logging them.
	SurfaceMutationErrors bool `toml:"surface_mutation_errors"`

	Firestore FirestoreConfig `toml:"firestore"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`

	// Log is the process logger. Set by the dispatcher.
	Log *slog.Logger `toml:"-"`
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/gtodo or $HOME/.config/gtodo.
//
// Settings are layered: defaults, then config.toml, then the environment
// (including .env files, which never override variables already set).
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{
		Dir:        dir,
		Backend:    defaultBackend,
		Collection: defaultCollection,
		ListenAddr: defaultListenAddr,
		LogLevel:   defaultLogLevel,
	}

	if _, err := toml.DecodeFile(cfg.FilePath(), cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("invalid %s: %w", ConfigFile, err)
	}

	loadDotEnv(filepath.Join(dir, EnvFile))
	loadDotEnv(EnvFile)

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	return cfg, nil
}

// loadDotEnv loads a dotenv file if present. Missing files are ignored.
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

func (c *Config) applyEnv() error {
	setString(&c.Backend, "GTODO_BACKEND")
	setString(&c.Collection, "GTODO_COLLECTION")
	setString(&c.ListenAddr, "GTODO_LISTEN_ADDR")
	setString(&c.LogLevel, "GTODO_LOG_LEVEL")
	setString(&c.Firestore.ProjectID, "FIREBASE_PROJECT_ID")
	setString(&c.Firestore.DatabaseID, "FIREBASE_DATABASE_ID")
	setString(&c.Firestore.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	setString(&c.Firestore.EmulatorHost, "FIRESTORE_EMULATOR_HOST")
	setString(&c.Postgres.URL, "DATABASE_URL")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")

	if v := os.Getenv("GTODO_LOG_JSON"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid GTODO_LOG_JSON: %s", v)
		}
		c.LogJSON = b
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid REDIS_DB: %s", v)
		}
		c.Redis.DB = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// Logger returns the configured logger, or one that discards everything.
func (c *Config) Logger() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// CollectionName returns the task collection, defaulting to "todos".
func (c *Config) CollectionName() string {
	if c.Collection == "" {
		return defaultCollection
	}
	return c.Collection
}

// FilePath returns the path to config.toml.
func (c *Config) FilePath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}
