package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all salescast configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Auth       AuthConfig       `toml:"auth"`
	Server     ServerConfig     `toml:"server"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig selects the record store and forecast horizon.
type GeneralConfig struct {
	Backend     string `toml:"backend"`
	DataFile    string `toml:"data_file"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	DatabaseURL string `toml:"database_url,omitempty"`
	Horizon     int    `toml:"horizon"`
}

// AuthConfig holds login and token settings.
type AuthConfig struct {
	Users         map[string]string `toml:"users,omitempty"`
	JWTSecret     string            `toml:"jwt_secret,omitempty"`
	SessionKey    string            `toml:"session_key,omitempty"`
	TokenTTLHours int               `toml:"token_ttl_hours"`
}

// ServerConfig holds HTTP dashboard settings.
type ServerConfig struct {
	Addr          string `toml:"addr"`
	SecureCookies bool   `toml:"secure_cookies"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Backend:  "csv",
			DataFile: "sales_data.csv",
			Horizon:  7,
		},
		Auth: AuthConfig{
			TokenTTLHours: 72,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8501",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "salescast")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "salescast")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory for embedded databases.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "salescast")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "salescast")
}

// LoadFrom reads the config file at path, returning defaults if it doesn't
// exist. Environment overrides are applied on top.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, ApplyEnv(&cfg)
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, ApplyEnv(&cfg)
}

// LoadDotEnv loads a .env file from the working directory if present.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	return godotenv.Load()
}

// ApplyEnv overlays SALESCAST_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv("SALESCAST_BACKEND"); v != "" {
		cfg.General.Backend = v
	}
	if v := os.Getenv("SALESCAST_DATA_FILE"); v != "" {
		cfg.General.DataFile = v
	}
	if v := os.Getenv("SALESCAST_DATABASE_URL"); v != "" {
		cfg.General.DatabaseURL = v
	}
	if v := os.Getenv("SALESCAST_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("SALESCAST_SESSION_KEY"); v != "" {
		cfg.Auth.SessionKey = v
	}
	if v := os.Getenv("SALESCAST_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("SALESCAST_HORIZON"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("SALESCAST_HORIZON: want a positive integer, got %q", v)
		}
		cfg.General.Horizon = n
	}
	return nil
}

// ResolvedSQLitePath returns the SQLite database path, defaulting to the
// data directory.
func (c Config) ResolvedSQLitePath() string {
	if c.General.SQLitePath != "" {
		return c.General.SQLitePath
	}
	return filepath.Join(DataDir(), "salescast.db")
}

// SaveTo writes the config to path with owner-only permissions.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// ExistsAt returns true if a config file exists at path.
func ExistsAt(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
