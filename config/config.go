package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"imchat/models"
)

const (
	// AppDirectoryName is the per-user application data directory name.
	AppDirectoryName = "imchat"
	// DefaultPageSize is the number of messages requested per history page.
	DefaultPageSize = 20
	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"
	// CacheModeEnabled keeps a local SQLite history cache.
	CacheModeEnabled = "enabled"
	// CacheModeDisabled keeps history in memory only.
	CacheModeDisabled = "disabled"
	// configFileName is the persisted configuration file.
	configFileName = "config.json"
)

// Environment variables read by the client.
const (
	EnvDataDir  = "IMCHAT_DATA_DIR"
	EnvSDKAppID = "IMCHAT_SDK_APP_ID"
	EnvUserID   = "IMCHAT_USER_ID"
	EnvUserSig  = "IMCHAT_USER_SIG"
	EnvLogLevel = "IMCHAT_LOG_LEVEL"
)

// ClientConfig contains persistent client settings. Credentials are never
// persisted; UserSig only comes from the environment.
type ClientConfig struct {
	ClientID       string `json:"client_id"`
	SDKAppID       int    `json:"sdk_app_id"`
	UserID         string `json:"user_id"`
	LogLevel       string `json:"log_level"`
	PageSize       int    `json:"page_size"`
	CacheMode      string `json:"cache_mode"`
	MetricsAddress string `json:"metrics_address"`
}

// CacheEnabled reports whether the SQLite history cache should be used.
func (c *ClientConfig) CacheEnabled() bool {
	return c.CacheMode == CacheModeEnabled
}

// ResolveDataDir returns the OS-aware app data directory.
//
// If IMCHAT_DATA_DIR is set, its value is used as an explicit override.
func ResolveDataDir() (string, error) {
	if override := os.Getenv(EnvDataDir); override != "" {
		return override, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		base := os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(base, AppDirectoryName), nil
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", AppDirectoryName), nil
	default:
		base := os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			base = filepath.Join(home, ".config")
		}
		return filepath.Join(base, AppDirectoryName), nil
	}
}

// ConfigPath returns the full path to config.json for a data directory.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, configFileName)
}

// EnsureDataDirectories creates the app data directory if needed.
func EnsureDataDirectories(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return fmt.Errorf("create directory %q: %w", dataDir, err)
	}
	return nil
}

// Load reads and unmarshals config.json from disk.
func Load(path string) (*ClientConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg ClientConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

// Save marshals and writes config.json to disk.
func Save(path string, cfg *ClientConfig) error {
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	raw = append(raw, '\n')
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// LoadOrCreate ensures the data directory and config exist, then returns
// the config, its path and the data directory.
func LoadOrCreate() (*ClientConfig, string, string, error) {
	dataDir, err := ResolveDataDir()
	if err != nil {
		return nil, "", "", err
	}
	if err := EnsureDataDirectories(dataDir); err != nil {
		return nil, "", "", err
	}

	cfgPath := ConfigPath(dataDir)
	cfg, err := Load(cfgPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", "", err
		}

		cfg = defaultConfig()
		if err := Save(cfgPath, cfg); err != nil {
			return nil, "", "", err
		}

		return cfg, cfgPath, dataDir, nil
	}

	if normalizeDefaults(cfg) {
		if err := Save(cfgPath, cfg); err != nil {
			return nil, "", "", err
		}
	}

	return cfg, cfgPath, dataDir, nil
}

// LoginConfig builds provider credentials from cfg and the environment.
// IMCHAT_SDK_APP_ID and IMCHAT_USER_ID override the persisted values;
// IMCHAT_USER_SIG is required.
func LoginConfig(cfg *ClientConfig) (models.LoginConfig, error) {
	login := models.LoginConfig{
		SDKAppID: cfg.SDKAppID,
		UserID:   cfg.UserID,
	}

	if raw := strings.TrimSpace(os.Getenv(EnvSDKAppID)); raw != "" {
		appID, err := strconv.Atoi(raw)
		if err != nil {
			return models.LoginConfig{}, fmt.Errorf("parse %s: %w", EnvSDKAppID, err)
		}
		login.SDKAppID = appID
	}
	if userID := strings.TrimSpace(os.Getenv(EnvUserID)); userID != "" {
		login.UserID = userID
	}
	login.UserSig = strings.TrimSpace(os.Getenv(EnvUserSig))

	if login.SDKAppID <= 0 {
		return models.LoginConfig{}, fmt.Errorf("sdk app id is required (set %s or sdk_app_id)", EnvSDKAppID)
	}
	if login.UserID == "" {
		return models.LoginConfig{}, fmt.Errorf("user id is required (set %s or user_id)", EnvUserID)
	}
	if login.UserSig == "" {
		return models.LoginConfig{}, fmt.Errorf("user signature is required (set %s)", EnvUserSig)
	}

	return login, nil
}

// EffectiveLogLevel returns IMCHAT_LOG_LEVEL when set, otherwise the
// persisted level.
func EffectiveLogLevel(cfg *ClientConfig) string {
	if level := strings.TrimSpace(os.Getenv(EnvLogLevel)); level != "" {
		return level
	}
	return cfg.LogLevel
}

func defaultConfig() *ClientConfig {
	return &ClientConfig{
		ClientID:  uuid.NewString(),
		LogLevel:  DefaultLogLevel,
		PageSize:  DefaultPageSize,
		CacheMode: CacheModeEnabled,
	}
}

func normalizeDefaults(cfg *ClientConfig) bool {
	updated := false

	if cfg.ClientID == "" {
		cfg.ClientID = uuid.NewString()
		updated = true
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
		updated = true
	}

	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
		updated = true
	}

	mode := normalizeCacheMode(cfg.CacheMode)
	if mode == "" {
		mode = CacheModeEnabled
	}
	if cfg.CacheMode != mode {
		cfg.CacheMode = mode
		updated = true
	}

	if cfg.SDKAppID < 0 {
		cfg.SDKAppID = 0
		updated = true
	}

	return updated
}

func normalizeCacheMode(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case CacheModeEnabled:
		return CacheModeEnabled
	case CacheModeDisabled:
		return CacheModeDisabled
	default:
		return ""
	}
}
