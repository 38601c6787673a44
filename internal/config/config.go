package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".guacc"
	envPrefix  = "GUACC"

	ProfilesPathKey   = "profiles.path"
	SecretsPathKey    = "secrets.path"
	SecretsBackendKey = "secrets.backend"
	CacheTTLKey       = "cache.ttl"
	CacheCapacityKey  = "cache.capacity"
	HTTPTimeoutKey    = "http.timeout"
	AuthRetriesKey    = "auth.retries"
	LogLevelKey       = "log.level"
	DefaultProfileKey = "profile"

	SecretsBackendAuto = "auto"
	SecretsBackendPass = "pass"
	SecretsBackendFile = "file"
)

type Config struct {
	ProfilesPath   string
	SecretsPath    string
	SecretsBackend string
	CacheTTL       time.Duration
	CacheCapacity  uint64
	HTTPTimeout    time.Duration
	AuthRetries    uint
	LogLevel       string
	DefaultProfile string
}

// Load reads ~/.guacc/config.toml when present and layers GUACC_* environment
// variables over it.
func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}
	baseDir := filepath.Join(homeDir, configDir)

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(baseDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(ProfilesPathKey, filepath.Join(baseDir, "profiles.toml"))
	v.SetDefault(SecretsPathKey, filepath.Join(baseDir, "secrets"))
	v.SetDefault(SecretsBackendKey, SecretsBackendAuto)
	v.SetDefault(CacheTTLKey, 5*time.Minute)
	v.SetDefault(CacheCapacityKey, 256)
	v.SetDefault(HTTPTimeoutKey, 30*time.Second)
	v.SetDefault(AuthRetriesKey, 3)
	v.SetDefault(LogLevelKey, "info")
	v.SetDefault(DefaultProfileKey, "default")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		ProfilesPath:   v.GetString(ProfilesPathKey),
		SecretsPath:    v.GetString(SecretsPathKey),
		SecretsBackend: strings.ToLower(v.GetString(SecretsBackendKey)),
		CacheTTL:       v.GetDuration(CacheTTLKey),
		CacheCapacity:  v.GetUint64(CacheCapacityKey),
		HTTPTimeout:    v.GetDuration(HTTPTimeoutKey),
		AuthRetries:    v.GetUint(AuthRetriesKey),
		LogLevel:       v.GetString(LogLevelKey),
		DefaultProfile: v.GetString(DefaultProfileKey),
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.ProfilesPath == "" {
		return errors.New("profiles path is empty")
	}
	if c.SecretsPath == "" {
		return errors.New("secrets path is empty")
	}
	switch c.SecretsBackend {
	case SecretsBackendAuto, SecretsBackendPass, SecretsBackendFile:
	default:
		return fmt.Errorf("unknown secrets backend %q (want auto, pass or file)", c.SecretsBackend)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %s", c.CacheTTL)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got %s", c.HTTPTimeout)
	}
	if c.AuthRetries == 0 {
		return errors.New("auth retries must be at least 1")
	}
	return nil
}
