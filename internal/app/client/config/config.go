package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerAddress  = "localhost:8080"
	defaultLogLevel       = "info"
	defaultEnv            = "local"
	defaultConfigDir      = ".cashcraft"
	defaultSyncInterval   = 5
	defaultCurrency       = "USD"
	defaultRequestTimeout = 30
)

type Config struct {
	Env              string `mapstructure:"app_env"`
	ServerAddress    string `mapstructure:"server_address"`
	EnableTLS        bool   `mapstructure:"enable_tls"`
	LogLevel         string `mapstructure:"log_level"`
	ConfigDir        string `mapstructure:"config_dir"`
	DatabasePath     string `mapstructure:"database_path"`
	StatePath        string `mapstructure:"state_path"`
	TokenPath        string `mapstructure:"token_path"`
	CachePath        string `mapstructure:"cache_path"`
	LogPath          string `mapstructure:"log_path"`
	SyncInterval     int    `mapstructure:"sync_interval_minutes"`
	DownloadOnTick   bool   `mapstructure:"download_on_tick"`
	OfflineMode      bool   `mapstructure:"offline_mode"`
	OfflineSnapshot  string `mapstructure:"offline_snapshot_path"`
	DefaultCurrency  string `mapstructure:"default_currency"`
	RequestTimeout   int    `mapstructure:"request_timeout_seconds"`
	HealthTimeoutSec int    `mapstructure:"health_timeout_seconds"`
}

// MustLoad загружает конфигурацию клиента
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("Ошибка конфигурации: %v", err))
	}
	return cfg
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = "../.env"
	}
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			fmt.Printf("Ошибка загрузки .env файла: %v\n", err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", defaultEnv)
	v.SetDefault("SERVER_ADDRESS", defaultServerAddress)
	v.SetDefault("ENABLE_TLS", false)
	v.SetDefault("LOG_LEVEL", defaultLogLevel)
	v.SetDefault("CONFIG_DIR", defaultConfigDir)
	v.SetDefault("SYNC_INTERVAL_MINUTES", defaultSyncInterval)
	v.SetDefault("DOWNLOAD_ON_TICK", true)
	v.SetDefault("OFFLINE_MODE", false)
	v.SetDefault("DEFAULT_CURRENCY", defaultCurrency)
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", defaultRequestTimeout)
	v.SetDefault("HEALTH_TIMEOUT_SECONDS", 5)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	configDir := v.GetString("CONFIG_DIR")
	if configDir == defaultConfigDir {
		configDir = filepath.Join(homeDir, configDir)
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("создание директории конфигурации: %w", err)
	}

	inDir := func(key, name string) string {
		if p := v.GetString(key); p != "" {
			return p
		}
		return filepath.Join(configDir, name)
	}

	cfg := &Config{
		Env:              v.GetString("APP_ENV"),
		ServerAddress:    v.GetString("SERVER_ADDRESS"),
		EnableTLS:        v.GetBool("ENABLE_TLS"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		ConfigDir:        configDir,
		DatabasePath:     inDir("DATABASE_PATH", "ledger.db"),
		StatePath:        inDir("STATE_PATH", "state.json"),
		TokenPath:        inDir("TOKEN_PATH", "token"),
		CachePath:        inDir("CACHE_PATH", "pending_download.json"),
		LogPath:          inDir("LOG_PATH", "client.log"),
		SyncInterval:     v.GetInt("SYNC_INTERVAL_MINUTES"),
		DownloadOnTick:   v.GetBool("DOWNLOAD_ON_TICK"),
		OfflineMode:      v.GetBool("OFFLINE_MODE"),
		OfflineSnapshot:  inDir("OFFLINE_SNAPSHOT_PATH", "remote_snapshot.json"),
		DefaultCurrency:  v.GetString("DEFAULT_CURRENCY"),
		RequestTimeout:   v.GetInt("REQUEST_TIMEOUT_SECONDS"),
		HealthTimeoutSec: v.GetInt("HEALTH_TIMEOUT_SECONDS"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ServerAddress == "" && !c.OfflineMode {
		return fmt.Errorf("server_address не может быть пустым")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync_interval_minutes должен быть положительным")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout_seconds должен быть положительным")
	}
	if len(c.DefaultCurrency) != 3 {
		return fmt.Errorf("default_currency должен быть кодом ISO 4217")
	}
	return nil
}

// BaseURL адрес сервера с протоколом
func (c *Config) BaseURL() string {
	if c.EnableTLS {
		return "https://" + c.ServerAddress
	}
	return "http://" + c.ServerAddress
}

func (c *Config) Interval() time.Duration {
	return time.Duration(c.SyncInterval) * time.Minute
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

func (c *Config) HealthTimeout() time.Duration {
	if c.HealthTimeoutSec <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.HealthTimeoutSec) * time.Second
}

// IsProd проверяет, prod ли окружение
func (c *Config) IsProd() bool {
	return c.Env == "prod"
}

// IsLocal проверяет, local ли окружение
func (c *Config) IsLocal() bool {
	return c.Env == "local" || c.Env == ""
}
