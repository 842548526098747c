package config

import (
	"crafthost/internal/logger"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultConfigName   = "config.json"
	defaultServerDir    = "server"
	defaultDatabaseFile = "crafthost.db"
	envPrefix           = "CRAFTHOST"
)

type CatalogConfig struct {
	BaseURL string `mapstructure:"base_url" json:"base_url" default:"https://api.papermc.io/v2"`
	Project string `mapstructure:"project" json:"project" default:"paper"`
}

// RuntimeConfig filters the runtime index. Empty OS or Arch means the host's.
type RuntimeConfig struct {
	APIURL    string `mapstructure:"api_url" json:"api_url" default:"https://api.adoptium.net"`
	ImageType string `mapstructure:"image_type" json:"image_type" default:"jdk"`
	Vendor    string `mapstructure:"vendor" json:"vendor" default:"eclipse"`
	OS        string `mapstructure:"os" json:"os"`
	Arch      string `mapstructure:"arch" json:"arch"`
}

type MemoryConfig struct {
	MinMB int `mapstructure:"min_mb" json:"min_mb" default:"1024"`
	MaxMB int `mapstructure:"max_mb" json:"max_mb" default:"4096"`
}

type Config struct {
	ServerDir    string        `mapstructure:"server_dir" json:"server_dir"`
	DatabasePath string        `mapstructure:"database_path" json:"database_path"`
	Port         int           `mapstructure:"port" json:"port" default:"25565"`
	Catalog      CatalogConfig `mapstructure:"catalog" json:"catalog"`
	Runtime      RuntimeConfig `mapstructure:"runtime" json:"runtime"`
	Memory       MemoryConfig  `mapstructure:"memory" json:"memory"`
	Log          logger.Config `mapstructure:"log" json:"log"`

	path string
}

// DefaultDir is crafthost's directory under the user config dir.
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("error resolving user config dir: %w", err)
	}
	return filepath.Join(dir, "crafthost"), nil
}

// LoadConfig reads configDir/config.json, writing it with defaults on first
// run. A .env file in the working directory and CRAFTHOST_* variables
// override the file (CRAFTHOST_MEMORY_MAX_MB -> memory.max_mb).
func LoadConfig(configDir string) (*Config, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, err
	}

	_ = godotenv.Load(".env")

	v := viper.New()
	bindValues(v, Config{}, "")
	v.SetDefault("server_dir", filepath.Join(configDir, defaultServerDir))
	v.SetDefault("database_path", filepath.Join(configDir, defaultDatabaseFile))

	configPath := filepath.Join(configDir, defaultConfigName)

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := createDefaultConfig(v, configPath); err != nil {
			return nil, err
		}
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", configPath, err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.path = configPath

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func createDefaultConfig(v *viper.Viper, configPath string) error {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return err
	}
	cfg.path = configPath
	return cfg.Save()
}

func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration back to the file it was loaded from.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.New("config has no file path")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Memory.MinMB <= 0 || c.Memory.MaxMB <= 0 {
		return fmt.Errorf("memory bounds must be positive (min=%d, max=%d)", c.Memory.MinMB, c.Memory.MaxMB)
	}
	if c.Memory.MinMB > c.Memory.MaxMB {
		return fmt.Errorf("memory.min_mb %d exceeds memory.max_mb %d", c.Memory.MinMB, c.Memory.MaxMB)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.ServerDir == "" {
		return errors.New("server_dir must not be empty")
	}
	return nil
}

// bindValues registers every mapstructure key with its `default` tag so
// AutomaticEnv can resolve nested keys.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		v.SetDefault(key, field.Tag.Get("default"))
	}
}
