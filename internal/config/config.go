// Package config loads storefront settings from an optional YAML file and
// STOREFRONT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "STOREFRONT_"

// Config is the full runtime configuration.
type Config struct {
	Storage Storage `mapstructure:"storage" envPrefix:"STORAGE_"`
	Cart    Cart    `mapstructure:"cart"    envPrefix:"CART_"`
	Admin   Admin   `mapstructure:"admin"   envPrefix:"ADMIN_"`
	Log     Log     `mapstructure:"log"     envPrefix:"LOG_"`
	Metrics Metrics `mapstructure:"metrics" envPrefix:"METRICS_"`
}

// Storage selects and parameterises the key/value backend.
type Storage struct {
	Driver      string `mapstructure:"driver"       env:"DRIVER"`
	FSRoot      string `mapstructure:"fs_root"      env:"FS_ROOT"`
	SQLitePath  string `mapstructure:"sqlite_path"  env:"SQLITE_PATH"`
	PostgresDSN string `mapstructure:"postgres_dsn" env:"POSTGRES_DSN"`
	S3          S3     `mapstructure:"s3"           envPrefix:"S3_"`
}

// S3 holds bucket settings for the s3 driver.
type S3 struct {
	Bucket          string `mapstructure:"bucket"            env:"BUCKET"`
	Region          string `mapstructure:"region"            env:"REGION"`
	Prefix          string `mapstructure:"prefix"            env:"PREFIX"`
	Endpoint        string `mapstructure:"endpoint"          env:"ENDPOINT"`
	AccessKeyID     string `mapstructure:"access_key_id"     env:"ACCESS_KEY_ID"`
	SecretAccessKey string `mapstructure:"secret_access_key" env:"SECRET_ACCESS_KEY"`
	SessionToken    string `mapstructure:"session_token"     env:"SESSION_TOKEN"`
	PathStyle       bool   `mapstructure:"path_style"        env:"PATH_STYLE"`
}

// Cart configures the cart store.
type Cart struct {
	Key string `mapstructure:"key" env:"KEY"`
}

// Admin configures the admin request store. Persistence is opt-in.
type Admin struct {
	Persist   bool   `mapstructure:"persist"    env:"PERSIST"`
	KeyPrefix string `mapstructure:"key_prefix" env:"KEY_PREFIX"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `mapstructure:"level"  env:"LEVEL"`
	Format string `mapstructure:"format" env:"FORMAT"`
}

// Metrics configures the Prometheus recorder.
type Metrics struct {
	Namespace string `mapstructure:"namespace" env:"NAMESPACE"`
}

var drivers = map[string]struct{}{
	"memory": {}, "fs": {}, "sqlite": {}, "postgres": {}, "s3": {},
}

// Default returns the configuration used when neither file nor environment
// set a value.
func Default() Config {
	return Config{
		Storage: Storage{Driver: "fs", FSRoot: "./kvdata", SQLitePath: "storefront.db"},
		Cart:    Cart{Key: "cart"},
		Admin:   Admin{KeyPrefix: "admin"},
		Log:     Log{Level: "info", Format: "text"},
		Metrics: Metrics{Namespace: "storefront"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.fs_root", d.Storage.FSRoot)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "")
	v.SetDefault("storage.s3.prefix", "")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.path_style", false)
	v.SetDefault("cart.key", d.Cart.Key)
	v.SetDefault("admin.persist", d.Admin.Persist)
	v.SetDefault("admin.key_prefix", d.Admin.KeyPrefix)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
}

// Load reads path (YAML, optional when empty) on top of the defaults and then
// applies STOREFRONT_* environment overrides.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config to struct: %w", err)
	}
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv overlays STOREFRONT_* variables onto target. Unset variables leave
// existing values alone.
func ParseEnv(target *Config) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate rejects unknown drivers, log levels and log formats.
func (c Config) Validate() error {
	var errs []error
	if _, ok := drivers[c.Storage.Driver]; !ok {
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	if c.Storage.Driver == "s3" && c.Storage.S3.Bucket == "" {
		errs = append(errs, errors.New("storage.s3.bucket required for s3 driver"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if strings.TrimSpace(c.Cart.Key) == "" {
		errs = append(errs, errors.New("cart.key must not be empty"))
	}
	return errors.Join(errs...)
}

// ParseLevel maps a level name onto slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", name)
	}
	return lvl, nil
}
