package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/fragments"
	"github.com/sagarc03/fragments/backend"
	"github.com/sagarc03/fragments/database"
	fragmentshttp "github.com/sagarc03/fragments/http"
	"github.com/sagarc03/fragments/keybackend"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for fragments.
type Config struct {
	Env        string                   `mapstructure:"env" validate:"omitempty,oneof=dev development prod production"`
	Server     ServerConfig             `mapstructure:"server"`
	Service    ServiceConfig            `mapstructure:"service"`
	Database   database.Config          `mapstructure:"database"`
	Storage    backend.StorageConfig    `mapstructure:"storage"`
	Conversion ConversionConfig         `mapstructure:"conversion"`
	Auth       AuthConfig               `mapstructure:"auth"`
	CORS       fragmentshttp.CORSConfig `mapstructure:"cors"`
	Log        LogConfig                `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
	// APIURL prefixes Location headers; derived from the request when empty.
	APIURL        string `mapstructure:"api_url" validate:"omitempty,url"`
	MaxUploadSize int64  `mapstructure:"max_upload_size" validate:"min=0"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	CleanupTimeout int    `mapstructure:"cleanup_timeout" validate:"min=1"`
	ListPolicy     string `mapstructure:"list_policy" validate:"required,oneof=soft strict"`
}

// ConversionConfig holds markdown and image conversion options.
type ConversionConfig struct {
	JPEGQuality int  `mapstructure:"jpeg_quality" validate:"min=1,max=100"`
	GFM         bool `mapstructure:"gfm"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	Users keybackend.UsersConfig `mapstructure:"users"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

// Backend returns the storage layout for backend.Open.
func (c *Config) Backend() backend.Config {
	return backend.Config{Database: c.Database, Storage: c.Storage}
}

// ServiceOptions returns the fragments.ServiceConfig for the service section.
func (c *Config) ServiceOptions() (fragments.ServiceConfig, error) {
	policy, err := fragments.ParseListPolicy(c.Service.ListPolicy)
	if err != nil {
		return fragments.ServiceConfig{}, err
	}
	return fragments.ServiceConfig{
		ListPolicy:     policy,
		CleanupTimeout: time.Duration(c.Service.CleanupTimeout) * time.Second,
	}, nil
}

// IsProduction reports whether env selects production logging.
func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":      "database.type",
	"db-dsn":       "database.dsn",
	"storage-type": "storage.type",
	"storage-path": "storage.path",
	"port":         "server.port",
	"api-url":      "server.api_url",
	"log-level":    "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.api_url", "")
	v.SetDefault("server.max_upload_size", 0) // 0 means no limit

	v.SetDefault("service.cleanup_timeout", 30) // seconds
	v.SetDefault("service.list_policy", string(fragments.ListPolicySoftFail))

	v.SetDefault("database.type", "memory")
	v.SetDefault("database.dsn", "fragments.db")
	v.SetDefault("database.tables.meta_data", "fragments")
	v.SetDefault("database.tables.data", "")
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("storage.type", "memory")
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.compress", false)
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.prefix", "")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("storage.s3.use_path_style", false)
	v.SetDefault("storage.s3.create_bucket_if_not_exist", false)

	v.SetDefault("conversion.jpeg_quality", 90)
	v.SetDefault("conversion.gfm", false)

	v.SetDefault("auth.users.file", "")

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	v.SetEnvPrefix("FRAGMENTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		bindFlags(v, flags)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if cfg.Database.Type != "memory" {
		if err := cfg.Database.Tables.Validate(); err != nil {
			return nil, fmt.Errorf("validate config: %w", err)
		}
	}

	return &cfg, nil
}
