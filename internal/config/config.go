// Package config builds the service configuration from built-in defaults,
// an optional JSON file, the environment (including a .env file) and
// command-line flags, in that order of increasing priority.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every tunable of the service. It is constructed once by New
// and passed explicitly to the components that need it.
type Config struct {
	RunAddr               string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	LogLevel              string        `env:"LOG_LEVEL" validate:"loglevel"`
	DatabaseDSN           string        `env:"DATABASE_DSN"`
	DBFileName            string        `env:"FILE_STORAGE_PATH" validate:"omitempty,filepath"`
	DBConnectionTimeout   time.Duration `env:"DB_CONNECTION_TIMEOUT" validate:"gt=0"`
	TokenSigningSecretKey string        `env:"SECRET_KEY" validate:"required,min=16"`
	TokenTTL              time.Duration `env:"TOKEN_TTL" validate:"gte=0"`
	RedisAddr             string        `env:"REDIS_ADDR" validate:"omitempty,hostname_port"`
	RedisPassword         string        `env:"REDIS_PASSWORD"`
	RedisDB               int           `env:"REDIS_DB" validate:"gte=0"`
	TodosCacheTTL         time.Duration `env:"TODOS_CACHE_TTL" validate:"gte=0"`
	TrustedSubnet         string        `env:"TRUSTED_SUBNET" validate:"omitempty,cidr"`
	StaticDir             string        `env:"STATIC_DIR" validate:"omitempty,dir"`
	ConfigFile            string        `env:"CONFIG"`
}

// fileConfig is the JSON layout of the file named by the CONFIG variable.
// Durations are written as Go duration strings ("10s", "24h"). Absent keys
// keep the value from the defaults.
type fileConfig struct {
	RunAddr               *string `json:"server_address"`
	LogLevel              *string `json:"log_level"`
	DatabaseDSN           *string `json:"database_dsn"`
	DBFileName            *string `json:"file_storage_path"`
	DBConnectionTimeout   *string `json:"db_connection_timeout"`
	TokenSigningSecretKey *string `json:"secret_key"`
	TokenTTL              *string `json:"token_ttl"`
	RedisAddr             *string `json:"redis_addr"`
	RedisPassword         *string `json:"redis_password"`
	RedisDB               *int    `json:"redis_db"`
	TodosCacheTTL         *string `json:"todos_cache_ttl"`
	TrustedSubnet         *string `json:"trusted_subnet"`
	StaticDir             *string `json:"static_dir"`
}

var defaultConfig = Config{
	RunAddr:             ":4000",
	LogLevel:            "info",
	DBConnectionTimeout: 10 * time.Second,
	TokenTTL:            24 * time.Hour,
	TodosCacheTTL:       5 * time.Minute,
}

type initOptions struct {
	disableFlagsParsing bool
	args                []string
}

// InitOption customises New.
type InitOption func(*initOptions)

// WithDisableFlagsParsing makes New ignore the command line.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// WithArgs replaces os.Args[1:] as the source of command-line flags.
func WithArgs(args []string) InitOption {
	return func(options *initOptions) {
		options.args = args
	}
}

// New assembles and validates the configuration.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
		args:                os.Args[1:],
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	_ = godotenv.Load()

	values := &Config{}
	applyDefaults(values, defaultConfig)

	var location struct {
		ConfigFile string `env:"CONFIG"`
	}
	if err := env.Parse(&location); err != nil {
		return nil, fmt.Errorf("in internal/config/config.go/New(): error while `env.Parse()` calling: %w", err)
	}

	if location.ConfigFile != "" {
		if err := applyFile(values, location.ConfigFile); err != nil {
			return nil, err
		}
	}

	// Variables that are not set leave the fields untouched, so an explicit
	// zero such as TOKEN_TTL=0s still wins over the defaults and the file.
	if err := env.Parse(values); err != nil {
		return nil, fmt.Errorf("in internal/config/config.go/New(): error while `env.Parse()` calling: %w", err)
	}

	if !options.disableFlagsParsing {
		if err := values.parseFlags(options.args); err != nil {
			return nil, err
		}
	}

	if err := values.validate(); err != nil {
		return nil, err
	}

	return values, nil
}

func (c *Config) parseFlags(args []string) error {
	flags := flag.NewFlagSet("todolist", flag.ContinueOnError)
	flags.StringVar(&c.RunAddr, "a", c.RunAddr, "address and port to run server")
	flags.StringVar(&c.LogLevel, "l", c.LogLevel, "logger level")
	flags.StringVar(&c.DatabaseDSN, "d", c.DatabaseDSN, "A string with the database connection details")
	flags.StringVar(&c.DBFileName, "f", c.DBFileName, "JSON file name with database")
	flags.StringVar(&c.TokenSigningSecretKey, "s", c.TokenSigningSecretKey, "secret key used to sign tokens")
	flags.StringVar(&c.RedisAddr, "r", c.RedisAddr, "redis address used to cache todo lists")
	flags.StringVar(&c.TrustedSubnet, "t", c.TrustedSubnet, "CIDR allowed to read internal stats and metrics")

	return flags.Parse(args)
}

func applyDefaults(values *Config, defaults Config) {
	*values = defaults
}

func applyFile(dst *Config, fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return fmt.Errorf("in internal/config/config.go/applyFile(): error while `os.ReadFile()` calling: %w", err)
	}

	var raw fileConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("in internal/config/config.go/applyFile(): error while `json.Unmarshal()` calling: %w", err)
	}

	texts := []struct {
		raw *string
		dst *string
	}{
		{raw.RunAddr, &dst.RunAddr},
		{raw.LogLevel, &dst.LogLevel},
		{raw.DatabaseDSN, &dst.DatabaseDSN},
		{raw.DBFileName, &dst.DBFileName},
		{raw.TokenSigningSecretKey, &dst.TokenSigningSecretKey},
		{raw.RedisAddr, &dst.RedisAddr},
		{raw.RedisPassword, &dst.RedisPassword},
		{raw.TrustedSubnet, &dst.TrustedSubnet},
		{raw.StaticDir, &dst.StaticDir},
	}
	for _, text := range texts {
		if text.raw != nil {
			*text.dst = *text.raw
		}
	}

	if raw.RedisDB != nil {
		dst.RedisDB = *raw.RedisDB
	}

	durations := []struct {
		raw *string
		dst *time.Duration
	}{
		{raw.DBConnectionTimeout, &dst.DBConnectionTimeout},
		{raw.TokenTTL, &dst.TokenTTL},
		{raw.TodosCacheTTL, &dst.TodosCacheTTL},
	}
	for _, d := range durations {
		if d.raw == nil {
			continue
		}
		parsed, err := time.ParseDuration(*d.raw)
		if err != nil {
			return fmt.Errorf("in internal/config/config.go/applyFile(): error while `time.ParseDuration()` calling: %w", err)
		}
		*d.dst = parsed
	}

	return nil
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[value]
}

func (c *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("filepath", validateFilePath)
	if err != nil {
		return err
	}

	return validate.Struct(c)
}
