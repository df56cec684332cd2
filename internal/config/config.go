// Package config holds the CLI settings and loads them in layers:
// defaults, then a YAML file, then the environment. Flags are applied last
// by the command itself.
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/caybokotze/bulk-blob-storage-deletion/bdtypes"
	"github.com/caybokotze/bulk-blob-storage-deletion/errors"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/validation"
)

// Backend names.
const (
	BackendAzure = "azure"
	BackendS3    = "s3"
	BackendMinio = "minio"
)

const (
	// EnvPrefix prefixes every environment variable read by ApplyEnv.
	EnvPrefix = "BLOB_"

	DefaultLogLevel = "warn"
	DefaultEnvFile  = ".env"
)

// Storage selects the backend and how to reach it.
type Storage = bdtypes.StorageConfig

// Config holds all settings of a run.
type Config struct {
	Storage                Storage `yaml:"storage"`
	ConnectionStringSecret string  `yaml:"connectionStringSecret"`
	SecretsRegion          string  `yaml:"secretsRegion"`
	Container              string  `yaml:"container"`
	ConcurrencyLimit       int     `yaml:"threadCountLimit" validate:"min=1"`
	DryRun                 bool    `yaml:"dryRun"`
	AssumeYes              bool    `yaml:"yes"`
	LogLevel               string  `yaml:"logLevel" validate:"oneof=debug info warn error"`
	OTLPEndpoint           string  `yaml:"otlpEndpoint"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Storage:          Storage{Backend: BackendAzure},
		ConcurrencyLimit: bdtypes.DefaultConcurrencyLimit,
		LogLevel:         DefaultLogLevel,
	}
}

// LoadFile overlays the YAML file at path onto cfg. Keys absent from the
// file keep their current values.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewError("loadConfig", err).WithMessage(fmt.Sprintf("read config file %s failed", path))
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.NewError("loadConfig", errors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("parse config file %s failed: %v", path, err))
	}
	return nil
}

// LoadEnvFile loads a dotenv file into the process environment without
// overriding variables that are already set. A missing file is ignored.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errors.NewError("loadEnv", errors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("parse env file %s failed: %v", path, err))
	}
	return nil
}

// LookupFunc reads a variable, as os.LookupEnv does.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overlays BLOB_* variables onto cfg. The connection string itself
// is left to the credential resolver so that a flag still takes precedence.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("BACKEND"); ok {
		cfg.Storage.Backend = strings.ToLower(v)
	}
	if v, ok := get("ACCOUNT_URL"); ok {
		cfg.Storage.AccountURL = v
	}
	if v, ok := get("CONNECTION_STRING_SECRET"); ok {
		cfg.ConnectionStringSecret = v
	}
	if v, ok := get("SECRETS_REGION"); ok {
		cfg.SecretsRegion = v
	}
	if v, ok := get("CONTAINER"); ok {
		cfg.Container = v
	}
	if v, ok := get("THREAD_COUNT_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return envError("THREAD_COUNT_LIMIT", v)
		}
		cfg.ConcurrencyLimit = n
	}
	if v, ok := get("DRY_RUN"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return envError("DRY_RUN", v)
		}
		cfg.DryRun = b
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := get("OTLP_ENDPOINT"); ok {
		cfg.OTLPEndpoint = v
	}
	return nil
}

func envError(name, value string) error {
	return errors.NewError("loadEnv", errors.ErrInvalidInput).
		WithMessage(fmt.Sprintf("%s%s has invalid value %q", EnvPrefix, name, value))
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the settings. All violations are reported together.
func (c *Config) Validate() error {
	var msgs []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !stderrors.As(err, &verrs) {
			return errors.NewError("validateConfig", errors.ErrInvalidInput).WithMessage(err.Error())
		}
		for _, fe := range verrs {
			msgs = append(msgs, describe(fe))
		}
	}

	if c.Container != "" {
		if err := validation.ValidateContainerName(c.Container); err != nil {
			msgs = append(msgs, "container: "+err.Error())
		}
	}

	if len(msgs) == 0 {
		return nil
	}
	return errors.NewError("validateConfig", errors.ErrInvalidInput).WithMessage(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s, got %v", fieldName(fe), fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", fieldName(fe), fe.Param(), fe.Value())
	case "url":
		return fmt.Sprintf("%s must be a URL, got %q", fieldName(fe), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", fieldName(fe), fe.Tag())
	}
}

// fieldName maps struct fields to the flag a user would recognize.
func fieldName(fe validator.FieldError) string {
	switch fe.StructField() {
	case "ConcurrencyLimit":
		return "thread-count-limit"
	case "Backend":
		return "backend"
	case "AccountURL":
		return "account-url"
	case "LogLevel":
		return "log-level"
	default:
		return fe.Field()
	}
}
