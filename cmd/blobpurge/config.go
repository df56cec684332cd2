package main

import (
	"github.com/spf13/cobra"

	"github.com/caybokotze/bulk-blob-storage-deletion/bdtypes"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/config"
)

// flags holds the raw command line values.
type flags struct {
	connectionString       string
	container              string
	threadCountLimit       int
	dryRun                 bool
	backend                string
	accountURL             string
	connectionStringSecret string
	secretsRegion          string
	configPath             string
	envFile                string
	yes                    bool
	logLevel               string
	otlpEndpoint           string
	noColor                bool
}

func bindFlags(cmd *cobra.Command, f *flags) {
	fs := cmd.Flags()
	fs.StringVarP(&f.connectionString, "connection-string", "c", "", "storage connection string (prompted when omitted)")
	fs.StringVarP(&f.container, "container", "n", "", "container to empty (selected interactively when omitted)")
	fs.IntVar(&f.threadCountLimit, "thread-count-limit", bdtypes.DefaultConcurrencyLimit, "maximum number of deletes in flight")
	fs.BoolVar(&f.dryRun, "dry-run", false, "list the blobs without deleting them")
	fs.StringVar(&f.backend, "backend", config.BackendAzure, "storage backend: azure, s3 or minio")
	fs.StringVar(&f.accountURL, "account-url", "", "Azure account URL, authenticated with the default Azure credential")
	fs.StringVar(&f.connectionStringSecret, "connection-string-secret", "", "AWS Secrets Manager secret holding the connection string")
	fs.StringVar(&f.secretsRegion, "secrets-region", "", "AWS region of the connection string secret")
	fs.StringVar(&f.configPath, "config", "", "YAML config file")
	fs.StringVar(&f.envFile, "env-file", config.DefaultEnvFile, "dotenv file loaded when present")
	fs.BoolVarP(&f.yes, "yes", "y", false, "delete without asking for confirmation")
	fs.StringVar(&f.logLevel, "log-level", config.DefaultLogLevel, "log level: debug, info, warn or error")
	fs.StringVar(&f.otlpEndpoint, "otlp-endpoint", "", "OTLP/gRPC collector endpoint for traces")
	fs.BoolVar(&f.noColor, "no-color", false, "disable colored output")
}

// loadConfig layers defaults, the config file, the environment and finally
// the flags the user actually set. The connection string from the config
// file is returned separately so that flag and environment still win.
func loadConfig(cmd *cobra.Command, f *flags, lookup config.LookupFunc) (config.Config, string, error) {
	cfg := config.Default()

	if f.configPath != "" {
		if err := config.LoadFile(&cfg, f.configPath); err != nil {
			return cfg, "", err
		}
	}
	fileConnectionString := cfg.Storage.ConnectionString
	cfg.Storage.ConnectionString = ""

	if err := config.LoadEnvFile(f.envFile); err != nil {
		return cfg, "", err
	}
	if err := config.ApplyEnv(&cfg, lookup); err != nil {
		return cfg, "", err
	}

	changed := cmd.Flags().Changed
	if changed("container") {
		cfg.Container = f.container
	}
	if changed("thread-count-limit") {
		cfg.ConcurrencyLimit = f.threadCountLimit
	}
	if changed("dry-run") {
		cfg.DryRun = f.dryRun
	}
	if changed("backend") {
		cfg.Storage.Backend = f.backend
	}
	if changed("account-url") {
		cfg.Storage.AccountURL = f.accountURL
	}
	if changed("connection-string-secret") {
		cfg.ConnectionStringSecret = f.connectionStringSecret
	}
	if changed("secrets-region") {
		cfg.SecretsRegion = f.secretsRegion
	}
	if changed("yes") {
		cfg.AssumeYes = f.yes
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("otlp-endpoint") {
		cfg.OTLPEndpoint = f.otlpEndpoint
	}

	if err := cfg.Validate(); err != nil {
		return cfg, "", err
	}
	return cfg, fileConnectionString, nil
}
