// Command blobpurge deletes every blob of a storage container with a bounded
// number of concurrent requests.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/caybokotze/bulk-blob-storage-deletion/internal/app"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/config"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/console"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/credentials"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/observability"
)

const serviceName = "blobpurge"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// errPartialFailure marks a run that finished with undeleted items. The
// summary has already been printed.
var errPartialFailure = stderrors.New("some blobs were not deleted")

// runFunc performs a run with the loaded settings.
type runFunc func(ctx context.Context, env runEnv) error

// runEnv is everything a run needs from the command line.
type runEnv struct {
	cfg                  config.Config
	flags                *flags
	fileConnectionString string
	stdout               io.Writer
	stderr               io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr, purge)
	stop()
	os.Exit(code)
}

// execute runs the command and maps its outcome to an exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer, run runFunc) int {
	f := &flags{}
	cmd := newRootCommand(f, stdout, stderr, run)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case stderrors.Is(err, errPartialFailure):
		return 1
	default:
		console.NewRenderer(stdout, f.noColor).Fatal(err)
		return 1
	}
}

func newRootCommand(f *flags, stdout, stderr io.Writer, run runFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   serviceName,
		Short: "Delete all blobs in a storage container",
		Long: "blobpurge lists a container, shows every blob it found and, after " +
			"confirmation, deletes them with a bounded number of concurrent requests.",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, fileConnectionString, err := loadConfig(cmd, f, os.LookupEnv)
			if err != nil {
				return err
			}
			return run(cmd.Context(), runEnv{
				cfg:                  cfg,
				flags:                f,
				fileConnectionString: fileConnectionString,
				stdout:               stdout,
				stderr:               stderr,
			})
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})
	bindFlags(cmd, f)
	return cmd
}

// purge is the production run: it wires logging, tracing, credentials and
// the terminal, then hands over to app.Runner.
func purge(ctx context.Context, env runEnv) error {
	cfg := env.cfg
	logger := newLogger(env.stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	tp, shutdown, err := observability.InitTracer(ctx, cfg.OTLPEndpoint, serviceName, version)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("tracer shutdown failed", slog.String("error", err.Error()))
		}
	}()

	renderer := console.NewRenderer(env.stdout, env.flags.noColor)
	opts := []app.Option{
		app.WithRenderer(renderer),
		app.WithLogger(logger),
		app.WithTracerProvider(tp),
	}

	var prompter console.Prompter
	if readline.DefaultIsTerminal() {
		p, rl, err := console.NewReadlinePrompter(env.stdout)
		if err != nil {
			return err
		}
		defer rl.Close()
		prompter = p
		opts = append(opts, app.WithPrompter(p))
	}

	sources := []credentials.Source{
		credentials.Static("flag", env.flags.connectionString),
		credentials.Env(credentials.EnvConnectionString),
		credentials.Static("config", env.fileConnectionString),
	}
	if cfg.ConnectionStringSecret != "" {
		var awsOpts []credentials.AWSOption
		if cfg.SecretsRegion != "" {
			awsOpts = append(awsOpts, credentials.WithRegion(cfg.SecretsRegion))
		}
		provider, err := credentials.NewAWSProvider(ctx, awsOpts...)
		if err != nil {
			return err
		}
		sources = append(sources, credentials.Secret(provider, cfg.ConnectionStringSecret))
	}
	if prompter != nil && !app.UsesAccountURL(cfg.Storage) {
		sources = append(sources, credentials.Prompt(app.PromptConnectionString(prompter, cfg.Storage.Backend)))
	}
	opts = append(opts, app.WithResolver(credentials.NewResolver(logger, sources...)))

	report, err := app.New(opts...).Run(ctx, cfg)
	if err != nil {
		return err
	}
	if report.Failed() {
		return errPartialFailure
	}
	return nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// usageError points malformed invocations at --help.
func usageError(err error) error {
	return fmt.Errorf("%w; try running again with -h or --help", err)
}
