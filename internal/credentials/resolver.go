// Package credentials resolves the connection string used to reach the
// storage account. Sources are consulted in order and the first non-empty
// value wins.
package credentials

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"strings"

	"github.com/caybokotze/bulk-blob-storage-deletion/errors"
)

// EnvConnectionString is the environment variable consulted after the flag.
const EnvConnectionString = "BLOB_CONNECTION_STRING"

// ErrNoConnectionString is returned when every source came up empty. It is
// classified as errors.ErrInvalidCredentials.
var ErrNoConnectionString = stderrors.New("no connection string provided")

// Credential is a resolved connection string with the name of its source.
type Credential struct {
	Value  string
	Source string
}

// String masks the value so a Credential can be logged safely.
func (c Credential) String() string {
	return c.Source + ":***"
}

// LogValue implements slog.LogValuer.
func (c Credential) LogValue() slog.Value {
	return slog.StringValue(c.String())
}

// Source yields a connection string or reports that it has none.
type Source interface {
	Name() string
	Lookup(ctx context.Context) (value string, ok bool, err error)
}

// Resolver walks its sources in order.
type Resolver struct {
	sources []Source
	logger  *slog.Logger
}

// NewResolver creates a Resolver. A nil logger uses slog.Default().
func NewResolver(logger *slog.Logger, sources ...Source) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{sources: sources, logger: logger}
}

// Resolve returns the first non-empty connection string. A source error
// aborts resolution; running out of sources yields ErrNoConnectionString.
func (r *Resolver) Resolve(ctx context.Context) (Credential, error) {
	for _, src := range r.sources {
		value, ok, err := src.Lookup(ctx)
		if err != nil {
			return Credential{}, err
		}
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			r.logger.DebugContext(ctx, "credential source empty", slog.String("source", src.Name()))
			continue
		}

		cred := Credential{Value: value, Source: src.Name()}
		r.logger.DebugContext(ctx, "credential resolved", slog.Any("credential", cred))
		return cred, nil
	}
	return Credential{}, errors.NewError("resolveCredentials",
		errors.Classify(errors.ErrInvalidCredentials, ErrNoConnectionString))
}

// Static returns a source holding a fixed value, typically a flag.
func Static(name, value string) Source {
	return staticSource{name: name, value: value}
}

type staticSource struct {
	name  string
	value string
}

func (s staticSource) Name() string { return s.name }

func (s staticSource) Lookup(context.Context) (string, bool, error) {
	return s.value, s.value != "", nil
}

// Env returns a source reading an environment variable.
func Env(key string) Source {
	return envSource{key: key}
}

type envSource struct {
	key string
}

func (s envSource) Name() string { return "env:" + s.key }

func (s envSource) Lookup(context.Context) (string, bool, error) {
	value, ok := os.LookupEnv(s.key)
	return value, ok, nil
}

// Secret returns a source that fetches secretID from provider. An empty
// secretID makes the source a no-op.
func Secret(provider SecretProvider, secretID string) Source {
	return secretSource{provider: provider, id: secretID}
}

type secretSource struct {
	provider SecretProvider
	id       string
}

func (s secretSource) Name() string { return "secret:" + s.id }

func (s secretSource) Lookup(ctx context.Context) (string, bool, error) {
	if s.id == "" || s.provider == nil {
		return "", false, nil
	}
	value, err := s.provider.GetSecret(ctx, s.id)
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// PromptFunc asks the user for a connection string.
type PromptFunc func(ctx context.Context) (string, error)

// Prompt returns a source that asks interactively.
func Prompt(fn PromptFunc) Source {
	return promptSource{fn: fn}
}

type promptSource struct {
	fn PromptFunc
}

func (s promptSource) Name() string { return "prompt" }

func (s promptSource) Lookup(ctx context.Context) (string, bool, error) {
	if s.fn == nil {
		return "", false, nil
	}
	value, err := s.fn(ctx)
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}
