package credentials

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"

	"github.com/caybokotze/bulk-blob-storage-deletion/errors"
)

// SecretProvider fetches a secret value by id.
type SecretProvider interface {
	GetSecret(ctx context.Context, id string) (string, error)
}

// SecretsManagerAPI defines the AWS Secrets Manager operations used here.
// This interface allows for mocking AWS SDK calls in unit tests.
type SecretsManagerAPI interface {
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSProvider reads connection strings from AWS Secrets Manager.
type AWSProvider struct {
	client SecretsManagerAPI
}

// AWSOption configures NewAWSProvider.
type AWSOption func(*awsConfig)

type awsConfig struct {
	region   string
	endpoint string
}

// WithRegion sets the AWS region for Secrets Manager.
func WithRegion(region string) AWSOption {
	return func(c *awsConfig) {
		c.region = region
	}
}

// WithEndpoint overrides the Secrets Manager endpoint (LocalStack).
func WithEndpoint(endpoint string) AWSOption {
	return func(c *awsConfig) {
		c.endpoint = endpoint
	}
}

// NewAWSProvider creates a provider using the default AWS credential chain.
func NewAWSProvider(ctx context.Context, opts ...AWSOption) (*AWSProvider, error) {
	cfg := &awsConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var loadOpts []func(*config.LoadOptions) error
	if cfg.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := secretsmanager.NewFromConfig(awsCfg, func(o *secretsmanager.Options) {
		if cfg.endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.endpoint)
		}
	})

	return NewAWSProviderWithClient(client), nil
}

// NewAWSProviderWithClient wraps an existing client.
func NewAWSProviderWithClient(client SecretsManagerAPI) *AWSProvider {
	return &AWSProvider{client: client}
}

// GetSecret returns the secret's string value. A JSON object secret is
// searched for a connectionString field.
func (p *AWSProvider) GetSecret(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", errors.NewError("getSecret", errors.ErrInvalidInput).WithMessage("secret id cannot be empty")
	}

	output, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(id),
	})
	if err != nil {
		return "", mapAWSError(id, err)
	}

	var raw string
	switch {
	case output.SecretString != nil:
		raw = *output.SecretString
	case output.SecretBinary != nil:
		raw = string(output.SecretBinary)
	default:
		return "", errors.NewError("getSecret", errors.ErrInvalidCredentials).
			WithMessage(fmt.Sprintf("secret %q has no value", id))
	}

	return extractConnectionString(raw), nil
}

// mapAWSError maps AWS SDK errors to the package sentinels.
func mapAWSError(id string, err error) error {
	var rnf *types.ResourceNotFoundException
	if stderrors.As(err, &rnf) {
		return errors.NewError("getSecret", errors.Classify(errors.ErrInvalidCredentials, err)).
			WithMessage(fmt.Sprintf("secret %q not found", id))
	}

	var ipe *types.InvalidParameterException
	if stderrors.As(err, &ipe) && ipe.Message != nil && containsAccessDeniedMessage(*ipe.Message) {
		return errors.NewError("getSecret", errors.Classify(errors.ErrAccessDenied, err))
	}

	if containsAccessDeniedMessage(err.Error()) {
		return errors.NewError("getSecret", errors.Classify(errors.ErrAccessDenied, err))
	}

	return errors.NewError("getSecret", err).WithMessage(fmt.Sprintf("failed to resolve secret %q", id))
}

func containsAccessDeniedMessage(msg string) bool {
	lowerMsg := strings.ToLower(msg)
	return strings.Contains(lowerMsg, "access") && strings.Contains(lowerMsg, "denied")
}

// extractConnectionString unwraps {"connectionString": "..."} secrets.
func extractConnectionString(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return trimmed
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return trimmed
	}
	for key, value := range fields {
		if strings.EqualFold(key, "connectionString") {
			if s, ok := value.(string); ok {
				return s
			}
		}
	}
	return trimmed
}

// MemoryProvider is an in-memory SecretProvider for testing and development.
type MemoryProvider struct {
	secrets map[string]string
	mu      sync.RWMutex
}

// NewMemoryProvider creates a provider holding the given secrets.
func NewMemoryProvider(secrets map[string]string) *MemoryProvider {
	p := &MemoryProvider{secrets: make(map[string]string, len(secrets))}
	for k, v := range secrets {
		p.secrets[k] = v
	}
	return p
}

// Store sets a secret.
func (p *MemoryProvider) Store(id, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.secrets[id] = value
}

// GetSecret returns a stored secret.
func (p *MemoryProvider) GetSecret(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("resolve operation cancelled: %w", err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	value, ok := p.secrets[id]
	if !ok {
		return "", errors.NewError("getSecret", errors.ErrInvalidCredentials).
			WithMessage(fmt.Sprintf("secret %q not found", id))
	}
	return extractConnectionString(value), nil
}

var (
	_ SecretProvider = (*AWSProvider)(nil)
	_ SecretProvider = (*MemoryProvider)(nil)
)
