package aws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"golang.org/x/sync/singleflight"
)

// ErrSecretNotFound is returned when the secret, or the requested field of
// a key/value secret, does not exist.
var ErrSecretNotFound = errors.New("secret not found")

type secretsAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsClient reads the service's secret bundle from Secrets Manager. A
// secret is fetched once per process; concurrent first reads share a call.
type SecretsClient struct {
	api   secretsAPI
	calls singleflight.Group

	mu    sync.RWMutex
	cache map[string]string
}

func NewSecretsClient(cfg sdkaws.Config) *SecretsClient {
	return newSecretsClient(secretsmanager.NewFromConfig(cfg))
}

func newSecretsClient(api secretsAPI) *SecretsClient {
	return &SecretsClient{api: api, cache: make(map[string]string)}
}

// GetSecret returns the raw string value of name.
func (s *SecretsClient) GetSecret(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	v, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return v, nil
	}

	res, err, _ := s.calls.Do(name, func() (interface{}, error) {
		out, err := s.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: &name})
		var nf *types.ResourceNotFoundException
		if errors.As(err, &nf) {
			return "", fmt.Errorf("secret %s: %w", name, ErrSecretNotFound)
		}
		if err != nil {
			return "", fmt.Errorf("failed to get secret %s: %w", name, err)
		}
		if out.SecretString == nil {
			return "", fmt.Errorf("secret %s has no string value", name)
		}
		s.mu.Lock()
		s.cache[name] = *out.SecretString
		s.mu.Unlock()
		return *out.SecretString, nil
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

// SecretField reads one field of a key/value secret, stored as a flat JSON
// object such as {"JWT_SECRET":"...","MONGO_DB_URL":"..."}.
func (s *SecretsClient) SecretField(ctx context.Context, name, field string) (string, error) {
	raw, err := s.GetSecret(ctx, name)
	if err != nil {
		return "", err
	}
	var fields map[string]string
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return "", fmt.Errorf("secret %s is not a key/value secret: %w", name, err)
	}
	v, ok := fields[field]
	if !ok {
		return "", fmt.Errorf("secret %s field %s: %w", name, field, ErrSecretNotFound)
	}
	return v, nil
}

// SecretFieldOr is SecretField with fallback for any failure or an empty value.
func (s *SecretsClient) SecretFieldOr(ctx context.Context, name, field, fallback string) string {
	v, err := s.SecretField(ctx, name, field)
	if err != nil || v == "" {
		return fallback
	}
	return v
}
