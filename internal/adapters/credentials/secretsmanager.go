package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"ilim-checkout/internal/domain"
)

// SessionSecret is the structure of the secret stored in AWS Secrets Manager.
type SessionSecret struct {
	Subject     string `json:"subject"`
	AccessToken string `json:"access_token"`
}

// SecretValueGetter is the subset of the Secrets Manager API the store needs.
type SecretValueGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManagerStore loads a service account session from AWS Secrets Manager.
// The secret is fetched once and cached for the lifetime of the store.
type SecretsManagerStore struct {
	client     SecretValueGetter
	secretName string

	mu     sync.Mutex
	cached *domain.AuthSession
}

// NewSecretsManagerStore creates a store backed by the default AWS credential chain.
func NewSecretsManagerStore(ctx context.Context, secretName string) (*SecretsManagerStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return NewSecretsManagerStoreWithClient(secretsmanager.NewFromConfig(cfg), secretName), nil
}

// NewSecretsManagerStoreWithClient creates a store around an existing client.
func NewSecretsManagerStoreWithClient(client SecretValueGetter, secretName string) *SecretsManagerStore {
	return &SecretsManagerStore{
		client:     client,
		secretName: secretName,
	}
}

// Load fetches and parses the session secret.
func (s *SecretsManagerStore) Load(ctx context.Context) (domain.AuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		return *s.cached, nil
	}

	if s.secretName == "" {
		return domain.AuthSession{}, fmt.Errorf("secret name is empty")
	}

	output, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.secretName),
	})
	if err != nil {
		return domain.AuthSession{}, fmt.Errorf("fetch secret %q from secrets manager: %w", s.secretName, err)
	}

	if output.SecretString == nil {
		return domain.AuthSession{}, fmt.Errorf("secret %q has no string value (binary secrets not supported)", s.secretName)
	}

	var secret SessionSecret
	if err := json.Unmarshal([]byte(*output.SecretString), &secret); err != nil {
		return domain.AuthSession{}, fmt.Errorf("parse secret %q as JSON: %w", s.secretName, err)
	}

	if secret.AccessToken == "" {
		return domain.AuthSession{}, &domain.AuthenticationError{
			Err: fmt.Errorf("secret %q missing required field access_token: %w", s.secretName, domain.ErrMissingCredential),
		}
	}

	auth := domain.AuthSession{Subject: secret.Subject, AccessToken: secret.AccessToken}
	s.cached = &auth
	return auth, nil
}
