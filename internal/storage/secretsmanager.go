package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// refreshTokenKey is the JSON key holding the token when the secret is a JSON object.
const refreshTokenKey = "refresh_token"

// SecretsManagerAPI defines the Secrets Manager operations used by the token store.
type SecretsManagerAPI interface {
	// GetSecretValue retrieves a secret value.
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)

	// PutSecretValue stores a secret value.
	PutSecretValue(
		ctx context.Context,
		params *secretsmanager.PutSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.PutSecretValueOutput, error)
}

// SecretsManagerTokenStore manages the Constant Contact refresh token in AWS Secrets Manager.
//
// The secret is either the bare token or a JSON object with a refresh_token key;
// saves keep whichever shape the secret already has, along with any other keys.
type SecretsManagerTokenStore struct {
	// client is the Secrets Manager API client.
	client SecretsManagerAPI

	// secretARN is the ARN of the secret storing the refresh token.
	secretARN string
}

// RefreshToken returns the current refresh token from Secrets Manager.
func (t *SecretsManagerTokenStore) RefreshToken(ctx context.Context) (string, error) {
	raw, err := t.secretString(ctx)
	if err != nil {
		return "", err
	}

	fields, isJSON := parseSecretJSON(raw)
	if !isJSON {
		token := strings.TrimSpace(raw)
		if token == "" {
			return "", errors.New("secret is empty")
		}
		return token, nil
	}

	token, _ := fields[refreshTokenKey].(string)
	if token == "" {
		return "", fmt.Errorf("secret has no %s value", refreshTokenKey)
	}
	return token, nil
}

// SaveRefreshToken stores a new refresh token in Secrets Manager.
func (t *SecretsManagerTokenStore) SaveRefreshToken(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("token cannot be empty")
	}

	value := token

	// Only read the current secret to learn its shape; a failed read falls back to the bare token.
	if raw, err := t.secretString(ctx); err == nil {
		if fields, isJSON := parseSecretJSON(raw); isJSON {
			fields[refreshTokenKey] = token
			encoded, err := json.Marshal(fields)
			if err != nil {
				return fmt.Errorf("encoding secret: %w", err)
			}
			value = string(encoded)
		}
	}

	_, err := t.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(t.secretARN),
		SecretString: aws.String(value),
	})
	if err != nil {
		return fmt.Errorf("putting secret to Secrets Manager: %w", err)
	}

	return nil
}

// secretString fetches the raw secret value.
func (t *SecretsManagerTokenStore) secretString(ctx context.Context) (string, error) {
	output, err := t.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(t.secretARN),
	})
	if err != nil {
		return "", fmt.Errorf("getting secret from Secrets Manager: %w", err)
	}

	if output.SecretString == nil {
		return "", errors.New("secret has no string value")
	}

	return *output.SecretString, nil
}

// parseSecretJSON decodes raw as a JSON object, reporting whether it was one.
func parseSecretJSON(raw string) (map[string]any, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return nil, false
	}
	return fields, true
}

// NewSecretsManagerTokenStore creates a new Secrets Manager-backed token store.
func NewSecretsManagerTokenStore(client SecretsManagerAPI, secretARN string) (*SecretsManagerTokenStore, error) {
	if client == nil {
		return nil, errors.New("secrets manager client is required")
	}
	if secretARN == "" {
		return nil, errors.New("secret ARN is required")
	}

	return &SecretsManagerTokenStore{
		client:    client,
		secretARN: secretARN,
	}, nil
}
