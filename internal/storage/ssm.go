package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// SSMAPI defines the SSM operations used by the parameter token store.
type SSMAPI interface {
	// GetParameter retrieves a parameter from SSM.
	GetParameter(
		ctx context.Context,
		params *ssm.GetParameterInput,
		optFns ...func(*ssm.Options),
	) (*ssm.GetParameterOutput, error)

	// PutParameter stores a parameter in SSM.
	PutParameter(
		ctx context.Context,
		params *ssm.PutParameterInput,
		optFns ...func(*ssm.Options),
	) (*ssm.PutParameterOutput, error)
}

// ParameterTokenStore manages the refresh token as an SSM SecureString parameter.
type ParameterTokenStore struct {
	// client is the SSM API client.
	client SSMAPI

	// parameterName is the SSM parameter holding the refresh token.
	parameterName string
}

// RefreshToken returns the decrypted refresh token.
func (p *ParameterTokenStore) RefreshToken(ctx context.Context) (string, error) {
	output, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(p.parameterName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFoundErr *types.ParameterNotFound
		if errors.As(err, &notFoundErr) {
			return "", fmt.Errorf("refresh token parameter not found: %s", p.parameterName)
		}
		return "", fmt.Errorf("getting parameter from SSM: %w", err)
	}

	if output.Parameter == nil || output.Parameter.Value == nil {
		return "", errors.New("parameter has no value")
	}

	token := strings.TrimSpace(*output.Parameter.Value)
	if token == "" {
		return "", errors.New("parameter is empty")
	}

	return token, nil
}

// SaveRefreshToken overwrites the parameter with a new refresh token.
func (p *ParameterTokenStore) SaveRefreshToken(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("token cannot be empty")
	}

	_, err := p.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(p.parameterName),
		Overwrite: aws.Bool(true),
		Type:      types.ParameterTypeSecureString,
		Value:     aws.String(token),
	})
	if err != nil {
		return fmt.Errorf("putting parameter to SSM: %w", err)
	}

	return nil
}

// NewParameterTokenStore creates a new SSM-backed token store.
func NewParameterTokenStore(client SSMAPI, parameterName string) (*ParameterTokenStore, error) {
	if client == nil {
		return nil, errors.New("ssm client is required")
	}
	if parameterName == "" {
		return nil, errors.New("parameter name is required")
	}

	return &ParameterTokenStore{
		client:        client,
		parameterName: parameterName,
	}, nil
}
