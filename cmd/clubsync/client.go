package main

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/peteski22/clubsync/internal/config"
	"github.com/peteski22/clubsync/internal/constantcontact"
	"github.com/peteski22/clubsync/internal/members"
	"github.com/peteski22/clubsync/internal/storage"
)

// newClient builds a Constant Contact client over the refresh token saved by 'clubsync auth'.
// Rotated refresh tokens are written back to the same file.
func newClient(cfg *config.LocalConfig, tokenPath string) (*constantcontact.Client, error) {
	tokenStore, err := storage.NewFileTokenStore(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("creating token store: %w", err)
	}

	client, err := constantcontact.NewClient(constantcontact.Config{
		APIKey:       cfg.ConstantContact.APIKey,
		ClientSecret: cfg.ConstantContact.ClientSecret,
		ListID:       cfg.ConstantContact.ListID,
		TokenStore:   tokenStore,
	},
		constantcontact.WithBaseURL(cfg.ConstantContact.APIBaseURL),
		constantcontact.WithTokenURL(cfg.ConstantContact.TokenURL),
	)
	if err != nil {
		return nil, fmt.Errorf("creating constant contact client: %w", err)
	}

	return client, nil
}

// loadClient loads the local config and builds a client from it.
func loadClient() (*config.LocalConfig, *constantcontact.Client, error) {
	cfg, err := config.LoadLocal()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	tokenPath, err := config.TokenFilePath()
	if err != nil {
		return nil, nil, fmt.Errorf("getting token path: %w", err)
	}

	client, err := newClient(cfg, tokenPath)
	if err != nil {
		return nil, nil, err
	}

	return cfg, client, nil
}

// openMemberSource returns the configured member source and a function releasing
// its resources. A non-empty file overrides the configured source.
func openMemberSource(ctx context.Context, src config.MemberSource, file string) (members.Source, func(), error) {
	noop := func() {}

	if file != "" {
		src.Source = config.SourceFile
		src.Path = file
	}

	switch src.Source {
	case config.SourceFile:
		if src.Path == "" {
			return nil, noop, errors.New("no member file: set members.path or pass --file")
		}
		source, err := storage.NewFileMemberSource(src.Path)
		return source, noop, err

	case config.SourcePostgres:
		pool, err := storage.OpenPostgresPool(ctx, src.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		source, err := storage.NewPostgresMemberSource(pool, src.TableName)
		if err != nil {
			pool.Close()
			return nil, noop, err
		}
		return source, pool.Close, nil

	case config.SourceDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("loading AWS config: %w", err)
		}
		source, err := storage.NewDynamoDBMemberSource(dynamodb.NewFromConfig(awsCfg), src.TableName)
		return source, noop, err

	default:
		return nil, noop, fmt.Errorf("unknown member source %q", src.Source)
	}
}
