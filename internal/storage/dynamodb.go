// Package storage provides refresh token stores and member sources.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/peteski22/clubsync/internal/members"
)

// DynamoDBAPI defines the DynamoDB operations used by the member source.
type DynamoDBAPI interface {
	// Scan reads every item in a table, one page at a time.
	Scan(
		ctx context.Context,
		params *dynamodb.ScanInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.ScanOutput, error)
}

// DynamoDBMemberSource reads member records from a DynamoDB table.
// Attribute names match the member JSON fields (email, first_name, ...).
type DynamoDBMemberSource struct {
	// client is the DynamoDB API client.
	client DynamoDBAPI

	// tableName is the name of the members table.
	tableName string
}

// Members scans the whole table and returns every item with an email attribute.
func (s *DynamoDBMemberSource) Members(ctx context.Context) ([]members.Record, error) {
	var (
		records  []members.Record
		startKey map[string]types.AttributeValue
	)

	for {
		output, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			ExclusiveStartKey: startKey,
			TableName:         aws.String(s.tableName),
		})
		if err != nil {
			return nil, fmt.Errorf("scanning DynamoDB table %s: %w", s.tableName, err)
		}

		for _, item := range output.Items {
			record := recordFromItem(item)
			if record.Email == "" {
				continue
			}
			records = append(records, record)
		}

		if len(output.LastEvaluatedKey) == 0 {
			break
		}
		startKey = output.LastEvaluatedKey
	}

	return records, nil
}

// recordFromItem maps a DynamoDB item to a member record.
func recordFromItem(item map[string]types.AttributeValue) members.Record {
	return members.Record{
		Address:        attributeString(item, "address"),
		City:           attributeString(item, "city"),
		CreatedAt:      attributeString(item, "created_at"),
		Email:          attributeString(item, "email"),
		FirstName:      attributeString(item, "first_name"),
		JoinedDate:     attributeString(item, "joined_date"),
		LastName:       attributeString(item, "last_name"),
		MembershipType: attributeString(item, "membership_type"),
		Phone:          attributeString(item, "phone"),
		State:          attributeString(item, "state"),
		Status:         attributeString(item, "status"),
		ZipCode:        attributeString(item, "zip_code"),
	}
}

// attributeString returns a string or number attribute as text, or empty.
func attributeString(item map[string]types.AttributeValue, name string) string {
	switch v := item[name].(type) {
	case *types.AttributeValueMemberS:
		return strings.TrimSpace(v.Value)
	case *types.AttributeValueMemberN:
		return v.Value
	default:
		return ""
	}
}

// NewDynamoDBMemberSource creates a new DynamoDB-backed member source.
func NewDynamoDBMemberSource(client DynamoDBAPI, tableName string) (*DynamoDBMemberSource, error) {
	if client == nil {
		return nil, errors.New("dynamodb client is required")
	}
	if tableName == "" {
		return nil, errors.New("table name is required")
	}

	return &DynamoDBMemberSource{
		client:    client,
		tableName: tableName,
	}, nil
}
