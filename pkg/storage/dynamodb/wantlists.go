package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/openshelf/bookswap/pkg/models"
	"github.com/openshelf/bookswap/pkg/storage"
)

// The wantlists table is keyed by (user_id, id) so one user's entries
// are a single-partition query.

// ListWantlist retrieves one user's wantlist entries.
func (s *Store) ListWantlist(ctx context.Context, userID string) ([]models.WantlistEntry, error) {
	result, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.WantlistsTableName),
		KeyConditionExpression: aws.String("user_id = :userID"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":userID": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query wantlist for user: %w", err)
	}

	var entries []models.WantlistEntry
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wantlist entries: %w", err)
	}
	return entries, nil
}

// LoadAllWantlists retrieves every wantlist entry across all users.
func (s *Store) LoadAllWantlists(ctx context.Context) ([]models.WantlistEntry, error) {
	result, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.WantlistsTableName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan wantlists table: %w", err)
	}

	var entries []models.WantlistEntry
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wantlist entries: %w", err)
	}
	return entries, nil
}

// AddWantlistEntry persists a new standing interest.
func (s *Store) AddWantlistEntry(ctx context.Context, entry *models.WantlistEntry) (*models.WantlistEntry, error) {
	if entry.Id == "" {
		entry.Id = uuid.New().String()
	}
	entry.CreatedAt = time.Now()

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	entryAV, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal wantlist entry: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.WantlistsTableName),
		Item:                entryAV,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return nil, storage.ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create wantlist entry in DynamoDB: %w", err)
	}
	return entry, nil
}

// RemoveWantlistEntry deletes one entry.
func (s *Store) RemoveWantlistEntry(ctx context.Context, userID, entryID string) error {
	key, err := attributevalue.MarshalMap(map[string]string{
		"user_id": userID,
		"id":      entryID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal wantlist entry key: %w", err)
	}

	_, err = s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.WantlistsTableName),
		Key:                 key,
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("failed to delete wantlist entry from DynamoDB: %w", err)
	}
	return nil
}
