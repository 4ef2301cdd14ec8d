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

const (
	bookIDIndex           = "book_id-index"
	requesterIDIndex      = "requester_id-index"
	staleReservationIndex = "state-updated_at-index"
)

// GetSwapRequest retrieves a swap request from DynamoDB by its ID.
func (s *Store) GetSwapRequest(ctx context.Context, requestID string) (*models.SwapRequest, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"id": requestID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal swap request ID: %w", err)
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.SwapRequestsTableName),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get swap request from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, storage.ErrNotFound
	}

	var req models.SwapRequest
	if err := attributevalue.UnmarshalMap(result.Item, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal swap request: %w", err)
	}
	return &req, nil
}

// ListSwapRequestsByBook retrieves every request ever made on a book,
// terminal states included.
func (s *Store) ListSwapRequestsByBook(ctx context.Context, bookID string) ([]models.SwapRequest, error) {
	result, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.SwapRequestsTableName),
		IndexName:              aws.String(bookIDIndex),
		KeyConditionExpression: aws.String("book_id = :bookID"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":bookID": &types.AttributeValueMemberS{Value: bookID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query swap requests by book ID: %w", err)
	}

	var requests []models.SwapRequest
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &requests); err != nil {
		return nil, fmt.Errorf("failed to unmarshal swap requests: %w", err)
	}
	return requests, nil
}

// ListSwapRequestsByRequester retrieves all requests a user has made.
func (s *Store) ListSwapRequestsByRequester(ctx context.Context, requesterID string) ([]models.SwapRequest, error) {
	result, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.SwapRequestsTableName),
		IndexName:              aws.String(requesterIDIndex),
		KeyConditionExpression: aws.String("requester_id = :requesterID"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":requesterID": &types.AttributeValueMemberS{Value: requesterID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query swap requests by requester ID: %w", err)
	}

	var requests []models.SwapRequest
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &requests); err != nil {
		return nil, fmt.Errorf("failed to unmarshal swap requests: %w", err)
	}
	return requests, nil
}

// GetStaleReservations retrieves requests that have sat in ACCEPTED
// state for longer than maxAge without completing.
func (s *Store) GetStaleReservations(ctx context.Context, maxAge time.Duration) ([]models.SwapRequest, error) {
	cutoffTime := time.Now().Add(-maxAge)
	cutoffTimeStr, err := cutoffTime.MarshalText()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cutoff time: %w", err)
	}

	result, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.SwapRequestsTableName),
		IndexName:              aws.String(staleReservationIndex),
		KeyConditionExpression: aws.String("#state = :state AND updated_at < :cutoff"),
		ExpressionAttributeNames: map[string]string{
			"#state": "state",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":state":  &types.AttributeValueMemberS{Value: string(models.ACCEPTED)},
			":cutoff": &types.AttributeValueMemberS{Value: string(cutoffTimeStr)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query for stale reservations: %w", err)
	}

	var requests []models.SwapRequest
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &requests); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stale reservations: %w", err)
	}
	return requests, nil
}

// CreateSwapRequest persists a new PENDING request.
func (s *Store) CreateSwapRequest(ctx context.Context, req *models.SwapRequest) (*models.SwapRequest, error) {
	now := time.Now()
	if req.Id == "" {
		req.Id = uuid.New().String()
	}
	if req.State == "" {
		req.State = models.PENDING
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now

	reqAV, err := attributevalue.MarshalMap(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal swap request: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.SwapRequestsTableName),
		Item:                reqAV,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return nil, storage.ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create swap request in DynamoDB: %w", err)
	}
	return req, nil
}

// TransitionSwapRequestState atomically moves a request from one state
// to another. The write only succeeds if the stored state is exactly
// `from`; a conditional failure surfaces as ErrStatusConflict so a
// retried expiry or a racing accept observes the loss instead of
// overwriting the winner.
func (s *Store) TransitionSwapRequestState(ctx context.Context, requestID string, from, to models.SwapRequestState) (*models.SwapRequest, error) {
	nowAV, err := attributevalue.Marshal(time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal timestamp for state update: %w", err)
	}

	result, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.SwapRequestsTableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: requestID},
		},
		UpdateExpression:    aws.String("SET #state = :to, updated_at = :now"),
		ConditionExpression: aws.String("attribute_exists(id) AND #state = :from"),
		ExpressionAttributeNames: map[string]string{
			"#state": "state",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":to":   &types.AttributeValueMemberS{Value: string(to)},
			":from": &types.AttributeValueMemberS{Value: string(from)},
			":now":  nowAV,
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return nil, storage.ErrStatusConflict
		}
		return nil, fmt.Errorf("failed to transition swap request state: %w", err)
	}

	var req models.SwapRequest
	if err := attributevalue.UnmarshalMap(result.Attributes, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated swap request: %w", err)
	}
	return &req, nil
}
