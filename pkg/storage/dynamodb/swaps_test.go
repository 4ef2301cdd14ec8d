package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/openshelf/bookswap/pkg/models"
	"github.com/openshelf/bookswap/pkg/storage"
	"github.com/openshelf/bookswap/pkg/storage/dynamodb/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestGetSwapRequest(t *testing.T) {
	reqID := uuid.New().String()
	req := &models.SwapRequest{Id: reqID, BookId: "book1", RequesterId: "user2", OwnerId: "user1", State: models.PENDING}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, SwapRequestsTableName: "swap_requests"}

		reqAV, _ := attributevalue.MarshalMap(req)
		mockClient.On("GetItem", mock.Anything, mock.AnythingOfType("*dynamodb.GetItemInput")).Return(&dynamodb.GetItemOutput{Item: reqAV}, nil)

		got, err := store.GetSwapRequest(context.Background(), reqID)

		assert.NoError(t, err)
		assert.Equal(t, req.Id, got.Id)
		assert.Equal(t, models.PENDING, got.State)
		mockClient.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, SwapRequestsTableName: "swap_requests"}

		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: nil}, nil)

		_, err := store.GetSwapRequest(context.Background(), reqID)

		assert.ErrorIs(t, err, storage.ErrNotFound)
		mockClient.AssertExpectations(t)
	})
}

func TestListSwapRequestsByBook(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, SwapRequestsTableName: "swap_requests"}

		requests := []models.SwapRequest{
			{Id: "r1", BookId: "book1", RequesterId: "user2", State: models.PENDING},
			{Id: "r2", BookId: "book1", RequesterId: "user3", State: models.DECLINED},
		}
		items := make([]map[string]types.AttributeValue, len(requests))
		for i, r := range requests {
			items[i], _ = attributevalue.MarshalMap(r)
		}
		mockClient.On("Query", mock.Anything, mock.AnythingOfType("*dynamodb.QueryInput")).Return(&dynamodb.QueryOutput{Items: items}, nil)

		got, err := store.ListSwapRequestsByBook(context.Background(), "book1")

		assert.NoError(t, err)
		assert.Len(t, got, 2)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, SwapRequestsTableName: "swap_requests"}

		mockClient.On("Query", mock.Anything, mock.Anything).Return(nil, errors.New("dynamodb is down"))

		_, err := store.ListSwapRequestsByBook(context.Background(), "book1")

		assert.Error(t, err)
		mockClient.AssertExpectations(t)
	})
}

func TestGetStaleReservations(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, SwapRequestsTableName: "swap_requests"}

		stale := models.SwapRequest{Id: "r1", BookId: "book1", State: models.ACCEPTED, UpdatedAt: time.Now().Add(-100 * time.Hour)}
		staleAV, _ := attributevalue.MarshalMap(stale)
		mockClient.On("Query", mock.Anything, mock.MatchedBy(func(input *dynamodb.QueryInput) bool {
			return input.IndexName != nil && *input.IndexName == staleReservationIndex
		})).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{staleAV}}, nil)

		got, err := store.GetStaleReservations(context.Background(), 96*time.Hour)

		assert.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, "r1", got[0].Id)
		mockClient.AssertExpectations(t)
	})
}

func TestCreateSwapRequest(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, SwapRequestsTableName: "swap_requests"}

		mockClient.On("PutItem", mock.Anything, mock.AnythingOfType("*dynamodb.PutItemInput")).Return(&dynamodb.PutItemOutput{}, nil)

		req := &models.SwapRequest{BookId: "book1", RequesterId: "user2", OwnerId: "user1"}
		created, err := store.CreateSwapRequest(context.Background(), req)

		assert.NoError(t, err)
		assert.NotEmpty(t, created.Id)
		assert.Equal(t, models.PENDING, created.State)
		mockClient.AssertExpectations(t)
	})

	t.Run("Already Exists", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, SwapRequestsTableName: "swap_requests"}

		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

		req := &models.SwapRequest{Id: "existing", BookId: "book1", RequesterId: "user2"}
		_, err := store.CreateSwapRequest(context.Background(), req)

		assert.ErrorIs(t, err, storage.ErrAlreadyExists)
		mockClient.AssertExpectations(t)
	})
}

func TestTransitionSwapRequestState(t *testing.T) {
	reqID := uuid.New().String()

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, SwapRequestsTableName: "swap_requests"}

		updated := &models.SwapRequest{Id: reqID, BookId: "book1", State: models.ACCEPTED}
		updatedAV, _ := attributevalue.MarshalMap(updated)
		mockClient.On("UpdateItem", mock.Anything, mock.AnythingOfType("*dynamodb.UpdateItemInput")).Return(&dynamodb.UpdateItemOutput{Attributes: updatedAV}, nil)

		got, err := store.TransitionSwapRequestState(context.Background(), reqID, models.PENDING, models.ACCEPTED)

		assert.NoError(t, err)
		assert.Equal(t, models.ACCEPTED, got.State)
		mockClient.AssertExpectations(t)
	})

	t.Run("State Conflict", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, SwapRequestsTableName: "swap_requests"}

		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

		_, err := store.TransitionSwapRequestState(context.Background(), reqID, models.PENDING, models.ACCEPTED)

		assert.ErrorIs(t, err, storage.ErrStatusConflict)
		mockClient.AssertExpectations(t)
	})
}
