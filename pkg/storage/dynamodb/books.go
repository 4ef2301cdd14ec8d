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

const ownerIndex = "owner_id-index"

// GetBook retrieves a book from DynamoDB by its ID.
func (s *Store) GetBook(ctx context.Context, bookID string) (*models.Book, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"id": bookID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal book ID: %w", err)
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.BooksTableName),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get book from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, storage.ErrNotFound
	}

	var book models.Book
	if err := attributevalue.UnmarshalMap(result.Item, &book); err != nil {
		return nil, fmt.Errorf("failed to unmarshal book: %w", err)
	}
	return &book, nil
}

// LoadAllBooks retrieves every listed book. The catalog index is rebuilt
// from this on startup.
func (s *Store) LoadAllBooks(ctx context.Context) ([]models.Book, error) {
	result, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.BooksTableName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan books table: %w", err)
	}

	var books []models.Book
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &books); err != nil {
		return nil, fmt.Errorf("failed to unmarshal books: %w", err)
	}
	return books, nil
}

// ListBooksByOwner retrieves all books listed by one user.
func (s *Store) ListBooksByOwner(ctx context.Context, ownerID string) ([]models.Book, error) {
	result, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.BooksTableName),
		IndexName:              aws.String(ownerIndex),
		KeyConditionExpression: aws.String("owner_id = :ownerID"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ownerID": &types.AttributeValueMemberS{Value: ownerID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query books by owner ID: %w", err)
	}

	var books []models.Book
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &books); err != nil {
		return nil, fmt.Errorf("failed to unmarshal books: %w", err)
	}
	return books, nil
}

// CreateBook persists a new listing. New listings always start AVAILABLE.
func (s *Store) CreateBook(ctx context.Context, book *models.Book) (*models.Book, error) {
	now := time.Now()
	if book.Id == "" {
		book.Id = uuid.New().String()
	}
	book.Status = models.AVAILABLE
	book.ListedAt = now
	book.UpdatedAt = now

	if err := book.Validate(); err != nil {
		return nil, err
	}

	bookAV, err := attributevalue.MarshalMap(book)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal book: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.BooksTableName),
		Item:                bookAV,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return nil, storage.ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create book in DynamoDB: %w", err)
	}
	return book, nil
}

// DeleteBook removes a listing entirely.
func (s *Store) DeleteBook(ctx context.Context, bookID string) error {
	key, err := attributevalue.MarshalMap(map[string]string{"id": bookID})
	if err != nil {
		return fmt.Errorf("failed to marshal book ID for deletion: %w", err)
	}

	_, err = s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.BooksTableName),
		Key:                 key,
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("failed to delete book from DynamoDB: %w", err)
	}
	return nil
}

// TransitionBookStatus atomically moves a book from one status to
// another. The conditional write is the compare-and-swap that guards the
// at-most-one-accepted invariant: it only succeeds if the stored status
// is exactly `from`, so two racing transitions cannot both commit.
func (s *Store) TransitionBookStatus(ctx context.Context, bookID string, from, to models.BookStatus) (*models.Book, error) {
	nowAV, err := attributevalue.Marshal(time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal timestamp for status update: %w", err)
	}

	result, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.BooksTableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: bookID},
		},
		UpdateExpression:    aws.String("SET #status = :to, updated_at = :now"),
		ConditionExpression: aws.String("attribute_exists(id) AND #status = :from"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
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
		return nil, fmt.Errorf("failed to transition book status: %w", err)
	}

	var book models.Book
	if err := attributevalue.UnmarshalMap(result.Attributes, &book); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated book: %w", err)
	}
	return &book, nil
}
