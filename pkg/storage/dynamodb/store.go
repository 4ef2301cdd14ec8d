package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/openshelf/bookswap/pkg/storage"
)

// DynamoDBAPI defines the subset of the DynamoDB client the store uses.
// Mocks are generated against this interface.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Store implements the Storage interface using AWS DynamoDB.
type Store struct {
	Client                DynamoDBAPI
	BooksTableName        string
	UsersTableName        string
	WantlistsTableName    string
	SwapRequestsTableName string
	ConnectionsTableName  string
}

// New creates a new Store.
func New(client DynamoDBAPI, booksTable, usersTable, wantlistsTable, swapRequestsTable, connectionsTable string) *Store {
	return &Store{
		Client:                client,
		BooksTableName:        booksTable,
		UsersTableName:        usersTable,
		WantlistsTableName:    wantlistsTable,
		SwapRequestsTableName: swapRequestsTable,
		ConnectionsTableName:  connectionsTable,
	}
}

// Make sure we conform to the interfaces
var (
	_ storage.Storage         = (*Store)(nil)
	_ storage.ConnectionStore = (*Store)(nil)
)
