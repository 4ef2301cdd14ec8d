package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/openshelf/bookswap/pkg/availability"
	"github.com/openshelf/bookswap/pkg/models"
	"github.com/openshelf/bookswap/pkg/notify"
	"github.com/openshelf/bookswap/pkg/scheduler"
	"github.com/openshelf/bookswap/pkg/storage/dynamodb"
)

var (
	tracker      *availability.Tracker
	sqsScheduler *scheduler.SQSScheduler
)

func init() {
	// Load environment variables from .env file (useful for local testing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize dependencies once.
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	dbClient := awsdynamodb.NewFromConfig(cfg)
	booksTable := os.Getenv("DYNAMODB_BOOKS_TABLE_NAME")
	usersTable := os.Getenv("DYNAMODB_USERS_TABLE_NAME")
	wantlistsTable := os.Getenv("DYNAMODB_WANTLISTS_TABLE_NAME")
	swapsTable := os.Getenv("DYNAMODB_SWAP_REQUESTS_TABLE_NAME")
	connectionsTable := os.Getenv("DYNAMODB_CONNECTIONS_TABLE_NAME")

	if booksTable == "" || swapsTable == "" {
		log.Fatal("One or more DynamoDB table name environment variables are not set")
	}

	store := dynamodb.New(dbClient, booksTable, usersTable, wantlistsTable, swapsTable, connectionsTable)

	var publisher notify.Publisher = &notify.NoOpPublisher{}
	if endpoint := os.Getenv("WEBSOCKET_API_ENDPOINT"); endpoint != "" {
		publisher, err = notify.NewPublisher(store, store, endpoint)
		if err != nil {
			log.Fatalf("failed to create websocket publisher: %v", err)
		}
	}

	if queueURL := os.Getenv("SQS_EXPIRY_QUEUE_URL"); queueURL != "" {
		sqsScheduler = scheduler.NewSQSScheduler(sqs.NewFromConfig(cfg), queueURL)
	}

	// The lambda expires one reservation at a time against shared
	// storage; the conditional writes carry the concurrency guarantees.
	tracker = availability.NewTracker(store, nil, publisher)
}

// HandleRequest processes SQS expiry messages. A message whose deadline
// has not passed yet (SQS caps a single delay at 15 minutes) is
// re-enqueued with the remaining delay instead of being processed.
func HandleRequest(ctx context.Context, sqsEvent events.SQSEvent) error {
	for _, message := range sqsEvent.Records {
		log.Printf("Processing message %s", message.MessageId)

		var msg scheduler.ExpiryMessage
		if err := json.Unmarshal([]byte(message.Body), &msg); err != nil {
			log.Printf("ERROR: failed to unmarshal expiry message from SQS message %s: %v", message.MessageId, err)
			// Returning an error will cause SQS to retry the message.
			return err
		}

		if remaining := time.Until(msg.Deadline); remaining > 0 {
			if sqsScheduler == nil {
				log.Printf("ERROR: expiry for request %s due in %s but no scheduler configured", msg.RequestId, remaining)
				continue
			}
			req := &models.SwapRequest{Id: msg.RequestId, BookId: msg.BookId}
			if err := sqsScheduler.ScheduleExpiry(ctx, req, remaining); err != nil {
				log.Printf("ERROR: failed to re-enqueue expiry for request %s: %v", msg.RequestId, err)
				return err
			}
			log.Printf("Re-enqueued expiry for request %s, due in %s", msg.RequestId, remaining)
			continue
		}

		expired, err := tracker.ExpireReservation(ctx, msg.RequestId)
		if err != nil {
			log.Printf("ERROR: failed to expire reservation for request %s: %v", msg.RequestId, err)
			return err
		}
		if expired {
			log.Printf("Expired reservation for request %s", msg.RequestId)
		} else {
			log.Printf("Request %s no longer reserved, nothing to expire", msg.RequestId)
		}
	}

	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
