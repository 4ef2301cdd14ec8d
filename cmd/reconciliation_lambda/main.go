package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	"github.com/openshelf/bookswap/pkg/availability"
	"github.com/openshelf/bookswap/pkg/storage"
	"github.com/openshelf/bookswap/pkg/storage/dynamodb"
)

var (
	store   storage.Storage
	tracker *availability.Tracker
)

// Reservations older than this are treated as abandoned even if their
// SQS expiry message was lost.
const staleReservationThreshold = 96 * time.Hour

func init() {
	// Load environment variables for local testing.
	godotenv.Load()

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

	store = dynamodb.New(dbClient, booksTable, usersTable, wantlistsTable, swapsTable, connectionsTable)
	tracker = availability.NewTracker(store, nil, nil)
}

// HandleRequest is triggered by an EventBridge Schedule. It expires
// reservations whose SQS expiry never arrived, then repairs any book
// whose status drifted from its request set.
func HandleRequest(ctx context.Context) error {
	log.Println("Starting reconciliation process...")

	staleReqs, err := store.GetStaleReservations(ctx, staleReservationThreshold)
	if err != nil {
		log.Printf("ERROR: failed to get stale reservations: %v", err)
		return err
	}

	for _, req := range staleReqs {
		expired, err := tracker.ExpireReservation(ctx, req.Id)
		if err != nil {
			log.Printf("ERROR: failed to expire stale reservation %s: %v", req.Id, err)
			// Continue to the next request, don't let one failure stop the whole batch.
			continue
		}
		if expired {
			log.Printf("Expired stale reservation %s on book %s", req.Id, req.BookId)
		}
	}

	report, err := tracker.Reconcile(ctx)
	if err != nil {
		log.Printf("ERROR: reconciliation failed: %v", err)
		return err
	}

	log.Printf("Reconciliation finished: %d books checked, %d double-accepts repaired, %d resettled",
		report.BooksChecked, report.DoubleAccepts, report.Resettled)
	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
