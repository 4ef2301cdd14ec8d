package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/openshelf/bookswap/pkg/availability"
	"github.com/openshelf/bookswap/pkg/catalog"
	"github.com/openshelf/bookswap/pkg/handlers/books"
	"github.com/openshelf/bookswap/pkg/handlers/matches"
	"github.com/openshelf/bookswap/pkg/handlers/swaps"
	"github.com/openshelf/bookswap/pkg/handlers/users"
	"github.com/openshelf/bookswap/pkg/matching"
	"github.com/openshelf/bookswap/pkg/middleware"
	"github.com/openshelf/bookswap/pkg/notify"
	"github.com/openshelf/bookswap/pkg/scheduler"
	"github.com/openshelf/bookswap/pkg/storage"
	"github.com/openshelf/bookswap/pkg/storage/dynamodb"
	"github.com/openshelf/bookswap/pkg/storage/memory"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	var (
		store     storage.Storage
		publisher notify.Publisher
		localHub  *notify.LocalHub
		awsCfg    aws.Config
	)

	if os.Getenv("LOCAL_MODE") == "true" {
		// Local development: in-memory storage and an in-process
		// WebSocket hub instead of DynamoDB and API Gateway.
		store = memory.New()
		localHub = notify.NewLocalHub()
		publisher = localHub
		logger.Info("running in local mode with in-memory storage")
	} else {
		cfg, err := config.LoadDefaultConfig(context.TODO())
		if err != nil {
			log.Fatalf("unable to load SDK config, %v", err)
		}
		awsCfg = cfg

		dbClient := awsdynamodb.NewFromConfig(cfg)
		booksTable := os.Getenv("DYNAMODB_BOOKS_TABLE_NAME")
		usersTable := os.Getenv("DYNAMODB_USERS_TABLE_NAME")
		wantlistsTable := os.Getenv("DYNAMODB_WANTLISTS_TABLE_NAME")
		swapsTable := os.Getenv("DYNAMODB_SWAP_REQUESTS_TABLE_NAME")
		connectionsTable := os.Getenv("DYNAMODB_CONNECTIONS_TABLE_NAME")

		if booksTable == "" || usersTable == "" || wantlistsTable == "" || swapsTable == "" {
			log.Fatal("One or more DynamoDB table name environment variables are not set")
		}

		dynamoStore := dynamodb.New(dbClient, booksTable, usersTable, wantlistsTable, swapsTable, connectionsTable)
		store = dynamoStore

		if endpoint := os.Getenv("WEBSOCKET_API_ENDPOINT"); endpoint != "" {
			publisher, err = notify.NewPublisher(dynamoStore, dynamoStore, endpoint)
			if err != nil {
				log.Fatalf("failed to create websocket publisher: %v", err)
			}
		} else {
			publisher = &notify.NoOpPublisher{}
		}
	}

	// Warm the catalog index from storage.
	index := catalog.New()
	allBooks, err := store.LoadAllBooks(context.Background())
	if err != nil {
		log.Fatalf("failed to load books for catalog index: %v", err)
	}
	if rejected := index.Rebuild(allBooks); len(rejected) > 0 {
		logger.Warn("skipped malformed books while building catalog index", "count", len(rejected))
	}
	logger.Info("catalog index ready", "books", index.Len())

	trackerOpts := []availability.Option{availability.WithLogger(logger)}
	if queueURL := os.Getenv("SQS_EXPIRY_QUEUE_URL"); queueURL != "" && localHub == nil {
		sqsClient := sqs.NewFromConfig(awsCfg)
		trackerOpts = append(trackerOpts, availability.WithScheduler(scheduler.NewSQSScheduler(sqsClient, queueURL)))
	}
	tracker := availability.NewTracker(store, index, publisher, trackerOpts...)

	matcher, err := matching.NewMatcher(store, store, index, matching.WithLogger(logger))
	if err != nil {
		log.Fatalf("failed to create matcher: %v", err)
	}
	defer matcher.Release()

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(middleware.NewStructuredLogger(logger))
	router.Use(chimiddleware.Recoverer)

	router.Mount("/books", books.NewHandler(store, index, publisher).Routes())
	router.Mount("/users", users.NewHandler(store).Routes())
	router.Mount("/matches", matches.NewHandler(matcher).Routes())
	router.Mount("/swaps", swaps.NewHandler(tracker, store).Routes())
	if localHub != nil {
		router.Handle("/ws", localHub)
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080" // Default port if not specified
	}

	log.Printf("Starting server on port %s", port)

	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
