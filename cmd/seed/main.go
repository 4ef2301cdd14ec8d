// Command seed populates the swap tables with a small demo community:
// a dozen listed books across Jerusalem neighborhoods, their owners,
// and a few reciprocal wantlists so match results are non-empty out of
// the box.
package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	"github.com/openshelf/bookswap/pkg/models"
	"github.com/openshelf/bookswap/pkg/storage"
	"github.com/openshelf/bookswap/pkg/storage/dynamodb"
)

type seedBook struct {
	title        string
	author       string
	description  string
	condition    models.BookCondition
	owner        string
	neighborhood string
}

var seedBooks = []seedBook{
	{"To Kill a Mockingbird", "Harper Lee", "A classic of American literature about racial injustice in the Deep South during the 1930s.", models.GOOD, "Sarah", "Baka"},
	{"1984", "George Orwell", "A dystopian novel about totalitarianism, surveillance, and the manipulation of truth.", models.VERY_GOOD, "David", "German Colony"},
	{"The Great Gatsby", "F. Scott Fitzgerald", "A story of wealth, love, and the American Dream in the Jazz Age.", models.LIKE_NEW, "Rachel", "Rehavia"},
	{"Pride and Prejudice", "Jane Austen", "A romantic novel of manners set in early 19th-century England.", models.GOOD, "Michael", "Katamon"},
	{"The Catcher in the Rye", "J.D. Salinger", "A classic novel about teenage alienation and the loss of innocence.", models.FAIR, "Leah", "City Center"},
	{"The Hobbit", "J.R.R. Tolkien", "A fantasy adventure about a hobbit who joins a quest to reclaim a dwarf kingdom.", models.GOOD, "Jonathan", "Nachlaot"},
	{"Harry Potter and the Philosopher's Stone", "J.K. Rowling", "The first book in the Harry Potter series about a young wizard.", models.VERY_GOOD, "Emily", "Baka"},
	{"The Alchemist", "Paulo Coelho", "A philosophical novel about a shepherd boy's journey to find treasure in Egypt.", models.LIKE_NEW, "Daniel", "German Colony"},
	{"Sapiens: A Brief History of Humankind", "Yuval Noah Harari", "A book that explores the history and impact of Homo sapiens on the world.", models.LIKE_NEW, "Naomi", "Rehavia"},
	{"The Kite Runner", "Khaled Hosseini", "A novel about friendship, betrayal, and redemption set in Afghanistan.", models.GOOD, "Adam", "French Hill"},
	{"Educated", "Tara Westover", "A memoir about a woman who leaves her survivalist family and goes on to earn a PhD.", models.VERY_GOOD, "Hannah", "Katamon"},
	{"The Silent Patient", "Alex Michaelides", "A psychological thriller about a woman who stops speaking after shooting her husband.", models.LIKE_NEW, "Ben", "City Center"},
}

// wantlist queries per owner name; chosen so several pairs want each
// other's listings.
var seedWantlists = map[string][]string{
	"Sarah":    {"1984", "Sapiens"},
	"David":    {"Mockingbird", "The Hobbit"},
	"Rachel":   {"Kite Runner", "Educated"},
	"Michael":  {"Harry Potter"},
	"Leah":     {"Gatsby", "The Alchemist"},
	"Jonathan": {"Orwell"},
	"Emily":    {"Pride and Prejudice"},
	"Daniel":   {"Catcher in the Rye"},
	"Naomi":    {"Mockingbird"},
	"Adam":     {"The Great Gatsby"},
	"Hannah":   {"Silent Patient"},
	"Ben":      {"Westover"},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	dbClient := awsdynamodb.NewFromConfig(cfg)
	store := dynamodb.New(dbClient,
		os.Getenv("DYNAMODB_BOOKS_TABLE_NAME"),
		os.Getenv("DYNAMODB_USERS_TABLE_NAME"),
		os.Getenv("DYNAMODB_WANTLISTS_TABLE_NAME"),
		os.Getenv("DYNAMODB_SWAP_REQUESTS_TABLE_NAME"),
		os.Getenv("DYNAMODB_CONNECTIONS_TABLE_NAME"),
	)

	if err := seed(context.Background(), store); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Println("Seeding complete")
}

func seed(ctx context.Context, store storage.Storage) error {
	userIDs := make(map[string]string)

	for _, sb := range seedBooks {
		if _, ok := userIDs[sb.owner]; ok {
			continue
		}
		user, err := store.CreateUser(ctx, &models.User{
			Name:         sb.owner,
			Neighborhood: sb.neighborhood,
		})
		if err != nil {
			return err
		}
		userIDs[sb.owner] = user.Id
		log.Printf("Created user %s (%s)", sb.owner, user.Id)
	}

	for _, sb := range seedBooks {
		book, err := store.CreateBook(ctx, &models.Book{
			Title:        sb.title,
			Author:       sb.author,
			Description:  sb.description,
			Condition:    sb.condition,
			OwnerId:      userIDs[sb.owner],
			Neighborhood: sb.neighborhood,
		})
		if err != nil {
			return err
		}
		log.Printf("Listed %q for %s (%s)", book.Title, sb.owner, book.Id)
	}

	for owner, queries := range seedWantlists {
		for _, q := range queries {
			if _, err := store.AddWantlistEntry(ctx, &models.WantlistEntry{
				UserId: userIDs[owner],
				Query:  q,
			}); err != nil {
				return err
			}
		}
		log.Printf("Added %d wantlist entries for %s", len(queries), owner)
	}

	return nil
}
