// Package matching finds, for a given user, other users with reciprocal
// book interest and ranks them. Scoring is read-only over one catalog
// snapshot plus the wantlists, so a concurrent listing or status change
// can never produce a half-updated result.
package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/openshelf/bookswap/pkg/catalog"
	"github.com/openshelf/bookswap/pkg/models"
	"github.com/openshelf/bookswap/pkg/storage"
	"github.com/panjf2000/ants/v2"
)

// MaxScore is the top of the fixed display scale.
const MaxScore = 10

// Weights holds the per-direction scoring weights. Mutual interest is
// rewarded from both directions; the defaults weigh them equally.
type Weights struct {
	// TheirsIWant scores each of the candidate's available books that
	// resolves from the querying user's wantlist.
	TheirsIWant int
	// MineTheyWant scores each of the querying user's available books
	// that resolves from the candidate's wantlist.
	MineTheyWant int
}

// DefaultWeights is the standard two-sided scoring.
var DefaultWeights = Weights{TheirsIWant: 2, MineTheyWant: 2}

// Matcher computes ranked match candidates. Candidate users are scored
// concurrently on a shared worker pool.
type Matcher struct {
	users      storage.UserStore
	wantlists  storage.WantlistReader
	index      *catalog.Index
	pool       *ants.Pool
	weights    Weights
	maxResults int
	logger     *slog.Logger
}

// Option configures a Matcher.
type Option func(*Matcher) error

// WithPoolSize sets the worker pool size for concurrent candidate
// scoring. Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(m *Matcher) error {
		if size < 1 {
			size = 1
		}
		if m.pool != nil {
			m.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		m.pool = pool
		return nil
	}
}

// WithMaxResults caps how many candidates a query returns. Zero means
// unlimited, which is the default.
func WithMaxResults(n int) Option {
	return func(m *Matcher) error {
		if n < 0 {
			return errors.New("max results must not be negative")
		}
		m.maxResults = n
		return nil
	}
}

// WithWeights overrides DefaultWeights. Both weights must be positive.
func WithWeights(w Weights) Option {
	return func(m *Matcher) error {
		if w.TheirsIWant < 1 || w.MineTheyWant < 1 {
			return errors.New("scoring weights must be positive")
		}
		m.weights = w
		return nil
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) error {
		if logger != nil {
			m.logger = logger
		}
		return nil
	}
}

// NewMatcher creates a Matcher over the given stores and catalog index.
func NewMatcher(users storage.UserStore, wantlists storage.WantlistReader, index *catalog.Index, opts ...Option) (*Matcher, error) {
	if users == nil {
		return nil, errors.New("user store is required")
	}
	if wantlists == nil {
		return nil, errors.New("wantlist reader is required")
	}
	if index == nil {
		return nil, errors.New("catalog index is required")
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	m := &Matcher{
		users:     users,
		wantlists: wantlists,
		index:     index,
		pool:      pool,
		weights:   DefaultWeights,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(m); optErr != nil {
			m.Release()
			return nil, optErr
		}
	}
	return m, nil
}

// Release releases the worker pool. The matcher should not be used
// after calling Release.
func (m *Matcher) Release() {
	if m.pool != nil {
		m.pool.Release()
	}
}

// Matches returns the ranked match candidates for the given user.
// An empty result is a valid answer, not an error; the only lookup
// failure surfaced is NotFoundError for an unknown user. Results are
// ordered by descending score, ties broken by ascending user id.
func (m *Matcher) Matches(ctx context.Context, userID string) ([]models.MatchCandidate, error) {
	if _, err := m.users.GetUser(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &models.NotFoundError{Kind: "user", Id: userID}
		}
		return nil, fmt.Errorf("failed to get user %s: %w", userID, err)
	}

	myEntries, err := m.wantlists.ListWantlist(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wantlist for user %s: %w", userID, err)
	}
	allEntries, err := m.wantlists.LoadAllWantlists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load wantlists: %w", err)
	}
	candidates, err := m.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	// One snapshot for the whole computation.
	snapshot := m.index.Snapshot()

	var myOffered []models.Book
	available := make([]models.Book, 0, len(snapshot))
	for _, b := range snapshot {
		if !b.Available() {
			continue
		}
		available = append(available, b)
		if b.OwnerId == userID {
			myOffered = append(myOffered, b)
		}
	}

	// myWanted keyed by book id; entry matching already excludes the
	// user's own books.
	myWanted := make(map[string]models.Book)
	for i := range myEntries {
		for _, b := range available {
			if myEntries[i].Matches(&b) {
				myWanted[b.Id] = b
			}
		}
	}

	entriesByUser := make(map[string][]models.WantlistEntry)
	for _, e := range allEntries {
		entriesByUser[e.UserId] = append(entriesByUser[e.UserId], e)
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []models.MatchCandidate
	)
	for i := range candidates {
		u := candidates[i]
		if u.Id == userID {
			continue
		}

		score := func() {
			defer wg.Done()
			c, ok := m.scoreCandidate(&u, myOffered, myWanted, entriesByUser[u.Id])
			if !ok {
				return
			}
			mu.Lock()
			results = append(results, c)
			mu.Unlock()
		}

		wg.Add(1)
		if err := m.pool.Submit(score); err != nil {
			// Pool released or overloaded; score inline rather than
			// dropping the candidate.
			m.logger.Warn("scoring candidate inline", "userId", u.Id, "error", err)
			score()
		}
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].UserId < results[j].UserId
	})
	if m.maxResults > 0 && len(results) > m.maxResults {
		results = results[:m.maxResults]
	}
	return results, nil
}

// scoreCandidate builds the MatchCandidate for one other user. A user
// with no overlap in either direction yields no candidate.
func (m *Matcher) scoreCandidate(u *models.User, myOffered []models.Book, myWanted map[string]models.Book, theirEntries []models.WantlistEntry) (models.MatchCandidate, bool) {
	var theirsIWant []models.Book
	for _, b := range myWanted {
		if b.OwnerId == u.Id {
			theirsIWant = append(theirsIWant, b)
		}
	}
	sort.Slice(theirsIWant, func(i, j int) bool { return theirsIWant[i].Id < theirsIWant[j].Id })

	mineTheyWant := 0
	for i := range myOffered {
		for j := range theirEntries {
			if theirEntries[j].Matches(&myOffered[i]) {
				mineTheyWant++
				break
			}
		}
	}

	if len(theirsIWant) == 0 && mineTheyWant == 0 {
		return models.MatchCandidate{}, false
	}

	score := m.weights.TheirsIWant*len(theirsIWant) + m.weights.MineTheyWant*mineTheyWant
	if score > MaxScore {
		score = MaxScore
	}

	// The two directions name the same overlap set; the reciprocal
	// field exists for the presentation layer's wording.
	return models.MatchCandidate{
		UserId:                  u.Id,
		Name:                    u.Name,
		Neighborhood:            u.Neighborhood,
		BooksTheyOfferThatIWant: theirsIWant,
		BooksIWantThatTheyOffer: theirsIWant,
		Score:                   score,
	}, true
}
