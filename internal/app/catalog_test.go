package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"booksphere/pkg/domain"
	"booksphere/pkg/store"
)

// stubRecommender returns canned suggestions for the search fallback.
type stubRecommender struct {
	suggestions []domain.Suggestion
	err         error
	calls       int
	lastQuery   string
}

func (s *stubRecommender) Recommend(_ context.Context, query string, _ []domain.Book) ([]domain.Suggestion, error) {
	s.calls++
	s.lastQuery = query
	return s.suggestions, s.err
}

func newTestCatalog(t *testing.T, rec Recommender) *Catalog {
	t.Helper()
	catalog, err := NewCatalog(context.Background(), store.NewMemoryStore(), rec)
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	return catalog
}

func TestCatalogSeedsApprovedBooks(t *testing.T) {
	catalog := newTestCatalog(t, nil)

	books := catalog.GetBooks(context.Background())
	if len(books) != 3 {
		t.Fatalf("expected 3 seed books, got %d", len(books))
	}
	for _, b := range books {
		if b.Status != domain.StatusApproved {
			t.Fatalf("seed book %s not approved: %q", b.ID, b.Status)
		}
	}
}

func TestAddBookStartsPending(t *testing.T) {
	catalog := newTestCatalog(t, nil)
	ctx := context.Background()

	book, err := catalog.AddBook(ctx, Listing{Title: "New Title", Author: "A. Writer", Price: 9.99, SellerID: "s1"})
	if err != nil {
		t.Fatalf("add book: %v", err)
	}
	if book.Status != domain.StatusPending {
		t.Fatalf("expected pending, got %q", book.Status)
	}
	if book.ID == "" || book.AddedAt.IsZero() {
		t.Fatalf("expected assigned id and timestamp, got %+v", book)
	}

	// Pending listings are invisible to the storefront list.
	for _, b := range catalog.GetBooks(ctx) {
		if b.ID == book.ID {
			t.Fatalf("pending book leaked into approved list")
		}
	}
	pending := catalog.GetPendingBooks(ctx)
	if len(pending) != 1 || pending[0].ID != book.ID {
		t.Fatalf("expected pending queue [%s], got %+v", book.ID, pending)
	}
}

func TestAddBookRejectsNegativePrice(t *testing.T) {
	catalog := newTestCatalog(t, nil)
	ctx := context.Background()
	before := len(catalog.GetPendingBooks(ctx))

	_, err := catalog.AddBook(ctx, Listing{Title: "Bad", Price: -1})
	if !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
	if got := len(catalog.GetPendingBooks(ctx)); got != before {
		t.Fatalf("rejected listing still entered the catalog")
	}
}

func TestModerationTransitionsAreOneWay(t *testing.T) {
	catalog := newTestCatalog(t, nil)
	ctx := context.Background()

	book, err := catalog.AddBook(ctx, Listing{Title: "Queue Me", Price: 5})
	if err != nil {
		t.Fatalf("add book: %v", err)
	}
	if err := catalog.ApproveBook(ctx, book.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	got, _ := catalog.GetBookByID(ctx, book.ID)
	if got.Status != domain.StatusApproved {
		t.Fatalf("expected approved, got %q", got.Status)
	}

	// A second moderation action on a terminal book is a no-op.
	if err := catalog.RejectBook(ctx, book.ID); err != nil {
		t.Fatalf("reject after approve: %v", err)
	}
	got, _ = catalog.GetBookByID(ctx, book.ID)
	if got.Status != domain.StatusApproved {
		t.Fatalf("terminal status changed to %q", got.Status)
	}

	// Unknown IDs are silently ignored.
	if err := catalog.ApproveBook(ctx, "no-such-book"); err != nil {
		t.Fatalf("approve unknown: %v", err)
	}
}

func TestDeleteBookSilentOnUnknown(t *testing.T) {
	catalog := newTestCatalog(t, nil)
	ctx := context.Background()

	if err := catalog.DeleteBook(ctx, "no-such-book"); err != nil {
		t.Fatalf("delete unknown: %v", err)
	}
	if err := catalog.DeleteBook(ctx, "b1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := catalog.GetBookByID(ctx, "b1"); ok {
		t.Fatalf("expected b1 to be gone")
	}
}

func TestSearchBooksMatchesApprovedOnly(t *testing.T) {
	catalog := newTestCatalog(t, nil)
	ctx := context.Background()

	pending, err := catalog.AddBook(ctx, Listing{Title: "Artificial Minds", Price: 5})
	if err != nil {
		t.Fatalf("add book: %v", err)
	}

	results := catalog.SearchBooks(ctx, "mystery")
	if len(results) != 1 || results[0].ID != "b2" {
		t.Fatalf("expected [b2], got %+v", results)
	}
	for _, b := range catalog.SearchBooks(ctx, "artificial") {
		if b.ID == pending.ID {
			t.Fatalf("pending book surfaced in search")
		}
	}
}

func TestSearchBooksMatchesTagsCaseInsensitively(t *testing.T) {
	catalog := newTestCatalog(t, nil)

	results := catalog.SearchBooks(context.Background(), "SPACE")
	if len(results) != 1 || results[0].ID != "b3" {
		t.Fatalf("expected tag match [b3], got %+v", results)
	}
}

func TestSearchFallbackConsultsRecommenderOnlyWhenEmpty(t *testing.T) {
	rec := &stubRecommender{suggestions: []domain.Suggestion{{BookID: "b1", Reason: "close match"}}}
	catalog := newTestCatalog(t, rec)
	ctx := context.Background()

	// Direct hit: the recommender must not be consulted.
	if got := catalog.SearchBooks(ctx, "mystery"); len(got) != 1 {
		t.Fatalf("expected direct match, got %+v", got)
	}
	if rec.calls != 0 {
		t.Fatalf("recommender consulted despite direct match")
	}

	// Miss: fallback kicks in.
	results := catalog.SearchBooks(ctx, "books about sentient machines")
	if rec.calls != 1 {
		t.Fatalf("expected one recommender call, got %d", rec.calls)
	}
	if len(results) != 1 || results[0].ID != "b1" {
		t.Fatalf("expected fallback [b1], got %+v", results)
	}
}

func TestSearchFallbackDropsUnknownAndUnapprovedIDs(t *testing.T) {
	rec := &stubRecommender{}
	catalog := newTestCatalog(t, rec)
	ctx := context.Background()

	pending, err := catalog.AddBook(ctx, Listing{Title: "Hidden", Price: 5})
	if err != nil {
		t.Fatalf("add book: %v", err)
	}
	rec.suggestions = []domain.Suggestion{
		{BookID: "no-such-id", Reason: "hallucinated"},
		{BookID: pending.ID, Reason: "not yet approved"},
		{BookID: "b3", Reason: "real"},
	}

	results := catalog.SearchBooks(ctx, "xyzzy")
	if len(results) != 1 || results[0].ID != "b3" {
		t.Fatalf("expected only approved suggestion [b3], got %+v", results)
	}
}

func TestSearchFallbackDegradesOnRecommenderError(t *testing.T) {
	rec := &stubRecommender{err: fmt.Errorf("model offline")}
	catalog := newTestCatalog(t, rec)

	results := catalog.SearchBooks(context.Background(), "xyzzy")
	if len(results) != 0 {
		t.Fatalf("expected empty result on recommender error, got %+v", results)
	}
}

func TestApplyReviewScoreWeightedMean(t *testing.T) {
	catalog := newTestCatalog(t, nil)
	ctx := context.Background()

	book, err := catalog.AddBook(ctx, Listing{Title: "Fresh", Price: 5})
	if err != nil {
		t.Fatalf("add book: %v", err)
	}

	// First review of an unrated book sets the rating outright.
	updated, err := catalog.ApplyReviewScore(ctx, book.ID, 4)
	if err != nil || !updated {
		t.Fatalf("apply first score: updated=%v err=%v", updated, err)
	}
	got, _ := catalog.GetBookByID(ctx, book.ID)
	if got.Rating != 4.0 || got.ReviewsCount != 1 {
		t.Fatalf("expected 4.0/1, got %v/%d", got.Rating, got.ReviewsCount)
	}

	// (4*1 + 5) / 2 = 4.5
	if _, err := catalog.ApplyReviewScore(ctx, book.ID, 5); err != nil {
		t.Fatalf("apply second score: %v", err)
	}
	got, _ = catalog.GetBookByID(ctx, book.ID)
	if got.Rating != 4.5 || got.ReviewsCount != 2 {
		t.Fatalf("expected 4.5/2, got %v/%d", got.Rating, got.ReviewsCount)
	}

	// (4.5*2 + 3) / 3 = 4.0
	if _, err := catalog.ApplyReviewScore(ctx, book.ID, 3); err != nil {
		t.Fatalf("apply third score: %v", err)
	}
	got, _ = catalog.GetBookByID(ctx, book.ID)
	if got.Rating != 4.0 || got.ReviewsCount != 3 {
		t.Fatalf("expected 4.0/3, got %v/%d", got.Rating, got.ReviewsCount)
	}
}

func TestApplyReviewScoreRoundsToOneDecimal(t *testing.T) {
	catalog := newTestCatalog(t, nil)
	ctx := context.Background()

	book, err := catalog.AddBook(ctx, Listing{Title: "Rounded", Price: 5})
	if err != nil {
		t.Fatalf("add book: %v", err)
	}
	for _, score := range []int{5, 4, 4} {
		if _, err := catalog.ApplyReviewScore(ctx, book.ID, score); err != nil {
			t.Fatalf("apply score: %v", err)
		}
	}
	// Raw mean walks 5 -> 4.5 -> (4.5*2+4)/3 = 4.333..., stored as 4.3.
	got, _ := catalog.GetBookByID(ctx, book.ID)
	if got.Rating != 4.3 {
		t.Fatalf("expected 4.3, got %v", got.Rating)
	}
}

func TestApplyReviewScoreMissingBook(t *testing.T) {
	catalog := newTestCatalog(t, nil)

	updated, err := catalog.ApplyReviewScore(context.Background(), "no-such-book", 5)
	if err != nil {
		t.Fatalf("apply score: %v", err)
	}
	if updated {
		t.Fatalf("expected no update for missing book")
	}
}
