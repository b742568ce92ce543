package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"booksphere/internal/util"
	"booksphere/pkg/domain"
	"booksphere/pkg/store"
)

// Reviews owns the review records. It never edits or deletes a review, and
// each accepted review triggers exactly one rating update on the catalog.
type Reviews struct {
	mu      sync.RWMutex
	store   store.Store
	reviews []domain.Review
	catalog *Catalog
}

// NewReviews loads the reviews collection, seeding the built-in review when
// the store has never been written.
func NewReviews(ctx context.Context, s store.Store, catalog *Catalog) (*Reviews, error) {
	reviews, ok, err := store.LoadCollection[domain.Review](ctx, s, store.CollectionReviews)
	if err != nil {
		return nil, err
	}
	if !ok {
		reviews = seedReviews()
		if err := store.SaveCollection(ctx, s, store.CollectionReviews, reviews); err != nil {
			return nil, err
		}
	}
	return &Reviews{store: s, reviews: reviews, catalog: catalog}, nil
}

// GetReviews returns a book's reviews newest first.
func (r *Reviews) GetReviews(_ context.Context, bookID string) []domain.Review {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Review, 0, len(r.reviews))
	for _, rev := range r.reviews {
		if rev.BookID == bookID {
			out = append(out, rev)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Date.After(out[b].Date)
	})
	return out
}

// AddReview records a review and folds its score into the book's rating.
// When the book no longer exists the review is still recorded and the
// skipped rating update is logged rather than silently dropped.
func (r *Reviews) AddReview(ctx context.Context, bookID, userID, userName string, score int, comment string) (domain.Review, error) {
	if score < 1 || score > 5 {
		return domain.Review{}, ErrInvalidScore
	}
	r.mu.Lock()
	review := domain.Review{
		ID:       util.NewID(),
		BookID:   bookID,
		UserID:   userID,
		UserName: userName,
		Rating:   score,
		Comment:  comment,
		Date:     time.Now().UTC(),
	}
	r.reviews = append(r.reviews, review)
	if err := store.SaveCollection(ctx, r.store, store.CollectionReviews, r.reviews); err != nil {
		r.mu.Unlock()
		return domain.Review{}, err
	}
	r.mu.Unlock()

	updated, err := r.catalog.ApplyReviewScore(ctx, bookID, score)
	if err != nil {
		return domain.Review{}, err
	}
	if !updated {
		util.LoggerFromContext(ctx).Warn("rating update skipped, book missing", "book_id", bookID, "review_id", review.ID)
	}
	return review, nil
}

// CountForBook reports how many review records reference the book.
func (r *Reviews) CountForBook(_ context.Context, bookID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, rev := range r.reviews {
		if rev.BookID == bookID {
			count++
		}
	}
	return count
}
