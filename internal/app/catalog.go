package app

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"booksphere/internal/util"
	"booksphere/pkg/domain"
	"booksphere/pkg/store"
)

// Recommender is the slice of the AI collaborator the catalog needs for its
// search fallback. It is advisory: a nil or failing recommender degrades to
// an empty search result.
type Recommender interface {
	Recommend(ctx context.Context, query string, available []domain.Book) ([]domain.Suggestion, error)
}

// Listing carries the seller-supplied fields of a new book. ID, rating,
// moderation status, and timestamps are assigned by the catalog.
type Listing struct {
	Title       string
	Author      string
	Description string
	Price       float64
	ISBN        string
	Category    string
	CoverImage  string
	SellerID    string
	Tags        []string
	FileURL     string
	APISource   string
}

// Catalog owns the book records and the moderation workflow. Every new
// listing starts pending; pending -> approved and pending -> rejected are
// the only transitions and both are terminal.
type Catalog struct {
	mu          sync.RWMutex
	store       store.Store
	books       []domain.Book
	recommender Recommender
}

// NewCatalog loads the books collection, seeding the built-in titles when
// the store has never been written.
func NewCatalog(ctx context.Context, s store.Store, recommender Recommender) (*Catalog, error) {
	books, ok, err := store.LoadCollection[domain.Book](ctx, s, store.CollectionBooks)
	if err != nil {
		return nil, err
	}
	if !ok {
		books = seedBooks()
		if err := store.SaveCollection(ctx, s, store.CollectionBooks, books); err != nil {
			return nil, err
		}
	}
	return &Catalog{store: s, books: books, recommender: recommender}, nil
}

// AddBook registers a new pending listing.
func (c *Catalog) AddBook(ctx context.Context, listing Listing) (domain.Book, error) {
	if listing.Price < 0 {
		return domain.Book{}, ErrInvalidPrice
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	book := domain.Book{
		ID:          util.NewID(),
		Title:       listing.Title,
		Author:      listing.Author,
		Description: listing.Description,
		Price:       listing.Price,
		ISBN:        listing.ISBN,
		Category:    listing.Category,
		CoverImage:  listing.CoverImage,
		SellerID:    listing.SellerID,
		Tags:        listing.Tags,
		Status:      domain.StatusPending,
		AddedAt:     time.Now().UTC(),
		FileURL:     listing.FileURL,
		APISource:   listing.APISource,
	}
	c.books = append(c.books, book)
	if err := store.SaveCollection(ctx, c.store, store.CollectionBooks, c.books); err != nil {
		return domain.Book{}, err
	}
	return book, nil
}

// GetBooks returns all approved books in stored order.
func (c *Catalog) GetBooks(_ context.Context) []domain.Book {
	return c.booksWithStatus(domain.StatusApproved)
}

// GetPendingBooks returns the moderation queue.
func (c *Catalog) GetPendingBooks(_ context.Context) []domain.Book {
	return c.booksWithStatus(domain.StatusPending)
}

func (c *Catalog) booksWithStatus(status domain.BookStatus) []domain.Book {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Book, 0, len(c.books))
	for _, b := range c.books {
		if b.Status == status {
			out = append(out, b)
		}
	}
	return out
}

// GetBookByID returns a book regardless of moderation status.
func (c *Catalog) GetBookByID(_ context.Context, id string) (domain.Book, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, b := range c.books {
		if b.ID == id {
			return b, true
		}
	}
	return domain.Book{}, false
}

// ApproveBook moves a pending book to approved. Unknown IDs and books
// already in a terminal state are left untouched; moderation UIs may race
// on an already-actioned item.
func (c *Catalog) ApproveBook(ctx context.Context, id string) error {
	return c.moderate(ctx, id, domain.StatusApproved)
}

// RejectBook moves a pending book to rejected under the same rules.
func (c *Catalog) RejectBook(ctx context.Context, id string) error {
	return c.moderate(ctx, id, domain.StatusRejected)
}

func (c *Catalog) moderate(ctx context.Context, id string, status domain.BookStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for n := range c.books {
		if c.books[n].ID != id {
			continue
		}
		if c.books[n].Status != domain.StatusPending {
			return nil
		}
		c.books[n].Status = status
		return store.SaveCollection(ctx, c.store, store.CollectionBooks, c.books)
	}
	return nil
}

// DeleteBook removes a listing. Unknown IDs are a silent no-op; reviews for
// the book remain as orphaned history.
func (c *Catalog) DeleteBook(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.books[:0]
	removed := false
	for _, b := range c.books {
		if b.ID == id {
			removed = true
			continue
		}
		kept = append(kept, b)
	}
	if !removed {
		return nil
	}
	c.books = kept
	return store.SaveCollection(ctx, c.store, store.CollectionBooks, c.books)
}

// SearchBooks matches the query case-insensitively against title, author,
// category, and tags of approved books. When the direct match is empty the
// AI collaborator is consulted; only suggested IDs that still resolve to
// approved books are returned. Callers fall back to GetBooks for an empty
// query instead of calling this.
func (c *Catalog) SearchBooks(ctx context.Context, query string) []domain.Book {
	approved := c.booksWithStatus(domain.StatusApproved)
	lower := strings.ToLower(query)
	matches := make([]domain.Book, 0, len(approved))
	for _, b := range approved {
		if bookMatches(b, lower) {
			matches = append(matches, b)
		}
	}
	if len(matches) > 0 || c.recommender == nil {
		return matches
	}

	suggestions, err := c.recommender.Recommend(ctx, query, approved)
	if err != nil {
		util.LoggerFromContext(ctx).Warn("search fallback failed", "query", query, "err", err)
		return matches
	}
	byID := make(map[string]domain.Book, len(approved))
	for _, b := range approved {
		byID[b.ID] = b
	}
	for _, s := range suggestions {
		if b, ok := byID[s.BookID]; ok {
			matches = append(matches, b)
		}
	}
	return matches
}

func bookMatches(b domain.Book, lowerQuery string) bool {
	if strings.Contains(strings.ToLower(b.Title), lowerQuery) ||
		strings.Contains(strings.ToLower(b.Author), lowerQuery) ||
		strings.Contains(strings.ToLower(b.Category), lowerQuery) {
		return true
	}
	for _, tag := range b.Tags {
		if strings.Contains(strings.ToLower(tag), lowerQuery) {
			return true
		}
	}
	return false
}

// ApplyReviewScore folds one new score into the book's aggregate rating:
// count' = count+1, rating' = round1((rating*count + score) / count').
// The read-modify-write and the save happen as one step under the catalog
// lock so concurrent review submissions cannot lose updates. The bool is
// false when the book no longer exists.
func (c *Catalog) ApplyReviewScore(ctx context.Context, bookID string, score int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for n := range c.books {
		if c.books[n].ID != bookID {
			continue
		}
		book := &c.books[n]
		newCount := book.ReviewsCount + 1
		book.Rating = round1((book.Rating*float64(book.ReviewsCount) + float64(score)) / float64(newCount))
		book.ReviewsCount = newCount
		if err := store.SaveCollection(ctx, c.store, store.CollectionBooks, c.books); err != nil {
			return true, err
		}
		return true, nil
	}
	return false, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
