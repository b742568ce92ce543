package ai

import (
	"context"

	"booksphere/pkg/domain"
)

// Advisor is the external AI collaborator. It is advisory only: the core
// must stay correct when every method errors or returns nothing.
type Advisor interface {
	// Recommend suggests approved books matching a free-text query.
	// Suggestions reference IDs from the given list only.
	Recommend(ctx context.Context, query string, available []domain.Book) ([]domain.Suggestion, error)

	// GenerateBookMetadata drafts listing copy for a new title.
	GenerateBookMetadata(ctx context.Context, title, author string) (domain.BookMetadata, error)

	// Chat answers a storefront assistant message given prior turns.
	Chat(ctx context.Context, message string, history []string) (string, error)
}
