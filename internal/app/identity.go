package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"booksphere/internal/util"
	"booksphere/pkg/domain"
	"booksphere/pkg/store"
)

// Identity owns the user records: credentials, roles, wallets, and wishlist
// membership. All mutations end with a full-collection save.
type Identity struct {
	mu    sync.RWMutex
	store store.Store
	users []domain.User
}

// NewIdentity loads the users collection, seeding built-in accounts when the
// store has never been written.
func NewIdentity(ctx context.Context, s store.Store) (*Identity, error) {
	users, ok, err := store.LoadCollection[domain.User](ctx, s, store.CollectionUsers)
	if err != nil {
		return nil, err
	}
	if !ok {
		users = seedUsers()
		if err := store.SaveCollection(ctx, s, store.CollectionUsers, users); err != nil {
			return nil, fmt.Errorf("seed users: %w", err)
		}
	}
	for i := range users {
		if users[i].Wishlist == nil {
			users[i].Wishlist = []string{}
		}
	}
	return &Identity{store: s, users: users}, nil
}

// Login matches email and credential exactly. A mismatch is an absent
// result, not an error; credential hardening lives outside this layer.
func (i *Identity) Login(_ context.Context, email, password string) (domain.User, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	for _, u := range i.users {
		if u.Email == email && u.Password == password {
			return copyUser(u), true
		}
	}
	return domain.User{}, false
}

// Register creates a reader account with an empty wishlist and zero wallet.
func (i *Identity) Register(ctx context.Context, name, email, password string) (domain.User, error) {
	return i.create(ctx, name, email, password, domain.RoleReader)
}

// CreateSeller provisions a seller account. This is the only path that
// creates sellers; self-service registration always yields readers.
func (i *Identity) CreateSeller(ctx context.Context, name, email, password string) (domain.User, error) {
	return i.create(ctx, name, email, password, domain.RoleSeller)
}

func (i *Identity) create(ctx context.Context, name, email, password string, role domain.UserRole) (domain.User, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, u := range i.users {
		if u.Email == email {
			return domain.User{}, ErrDuplicateEmail
		}
	}
	user := domain.User{
		ID:            util.NewID(),
		Name:          name,
		Email:         email,
		Password:      password,
		Role:          role,
		WalletBalance: 0,
		Avatar:        avatarURL(name),
		Wishlist:      []string{},
	}
	i.users = append(i.users, user)
	if err := store.SaveCollection(ctx, i.store, store.CollectionUsers, i.users); err != nil {
		return domain.User{}, err
	}
	return copyUser(user), nil
}

// GetUser returns a user by ID.
func (i *Identity) GetUser(_ context.Context, id string) (domain.User, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	for _, u := range i.users {
		if u.ID == id {
			return copyUser(u), true
		}
	}
	return domain.User{}, false
}

// ListUsers returns all users in stored order.
func (i *Identity) ListUsers(_ context.Context) []domain.User {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]domain.User, 0, len(i.users))
	for _, u := range i.users {
		out = append(out, copyUser(u))
	}
	return out
}

// DeleteUser removes the record. Unknown IDs are a silent no-op; orders and
// reviews by the user stay behind as append-only history.
func (i *Identity) DeleteUser(ctx context.Context, id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	kept := i.users[:0]
	removed := false
	for _, u := range i.users {
		if u.ID == id {
			removed = true
			continue
		}
		kept = append(kept, u)
	}
	if !removed {
		return nil
	}
	i.users = kept
	return store.SaveCollection(ctx, i.store, store.CollectionUsers, i.users)
}

// ToggleWishlist removes the book on first match or appends it at the end.
// The returned membership is in add order, oldest first; callers wanting
// recently-added-first must reverse it themselves, since position is the
// only recency signal.
func (i *Identity) ToggleWishlist(ctx context.Context, userID, bookID string) ([]string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	idx := -1
	for n, u := range i.users {
		if u.ID == userID {
			idx = n
			break
		}
	}
	if idx < 0 {
		return nil, ErrUserNotFound
	}
	user := &i.users[idx]
	found := false
	for n, id := range user.Wishlist {
		if id == bookID {
			user.Wishlist = append(user.Wishlist[:n], user.Wishlist[n+1:]...)
			found = true
			break
		}
	}
	if !found {
		user.Wishlist = append(user.Wishlist, bookID)
	}
	if err := store.SaveCollection(ctx, i.store, store.CollectionUsers, i.users); err != nil {
		return nil, err
	}
	out := make([]string, len(user.Wishlist))
	copy(out, user.Wishlist)
	return out, nil
}

func copyUser(u domain.User) domain.User {
	wishlist := make([]string, len(u.Wishlist))
	copy(wishlist, u.Wishlist)
	u.Wishlist = wishlist
	return u
}

func avatarURL(name string) string {
	seed := url.PathEscape(strings.TrimSpace(name))
	if seed == "" {
		seed = "reader"
	}
	return "https://picsum.photos/seed/" + seed + "/100/100"
}
