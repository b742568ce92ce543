package app

import (
	"context"
	"fmt"
	"time"

	"booksphere/internal/config"
	"booksphere/pkg/ai"
	"booksphere/pkg/domain"
	"booksphere/pkg/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	StoreDriver   string
	DatabaseURL   string
	DataDir       string
	RedisAddr     string
	RedisPassword string
	JWTSecret     string
	SessionTTL    time.Duration
	GeminiAPIKey  string
	GeminiModel   string

	// Injection points for tests.
	Store    store.Store
	Sessions store.SessionStore
	Advisor  ai.Advisor
	Payments PaymentProcessor
}

// App wires the four core components over one durable store. The components
// each own their collection; App adds the cross-component flows (checkout,
// sessions, AI passthroughs).
type App struct {
	Identity *Identity
	Catalog  *Catalog
	Reviews  *Reviews
	Orders   *Orders

	sessions store.SessionStore
	advisor  ai.Advisor
	payments PaymentProcessor
}

// New constructs the application, seeding any collection the store has
// never held.
func New(cfg Config) (*App, error) {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}

	dataStore := cfg.Store
	if dataStore == nil {
		var err error
		switch cfg.StoreDriver {
		case config.DriverFile:
			dataStore, err = store.NewFileStore(cfg.DataDir)
		case config.DriverPostgres, "":
			if cfg.DatabaseURL == "" {
				return nil, fmt.Errorf("database URL required")
			}
			dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		default:
			return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
		}
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		switch {
		case cfg.JWTSecret != "":
			sessionStore = store.NewJWTSessionStore(cfg.JWTSecret, cfg.SessionTTL)
		case cfg.RedisAddr != "":
			sessionStore = store.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionTTL)
		default:
			return nil, fmt.Errorf("session store required (jwtSecret or redisAddr)")
		}
	}

	advisor := cfg.Advisor
	if advisor == nil && cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("init gemini client: %w", err)
		}
		advisor = gemini
	}

	payments := cfg.Payments
	if payments == nil {
		payments = SimulatedProcessor{}
	}

	ctx := context.Background()
	identity, err := NewIdentity(ctx, dataStore)
	if err != nil {
		return nil, fmt.Errorf("init identity: %w", err)
	}
	var recommender Recommender
	if advisor != nil {
		recommender = advisor
	}
	catalog, err := NewCatalog(ctx, dataStore, recommender)
	if err != nil {
		return nil, fmt.Errorf("init catalog: %w", err)
	}
	reviews, err := NewReviews(ctx, dataStore, catalog)
	if err != nil {
		return nil, fmt.Errorf("init reviews: %w", err)
	}
	orders, err := NewOrders(ctx, dataStore)
	if err != nil {
		return nil, fmt.Errorf("init orders: %w", err)
	}

	return &App{
		Identity: identity,
		Catalog:  catalog,
		Reviews:  reviews,
		Orders:   orders,
		sessions: sessionStore,
		advisor:  advisor,
		payments: payments,
	}, nil
}

// Login validates credentials and issues a session token.
func (a *App) Login(ctx context.Context, email, password string) (domain.User, string, bool, error) {
	user, ok := a.Identity.Login(ctx, email, password)
	if !ok {
		return domain.User{}, "", false, nil
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", false, fmt.Errorf("issue session: %w", err)
	}
	return user, token, true, nil
}

// Register creates a reader account and issues a session token.
func (a *App) Register(ctx context.Context, name, email, password string) (domain.User, string, error) {
	user, err := a.Identity.Register(ctx, name, email, password)
	if err != nil {
		return domain.User{}, "", err
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue session: %w", err)
	}
	return user, token, nil
}

// UserFromToken resolves a user from a session token.
func (a *App) UserFromToken(ctx context.Context, token string) (domain.User, bool) {
	uid, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	return a.Identity.GetUser(ctx, uid)
}

// Logout removes a session token.
func (a *App) Logout(token string) error {
	return a.sessions.DeleteSession(token)
}

// Checkout runs the simulated payment and, on success, freezes the cart
// into an order. The total comes from the caller and is recorded as-is.
func (a *App) Checkout(ctx context.Context, userID string, items []domain.CartItem, totalAmount float64) (domain.Order, error) {
	if err := a.payments.Charge(ctx, userID, totalAmount); err != nil {
		return domain.Order{}, fmt.Errorf("payment: %w", err)
	}
	return a.Orders.CreateOrder(ctx, userID, items, totalAmount)
}

// ListingCopy drafts AI metadata for a new title. Without an advisor it
// returns ok=false so callers fill the fields themselves.
func (a *App) ListingCopy(ctx context.Context, title, author string) (domain.BookMetadata, bool, error) {
	if a.advisor == nil {
		return domain.BookMetadata{}, false, nil
	}
	meta, err := a.advisor.GenerateBookMetadata(ctx, title, author)
	if err != nil {
		return domain.BookMetadata{}, false, err
	}
	return meta, true, nil
}

// Assistant answers a storefront chat message. Without an advisor it
// returns a fixed offline reply.
func (a *App) Assistant(ctx context.Context, message string, history []string) string {
	if a.advisor == nil {
		return "I'm sorry, my AI brain is currently offline."
	}
	reply, err := a.advisor.Chat(ctx, message, history)
	if err != nil {
		return "I'm having trouble connecting to the server right now."
	}
	return reply
}
