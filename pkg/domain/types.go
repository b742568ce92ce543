package domain

import "time"

type BookStatus string

const (
	StatusPending  BookStatus = "pending"
	StatusApproved BookStatus = "approved"
	StatusRejected BookStatus = "rejected"
)

type UserRole string

const (
	RoleReader UserRole = "user"
	RoleSeller UserRole = "seller"
	RoleAdmin  UserRole = "admin"
)

type OrderStatus string

const (
	// OrderCompleted is the only persisted order state. Partial or failed
	// checkouts never produce a record.
	OrderCompleted OrderStatus = "completed"
)

type User struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Password      string   `json:"password,omitempty"`
	Role          UserRole `json:"role"`
	Avatar        string   `json:"avatar,omitempty"`
	WalletBalance float64  `json:"walletBalance"`
	// Wishlist keeps book IDs in add order. Position doubles as the recency
	// signal, so the slice order must survive persistence round-trips.
	Wishlist []string `json:"wishlist"`
}

type Book struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Author       string     `json:"author"`
	Description  string     `json:"description"`
	Price        float64    `json:"price"`
	ISBN         string     `json:"isbn"`
	Category     string     `json:"category"`
	CoverImage   string     `json:"coverImage"`
	SellerID     string     `json:"sellerId"`
	Rating       float64    `json:"rating"`
	ReviewsCount int        `json:"reviewsCount"`
	Tags         []string   `json:"tags"`
	Status       BookStatus `json:"status"`
	AddedAt      time.Time  `json:"addedAt"`
	FileURL      string     `json:"fileUrl,omitempty"`
	APISource    string     `json:"apiSource,omitempty"`
}

// Review records are immutable once created. Each contributes exactly once
// to its book's aggregate rating.
type Review struct {
	ID       string    `json:"id"`
	BookID   string    `json:"bookId"`
	UserID   string    `json:"userId"`
	UserName string    `json:"userName"`
	Rating   int       `json:"rating"`
	Comment  string    `json:"comment"`
	Date     time.Time `json:"date"`
}

// CartItem is a book snapshot plus quantity. It exists only transiently on
// the client until checkout converts it into an order line.
type CartItem struct {
	Book
	Quantity int `json:"quantity"`
}

type Order struct {
	ID            string      `json:"id"`
	UserID        string      `json:"userId"`
	Items         []CartItem  `json:"items"`
	TotalAmount   float64     `json:"totalAmount"`
	Date          time.Time   `json:"date"`
	Status        OrderStatus `json:"status"`
	PaymentMethod string      `json:"paymentMethod"`
	DownloadToken string      `json:"downloadToken,omitempty"`
}

// Suggestion is one advisory search hit returned by the AI collaborator.
type Suggestion struct {
	BookID string `json:"bookId"`
	Reason string `json:"reason"`
}

// BookMetadata is AI-generated listing copy for a new title.
type BookMetadata struct {
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
}
