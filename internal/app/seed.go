package app

import (
	"time"

	"booksphere/pkg/domain"
)

// Built-in dataset used to seed an empty store on first run. The seed is
// persisted immediately so later loads see the same records.

func seedUsers() []domain.User {
	return []domain.User{
		{
			ID:            "u1",
			Name:          "Alice Reader",
			Email:         "alice@example.com",
			Password:      "password123",
			Role:          domain.RoleReader,
			WalletBalance: 100,
			Avatar:        "https://picsum.photos/seed/alice/100/100",
			Wishlist:      []string{},
		},
		{
			ID:            "s1",
			Name:          "John Publisher",
			Email:         "john@example.com",
			Password:      "password123",
			Role:          domain.RoleSeller,
			WalletBalance: 500,
			Avatar:        "https://picsum.photos/seed/john/100/100",
			Wishlist:      []string{},
		},
		{
			ID:            "a1",
			Name:          "Alex Admin",
			Email:         "alex@123",
			Password:      "alex@123",
			Role:          domain.RoleAdmin,
			WalletBalance: 0,
			Avatar:        "https://picsum.photos/seed/admin/100/100",
			Wishlist:      []string{},
		},
	}
}

func seedBooks() []domain.Book {
	now := time.Now().UTC()
	return []domain.Book{
		{
			ID:           "b1",
			Title:        "The Future of AI",
			Author:       "Dr. Sarah Connor",
			Description:  "A deep dive into artificial intelligence and its impact on humanity. This book explores neural networks, machine learning, and the ethical implications of sentient code.",
			Price:        29.99,
			ISBN:         "978-3-16-148410-0",
			Category:     "Technology",
			CoverImage:   "https://picsum.photos/seed/tech/400/600",
			SellerID:     "s1",
			Rating:       4.5,
			ReviewsCount: 12,
			Tags:         []string{"AI", "Tech", "Future"},
			Status:       domain.StatusApproved,
			AddedAt:      now,
			FileURL:      "https://www.w3.org/WAI/ER/tests/xhtml/testfiles/resources/pdf/dummy.pdf",
		},
		{
			ID:           "b2",
			Title:        "Mystery at the Manor",
			Author:       "Arthur Doyle",
			Description:  "A classic whodunit set in the rolling hills of England. When the Duke is found dead, only one detective can solve the case.",
			Price:        14.99,
			ISBN:         "978-1-40-289462-6",
			Category:     "Mystery",
			CoverImage:   "https://picsum.photos/seed/mystery/400/600",
			SellerID:     "s1",
			Rating:       4.8,
			ReviewsCount: 45,
			Tags:         []string{"Crime", "Thriller", "Classic"},
			Status:       domain.StatusApproved,
			AddedAt:      now,
			FileURL:      "https://www.w3.org/WAI/ER/tests/xhtml/testfiles/resources/pdf/dummy.pdf",
		},
		{
			ID:           "b3",
			Title:        "Cosmic Voyage",
			Author:       "Neil Sagan",
			Description:  "Journey through the stars in this illustrated guide to our universe. From black holes to nebulas, experience the grandeur of space.",
			Price:        35.00,
			ISBN:         "978-0-74-327356-5",
			Category:     "Science",
			CoverImage:   "https://picsum.photos/seed/space/400/600",
			SellerID:     "s1",
			Rating:       4.2,
			ReviewsCount: 8,
			Tags:         []string{"Space", "Science", "Astronomy"},
			Status:       domain.StatusApproved,
			AddedAt:      now,
			FileURL:      "https://www.w3.org/WAI/ER/tests/xhtml/testfiles/resources/pdf/dummy.pdf",
		},
	}
}

func seedReviews() []domain.Review {
	return []domain.Review{
		{
			ID:       "r1",
			BookID:   "b1",
			UserID:   "u1",
			UserName: "Alice Reader",
			Rating:   5,
			Comment:  "Absolutely fascinating read! The chapters on neural networks were particularly enlightening.",
			Date:     time.Now().UTC(),
		},
	}
}
