package domain

import (
	"time"

	"github.com/google/uuid"
)

// Post is authored by one account and filed under one category.
type Post struct {
	PostID     uuid.UUID
	AuthorID   uuid.UUID
	CategoryID uuid.UUID
	Title      string
	Body       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PostDetail is a post with its author and category resolved for listing.
type PostDetail struct {
	Post
	AuthorUsername string
	AuthorEmail    string
	CategoryName   string
}
