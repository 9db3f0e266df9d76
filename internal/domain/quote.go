package domain

import (
	"strings"
	"time"
)

const (
	// CategoryAll is the filter value that matches every quote.
	CategoryAll = "all"

	// CategoryServer is the category stamped on quotes that arrive from the remote.
	CategoryServer = "Server"
)

// Quote represents a quotation kept in the local store.
// This is a domain entity - it has no knowledge of external systems.
type Quote struct {
	// ID is the unique identifier for this quote within the store.
	ID string

	// Text is the quotation body.
	Text string

	// Category is a free-text label used for filtering.
	Category string

	// UpdatedAt is a Unix millisecond timestamp used only to arbitrate
	// conflicts between versions of the same ID.
	UpdatedAt int64
}

// NewQuote builds a quote after trimming and validating text and category.
func NewQuote(id, text, category string, updatedAt time.Time) (Quote, error) {
	text = strings.TrimSpace(text)
	category = strings.TrimSpace(category)

	if text == "" {
		return Quote{}, NewValidationError("text", "must not be empty")
	}

	if category == "" {
		return Quote{}, NewValidationError("category", "must not be empty")
	}

	return Quote{
		ID:        id,
		Text:      text,
		Category:  category,
		UpdatedAt: updatedAt.UnixMilli(),
	}, nil
}

// MatchesCategory reports whether the quote belongs to the given filter.
// An empty filter or CategoryAll matches everything.
func (q Quote) MatchesCategory(filter string) bool {
	if filter == "" || filter == CategoryAll {
		return true
	}

	return q.Category == filter
}

// SameContent reports whether two quotes carry identical text and category.
// Import uses this to skip duplicates regardless of ID.
func (q Quote) SameContent(other Quote) bool {
	return q.Text == other.Text && q.Category == other.Category
}

// NewerThan reports whether q should replace other under last-write-wins.
// Equal timestamps never win.
func (q Quote) NewerThan(other Quote) bool {
	return q.UpdatedAt > other.UpdatedAt
}

// FromServer reports whether the quote carries the reserved remote category.
func (q Quote) FromServer() bool {
	return q.Category == CategoryServer
}

// DefaultQuotes returns the fixed set a store falls back to when it is
// empty, corrupt, or explicitly reset. A fresh slice is returned on every call.
func DefaultQuotes() []Quote {
	return []Quote{
		{ID: "default-1", Text: "The best way to get started is to quit talking and begin doing.", Category: "Motivation"},
		{ID: "default-2", Text: "Life is what happens when you're busy making other plans.", Category: "Life"},
		{ID: "default-3", Text: "Simplicity is the soul of efficiency.", Category: "Productivity"},
		{ID: "default-4", Text: "I have not failed. I've just found 10,000 ways that won't work.", Category: "Perseverance"},
		{ID: "default-5", Text: "Talk is cheap. Show me the code.", Category: "Programming"},
	}
}
