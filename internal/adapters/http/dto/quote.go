package dto

import (
	"time"

	"github.com/jsamuelsen/quote-sync/internal/app"
	"github.com/jsamuelsen/quote-sync/internal/domain"
)

// CreateQuoteRequest is the body of POST /quotes.
type CreateQuoteRequest struct {
	Text     string `json:"text" validate:"required,notblank,max=1000"`
	Category string `json:"category" validate:"required,notblank,max=100"`
}

// RandomQuoteQuery is the query of GET /quotes/random.
type RandomQuoteQuery struct {
	Category string `form:"category" validate:"omitempty,max=100"`
}

// QuoteResponse is the HTTP representation of a quote.
type QuoteResponse struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Category  string `json:"category"`
	UpdatedAt int64  `json:"updatedAt"`
}

// NewQuoteResponse converts a domain quote.
func NewQuoteResponse(q domain.Quote) QuoteResponse {
	return QuoteResponse{
		ID:        q.ID,
		Text:      q.Text,
		Category:  q.Category,
		UpdatedAt: q.UpdatedAt,
	}
}

// NewQuoteResponses converts a slice of domain quotes.
func NewQuoteResponses(quotes []domain.Quote) []QuoteResponse {
	out := make([]QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, NewQuoteResponse(q))
	}

	return out
}

// CategoriesResponse lists the distinct categories and the saved filter.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
	Selected   string   `json:"selected"`
}

// PushResponse reports how many local quotes were uploaded.
type PushResponse struct {
	Pushed int `json:"pushed"`
}

// SyncStatusResponse describes the engine and its last cycle.
type SyncStatusResponse struct {
	State       string           `json:"state"`
	PushEnabled bool             `json:"pushEnabled"`
	LastCycle   *app.CycleReport `json:"lastCycle,omitempty"`
}

// NotificationResponse is a notification ready for display.
type NotificationResponse struct {
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewNotificationResponses converts domain notifications.
func NewNotificationResponses(items []domain.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, NotificationResponse{
			Message:   n.Message,
			Severity:  string(n.Severity),
			Color:     n.Severity.Color(),
			CreatedAt: n.CreatedAt,
			ExpiresAt: n.ExpiresAt(),
		})
	}

	return out
}
