package acl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jsamuelsen/quote-sync/internal/adapters/clients"
	"github.com/jsamuelsen/quote-sync/internal/domain"
	"github.com/jsamuelsen/quote-sync/internal/platform/logging"
	"github.com/jsamuelsen/quote-sync/internal/ports"
)

// DefaultQuotePath is the remote collection used when none is configured.
const DefaultQuotePath = "/posts"

var _ ports.QuoteRemote = (*QuoteRemote)(nil)

// QuoteRemoteConfig contains configuration for the quote remote adapter.
type QuoteRemoteConfig struct {
	// Client is the HTTP client to use for requests.
	Client *clients.Client

	// ServiceName names the remote in errors. Defaults to "quote-remote".
	ServiceName string

	// Path is the collection endpoint used for both fetch and push.
	Path string

	// Logger is the structured logger.
	Logger *slog.Logger
}

// QuoteRemote implements ports.QuoteRemote against a JSON collection
// endpoint. GET returns an array of {id, title} items and POST accepts an
// array of quotes.
type QuoteRemote struct {
	BaseAdapter

	path   string
	logger *slog.Logger
}

// NewQuoteRemote creates a new quote remote adapter.
// Panics if Client is nil.
func NewQuoteRemote(cfg QuoteRemoteConfig) *QuoteRemote {
	if cfg.Client == nil {
		panic("QuoteRemote: Client is required")
	}

	name := cfg.ServiceName
	if name == "" {
		name = "quote-remote"
	}

	path := cfg.Path
	if path == "" {
		path = DefaultQuotePath
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QuoteRemote{
		BaseAdapter: NewBaseAdapter(cfg.Client, name),
		path:        path,
		logger:      logger.With(slog.String("component", "acl.QuoteRemote")),
	}
}

// remoteItem is the external DTO returned by the remote collection.
// The id may arrive as a number or a string.
type remoteItem struct {
	ID     any    `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body,omitempty"`
	UserID any    `json:"userId,omitempty"`
}

// remoteQuote is the external DTO sent on push.
type remoteQuote struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Category  string `json:"category"`
	UpdatedAt int64  `json:"updatedAt"`
}

// FetchQuotes retrieves the collection and translates its first limit items.
// Items without an id or a title are dropped.
func (r *QuoteRemote) FetchQuotes(ctx context.Context, limit int) ([]domain.Quote, error) {
	if err := ValidatePositive(limit, "limit"); err != nil {
		return nil, err
	}

	logger := logging.FromContextOr(ctx, r.logger)
	logger.Log(ctx, logging.LevelTrace, "starting request", slog.String("path", r.path))

	body, err := r.Get(ctx, r.path, "fetch quotes")
	if err != nil {
		return nil, err
	}

	items, err := DecodeResponseForService[[]remoteItem](body, r.ServiceName())
	if err != nil {
		return nil, err
	}

	quotes := TranslateSlice(*items, limit, translateItem)

	logger.DebugContext(ctx, "fetched remote quotes",
		slog.Int("received", len(*items)),
		slog.Int("kept", len(quotes)),
	)

	return quotes, nil
}

// PushQuotes sends quotes as one JSON array. The response body is ignored.
func (r *QuoteRemote) PushQuotes(ctx context.Context, quotes []domain.Quote) error {
	payload := make([]remoteQuote, 0, len(quotes))
	for _, q := range quotes {
		payload = append(payload, remoteQuote{
			ID:        q.ID,
			Text:      q.Text,
			Category:  q.Category,
			UpdatedAt: q.UpdatedAt,
		})
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding quotes: %w", err)
	}

	body, err := r.Post(ctx, r.path, data, "push quotes")
	if err != nil {
		return err
	}

	_ = body.Close()

	logging.FromContextOr(ctx, r.logger).DebugContext(ctx, "pushed local quotes",
		slog.Int("count", len(quotes)),
	)

	return nil
}

// translateItem maps a remote item to a quote. Category and UpdatedAt are
// left for the caller to stamp.
func translateItem(item *remoteItem) (domain.Quote, bool) {
	id := remoteID(item.ID)
	text := strings.TrimSpace(item.Title)

	if id == "" || text == "" {
		return domain.Quote{}, false
	}

	return domain.Quote{ID: id, Text: text}, true
}

// remoteID renders numeric ids in decimal and keeps string ids as-is.
func remoteID(v any) string {
	switch id := v.(type) {
	case json.Number:
		return id.String()
	case string:
		return strings.TrimSpace(id)
	default:
		return ""
	}
}
