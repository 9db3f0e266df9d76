// Package app contains application services that orchestrate use cases.
// This is the application layer in Clean Architecture - it coordinates
// domain logic and infrastructure through ports.
//
// Application Layer Responsibilities:
//   - Own the canonical quote list and its durable mirror (QuoteStore)
//   - Reconcile the list against the remote (SyncEngine)
//   - Drive periodic reconciliation (Scheduler)
//
// What does NOT belong here:
//   - HTTP/CLI specifics (that's adapters and cmd)
//   - SQL or wire formats of the remote (that's storage and client adapters)
package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jsamuelsen/quote-sync/internal/domain"
	"github.com/jsamuelsen/quote-sync/internal/platform/logging"
	"github.com/jsamuelsen/quote-sync/internal/ports"
)

// Storage keys used by the quote store.
const (
	KeyQuotes           = "quotes"
	KeySelectedCategory = "selectedCategory"
	KeyLastViewed       = "lastViewedQuote"
)

// ImportResult counts the outcome of a batch import.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Invalid  int `json:"invalid"`
}

// MergeResult counts the outcome of merging remote candidates.
type MergeResult struct {
	Added   int  `json:"added"`
	Updated int  `json:"updated"`
	Changed bool `json:"changed"`
}

// QuoteStore owns the in-process quote list and mirrors it to a durable
// key-value slot. All methods are safe for concurrent use.
//
// Writers hold writeMu from mutation until the durable write returns, so the
// slot never lags behind a list another writer already replaced.
type QuoteStore struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	quotes  []domain.Quote
	durable ports.KeyValueStore
	session ports.KeyValueStore
	now     func() time.Time
	newID   func() string
	intN    func(n int) int
	logger  *slog.Logger
}

// QuoteStoreConfig contains the dependencies of the quote store.
type QuoteStoreConfig struct {
	// Durable holds the quote list and the selected category.
	Durable ports.KeyValueStore

	// Session holds the last viewed quote. Defaults to Durable when nil.
	Session ports.KeyValueStore

	// Clock defaults to time.Now.
	Clock func() time.Time

	// IDGenerator defaults to random UUIDs.
	IDGenerator func() string

	// Rand defaults to the global math/rand/v2 source.
	Rand *rand.Rand

	Logger *slog.Logger
}

// NewQuoteStore creates a store. Call Load before use.
func NewQuoteStore(cfg QuoteStoreConfig) *QuoteStore {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &QuoteStore{
		durable: cfg.Durable,
		session: cfg.Session,
		now:     cfg.Clock,
		newID:   cfg.IDGenerator,
		intN:    rand.IntN,
		logger:  logger.With(slog.String("component", "app.QuoteStore")),
	}

	if s.session == nil {
		s.session = cfg.Durable
	}

	if s.now == nil {
		s.now = time.Now
	}

	if s.newID == nil {
		s.newID = uuid.NewString
	}

	if cfg.Rand != nil {
		s.intN = cfg.Rand.IntN
	}

	return s
}

// quoteDocument is the persisted and exported JSON shape of a quote.
type quoteDocument struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Category  string `json:"category"`
	UpdatedAt int64  `json:"updatedAt"`
}

func toDocuments(quotes []domain.Quote) []quoteDocument {
	docs := make([]quoteDocument, len(quotes))
	for i, q := range quotes {
		docs[i] = quoteDocument{ID: q.ID, Text: q.Text, Category: q.Category, UpdatedAt: q.UpdatedAt}
	}

	return docs
}

func (s *QuoteStore) loggerFor(ctx context.Context) *slog.Logger {
	return logging.FromContextOr(ctx, s.logger)
}

// Load reads the durable slot into memory. An absent slot, or one that does
// not hold a usable list, is replaced by the default set and persisted.
// Individual malformed elements are dropped without failing the load. When
// loading dropped elements or assigned ids or timestamps, the normalized list
// is written back so the next load sees the same records.
func (s *QuoteStore) Load(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	logger := s.loggerFor(ctx)

	raw, err := s.durable.Get(ctx, KeyQuotes)
	if err != nil && !domain.IsNotFound(err) {
		return fmt.Errorf("loading quotes: %w", err)
	}

	var quotes []domain.Quote

	if err == nil {
		entries, parseErr := decodeEntries(raw, KeyQuotes)
		if parseErr == nil {
			var invalid int
			quotes, invalid = s.quotesFromEntries(entries, nil)
			if invalid > 0 {
				logger.WarnContext(ctx, "dropped malformed stored quotes", slog.Int("count", invalid))
			}
		}

		if parseErr != nil || len(quotes) == 0 {
			reason := "no usable quotes"
			if parseErr != nil {
				reason = parseErr.Error()
			}

			logger.WarnContext(ctx, "stored quotes unusable, restoring defaults",
				slog.Any("error", domain.NewCorruptError(KeyQuotes, reason)),
			)

			quotes = nil
		}
	}

	if quotes == nil {
		quotes = domain.DefaultQuotes()

		if err := s.persist(ctx, quotes); err != nil {
			return err
		}
	} else if encoded, encErr := json.Marshal(toDocuments(quotes)); encErr != nil || !bytes.Equal(encoded, raw) {
		if err := s.persist(ctx, quotes); err != nil {
			return err
		}

		logger.InfoContext(ctx, "normalized stored quotes", slog.Int("count", len(quotes)))
	}

	s.mu.Lock()
	s.quotes = quotes
	s.mu.Unlock()

	logger.DebugContext(ctx, "loaded quotes", slog.Int("count", len(quotes)))

	return nil
}

// Save writes the full list to the durable slot.
func (s *QuoteStore) Save(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	quotes := slices.Clone(s.quotes)
	s.mu.RUnlock()

	return s.persist(ctx, quotes)
}

func (s *QuoteStore) persist(ctx context.Context, quotes []domain.Quote) error {
	data, err := json.Marshal(toDocuments(quotes))
	if err != nil {
		return fmt.Errorf("encoding quotes: %w", err)
	}

	if err := s.durable.Set(ctx, KeyQuotes, data); err != nil {
		return fmt.Errorf("saving quotes: %w", err)
	}

	return nil
}

// Add appends a new quote with a fresh id and the current timestamp.
func (s *QuoteStore) Add(ctx context.Context, text, category string) (domain.Quote, error) {
	q, err := domain.NewQuote(s.newID(), text, category, s.now())
	if err != nil {
		return domain.Quote{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.quotes = append(s.quotes, q)
	snapshot := slices.Clone(s.quotes)
	s.mu.Unlock()

	if err := s.persist(ctx, snapshot); err != nil {
		return domain.Quote{}, err
	}

	s.loggerFor(ctx).InfoContext(ctx, "added quote",
		slog.String("quote_id", q.ID),
		slog.String("category", q.Category),
	)

	return q, nil
}

// ImportJSON decodes a JSON array from r and imports it with ImportBatch.
func (s *QuoteStore) ImportJSON(ctx context.Context, r io.Reader) (ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("reading import: %w", err)
	}

	entries, err := decodeEntries(data, "import")
	if err != nil {
		return ImportResult{}, err
	}

	return s.ImportBatch(ctx, entries)
}

// ImportBatch appends every well-formed entry whose text and category do not
// already exist in the store. Existing records are never replaced.
func (s *QuoteStore) ImportBatch(ctx context.Context, entries []map[string]any) (ImportResult, error) {
	var result ImportResult

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()

	taken := make(map[string]bool, len(s.quotes))
	for _, q := range s.quotes {
		taken[q.ID] = true
	}

	candidates, invalid := s.quotesFromEntries(entries, taken)
	result.Invalid = invalid

	for _, c := range candidates {
		if slices.ContainsFunc(s.quotes, c.SameContent) {
			result.Skipped++
			continue
		}

		s.quotes = append(s.quotes, c)
		result.Imported++
	}

	snapshot := slices.Clone(s.quotes)
	s.mu.Unlock()

	if result.Imported > 0 {
		if err := s.persist(ctx, snapshot); err != nil {
			return result, err
		}
	}

	s.loggerFor(ctx).InfoContext(ctx, "imported quotes",
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped),
		slog.Int("invalid", result.Invalid),
	)

	return result, nil
}

// Export writes the full list as an indented JSON array.
func (s *QuoteStore) Export(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(toDocuments(s.All())); err != nil {
		return fmt.Errorf("exporting quotes: %w", err)
	}

	return nil
}

// ExportFileName returns the download name for an export taken at t.
func ExportFileName(t time.Time) string {
	return "quotes-" + t.Format("20060102-150405") + ".json"
}

// ClearAndReset discards the durable slot and the in-memory list and
// replaces both with the default set.
func (s *QuoteStore) ClearAndReset(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.durable.Remove(ctx, KeyQuotes); err != nil {
		return fmt.Errorf("clearing quotes: %w", err)
	}

	defaults := domain.DefaultQuotes()

	s.mu.Lock()
	s.quotes = slices.Clone(defaults)
	s.mu.Unlock()

	if err := s.persist(ctx, defaults); err != nil {
		return err
	}

	s.loggerFor(ctx).InfoContext(ctx, "reset quotes to defaults")

	return nil
}

// PickRandom returns a uniformly chosen quote matching filter. The filter is
// remembered as the selected category and the pick as the last viewed quote.
// An empty subset yields a domain.NotFoundError.
func (s *QuoteStore) PickRandom(ctx context.Context, filter string) (domain.Quote, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		filter = domain.CategoryAll
	}

	if err := s.setJSON(ctx, s.durable, KeySelectedCategory, filter); err != nil {
		return domain.Quote{}, err
	}

	s.mu.RLock()
	var subset []domain.Quote
	for _, q := range s.quotes {
		if q.MatchesCategory(filter) {
			subset = append(subset, q)
		}
	}
	s.mu.RUnlock()

	if len(subset) == 0 {
		return domain.Quote{}, domain.NewNotFoundError("quote in category", filter)
	}

	picked := subset[s.intN(len(subset))]

	if err := s.setJSON(ctx, s.session, KeyLastViewed, toDocuments([]domain.Quote{picked})[0]); err != nil {
		return domain.Quote{}, err
	}

	return picked, nil
}

// SelectedCategory returns the saved category filter, or CategoryAll.
func (s *QuoteStore) SelectedCategory(ctx context.Context) (string, error) {
	raw, err := s.durable.Get(ctx, KeySelectedCategory)
	if domain.IsNotFound(err) {
		return domain.CategoryAll, nil
	}
	if err != nil {
		return "", fmt.Errorf("reading selected category: %w", err)
	}

	var category string
	if err := json.Unmarshal(raw, &category); err != nil || category == "" {
		return domain.CategoryAll, nil
	}

	return category, nil
}

// LastViewed returns the quote most recently returned by PickRandom in
// this session.
func (s *QuoteStore) LastViewed(ctx context.Context) (domain.Quote, error) {
	raw, err := s.session.Get(ctx, KeyLastViewed)
	if err != nil {
		return domain.Quote{}, err
	}

	var doc quoteDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Quote{}, domain.NewCorruptError(KeyLastViewed, err.Error())
	}

	return domain.Quote{ID: doc.ID, Text: doc.Text, Category: doc.Category, UpdatedAt: doc.UpdatedAt}, nil
}

// Categories returns the distinct categories in first-seen order.
func (s *QuoteStore) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var categories []string
	for _, q := range s.quotes {
		if !slices.Contains(categories, q.Category) {
			categories = append(categories, q.Category)
		}
	}

	return categories
}

// All returns a copy of the list in insertion order.
func (s *QuoteStore) All() []domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.quotes)
}

// Len returns the number of quotes.
func (s *QuoteStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.quotes)
}

// Get returns the quote with the given id.
func (s *QuoteStore) Get(id string) (domain.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := slices.IndexFunc(s.quotes, func(q domain.Quote) bool { return q.ID == id })
	if i < 0 {
		return domain.Quote{}, domain.NewNotFoundError("quote", id)
	}

	return s.quotes[i], nil
}

// LocalOnly returns every quote not tagged with the server category.
func (s *QuoteStore) LocalOnly() []domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var local []domain.Quote
	for _, q := range s.quotes {
		if !q.FromServer() {
			local = append(local, q)
		}
	}

	return local
}

// Merge applies candidates under last-write-wins: unknown ids are appended,
// known ids are overwritten only by a strictly newer candidate. The list is
// persisted when anything changed.
func (s *QuoteStore) Merge(ctx context.Context, candidates []domain.Quote) (MergeResult, error) {
	var result MergeResult

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()

	for _, c := range candidates {
		i := slices.IndexFunc(s.quotes, func(q domain.Quote) bool { return q.ID == c.ID })

		switch {
		case i < 0:
			s.quotes = append(s.quotes, c)
			result.Added++
		case c.NewerThan(s.quotes[i]):
			s.quotes[i] = c
			result.Updated++
		}
	}

	result.Changed = result.Added+result.Updated > 0
	snapshot := slices.Clone(s.quotes)
	s.mu.Unlock()

	if result.Changed {
		if err := s.persist(ctx, snapshot); err != nil {
			return result, err
		}
	}

	return result, nil
}

func (s *QuoteStore) setJSON(ctx context.Context, kv ports.KeyValueStore, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}

	if err := kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}

	return nil
}

// decodeEntries parses data as a JSON array of objects. Elements that are
// not objects are kept as nil so callers can count them as invalid.
func decodeEntries(data []byte, source string) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw []json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, domain.NewParseError(source, "expected a JSON array")
		}

		return nil, domain.NewParseError(source, err.Error())
	}

	if raw == nil {
		return nil, domain.NewParseError(source, "expected a JSON array")
	}

	entries := make([]map[string]any, len(raw))
	for i, elem := range raw {
		d := json.NewDecoder(bytes.NewReader(elem))
		d.UseNumber()

		var entry map[string]any
		if d.Decode(&entry) == nil {
			entries[i] = entry
		}
	}

	return entries, nil
}

// quotesFromEntries converts decoded entries into quotes. Entries without a
// non-blank string text and category are counted as invalid. Text and
// category are kept verbatim so duplicate detection is an exact match.
// Missing or taken ids are replaced by fresh ones; taken is updated as ids
// are assigned.
func (s *QuoteStore) quotesFromEntries(entries []map[string]any, taken map[string]bool) ([]domain.Quote, int) {
	if taken == nil {
		taken = make(map[string]bool, len(entries))
	}

	var (
		quotes  []domain.Quote
		invalid int
	)

	for _, e := range entries {
		text, okText := e["text"].(string)
		category, okCategory := e["category"].(string)
		if !okText || !okCategory {
			invalid++
			continue
		}

		if strings.TrimSpace(text) == "" || strings.TrimSpace(category) == "" {
			invalid++
			continue
		}

		q := domain.Quote{ID: entryID(e["id"]), Text: text, Category: category, UpdatedAt: s.now().UnixMilli()}

		if ts, ok := entryTimestamp(e["updatedAt"]); ok {
			q.UpdatedAt = ts
		}

		if q.ID == "" || taken[q.ID] {
			q.ID = s.newID()
		}

		taken[q.ID] = true
		quotes = append(quotes, q)
	}

	return quotes, invalid
}

func entryID(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case json.Number:
		return id.String()
	default:
		return ""
	}
}

func entryTimestamp(v any) (int64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}

	if i, err := n.Int64(); err == nil {
		return i, true
	}

	if f, err := n.Float64(); err == nil {
		return int64(f), true
	}

	return 0, false
}
