package handlers

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-sync/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-sync/internal/app"
	"github.com/jsamuelsen/quote-sync/internal/domain"
)

// QuoteHandler serves the local quote store.
type QuoteHandler struct {
	store *app.QuoteStore
	now   func() time.Time
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(store *app.QuoteStore) *QuoteHandler {
	return &QuoteHandler{
		store: store,
		now:   time.Now,
	}
}

// ListQuotes handles GET /api/v1/quotes. Quotes are returned in insertion
// order, one cursor page at a time.
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	var page dto.PaginationRequest
	if err := dto.BindQueryAndValidate(c, &page); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	quotes := h.store.All()

	cursor, err := page.DecodeCursor()
	switch {
	case errors.Is(err, dto.ErrNoCursor):
	case err != nil:
		dto.RespondWithErrorCode(c, dto.ErrorCodeBadRequest, err.Error())
		return
	default:
		i := slices.IndexFunc(quotes, func(q domain.Quote) bool { return q.ID == cursor.ID })
		if i < 0 {
			dto.RespondWithErrorCode(c, dto.ErrorCodeBadRequest, "cursor no longer matches a quote")
			return
		}
		quotes = quotes[i+1:]
	}

	limit := page.GetLimit()
	if len(quotes) > limit+1 {
		quotes = quotes[:limit+1]
	}

	c.JSON(http.StatusOK, dto.NewPaginatedResponse(dto.NewQuoteResponses(quotes), limit,
		func(q dto.QuoteResponse) *dto.CursorData { return &dto.CursorData{ID: q.ID} }))
}

// GetQuote handles GET /api/v1/quotes/:id.
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	quote, err := h.store.Get(c.Param("id"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(quote))
}

// RandomQuote handles GET /api/v1/quotes/random. The category filter is
// remembered for later requests; without one the saved filter applies.
func (h *QuoteHandler) RandomQuote(c *gin.Context) {
	var query dto.RandomQuoteQuery
	if err := dto.BindQueryAndValidate(c, &query); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	ctx := c.Request.Context()

	filter := query.Category
	if filter == "" {
		saved, err := h.store.SelectedCategory(ctx)
		if err != nil {
			dto.HandleError(c, err)
			return
		}
		filter = saved
	}

	quote, err := h.store.PickRandom(ctx, filter)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(quote))
}

// LastViewed handles GET /api/v1/quotes/last.
func (h *QuoteHandler) LastViewed(c *gin.Context) {
	quote, err := h.store.LastViewed(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(quote))
}

// Categories handles GET /api/v1/categories.
func (h *QuoteHandler) Categories(c *gin.Context) {
	selected, err := h.store.SelectedCategory(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	categories := h.store.Categories()
	if categories == nil {
		categories = []string{}
	}

	c.JSON(http.StatusOK, dto.CategoriesResponse{
		Categories: categories,
		Selected:   selected,
	})
}

// CreateQuote handles POST /api/v1/quotes.
func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	var req dto.CreateQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	quote, err := h.store.Add(c.Request.Context(), req.Text, req.Category)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuoteResponse(quote))
}

// ImportQuotes handles POST /api/v1/quotes/import. The body is a JSON array
// in the export format.
func (h *QuoteHandler) ImportQuotes(c *gin.Context) {
	result, err := h.store.ImportJSON(c.Request.Context(), c.Request.Body)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportQuotes handles GET /api/v1/quotes/export as a JSON download.
func (h *QuoteHandler) ExportQuotes(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="`+app.ExportFileName(h.now())+`"`)
	c.Header("Content-Type", "application/json")
	c.Status(http.StatusOK)

	if err := h.store.Export(c.Writer); err != nil {
		_ = c.Error(err)
	}
}

// ResetQuotes handles POST /api/v1/quotes/reset.
func (h *QuoteHandler) ResetQuotes(c *gin.Context) {
	if err := h.store.ClearAndReset(c.Request.Context()); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponses(h.store.All()))
}

// RegisterQuoteRoutes registers quote routes on the given router group.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("", h.ListQuotes)
	quotes.POST("", h.CreateQuote)
	quotes.GET("/random", h.RandomQuote)
	quotes.GET("/last", h.LastViewed)
	quotes.GET("/export", h.ExportQuotes)
	quotes.POST("/import", h.ImportQuotes)
	quotes.POST("/reset", h.ResetQuotes)
	quotes.GET("/:id", h.GetQuote)

	rg.GET("/categories", h.Categories)
}
