package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-sync/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-sync/internal/app"
	"github.com/jsamuelsen/quote-sync/internal/domain"
)

// NotificationSource lists notifications that are still on display.
type NotificationSource interface {
	Active() []domain.Notification
}

// SyncHandler exposes manual sync operations and the notification feed.
type SyncHandler struct {
	engine        *app.SyncEngine
	store         *app.QuoteStore
	notifications NotificationSource
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(engine *app.SyncEngine, store *app.QuoteStore, notifications NotificationSource) *SyncHandler {
	return &SyncHandler{
		engine:        engine,
		store:         store,
		notifications: notifications,
	}
}

// RunCycle handles POST /api/v1/sync. A cycle already in flight yields 409.
// Fetch and merge failures are reported in the body, not as errors.
func (h *SyncHandler) RunCycle(c *gin.Context) {
	report, err := h.engine.RunCycle(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// PushLocal handles POST /api/v1/sync/push.
func (h *SyncHandler) PushLocal(c *gin.Context) {
	pushed, err := h.engine.PushLocal(c.Request.Context(), h.store.LocalOnly())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PushResponse{Pushed: pushed})
}

// Status handles GET /api/v1/sync/status.
func (h *SyncHandler) Status(c *gin.Context) {
	resp := dto.SyncStatusResponse{
		State:       string(h.engine.State()),
		PushEnabled: h.engine.PushEnabled(),
	}

	if report, ok := h.engine.LastReport(); ok {
		resp.LastCycle = &report
	}

	c.JSON(http.StatusOK, resp)
}

// Notifications handles GET /api/v1/notifications.
func (h *SyncHandler) Notifications(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewNotificationResponses(h.notifications.Active()))
}

// RegisterSyncRoutes registers sync and notification routes.
func (h *SyncHandler) RegisterSyncRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	sync.POST("", h.RunCycle)
	sync.POST("/push", h.PushLocal)
	sync.GET("/status", h.Status)

	rg.GET("/notifications", h.Notifications)
}
