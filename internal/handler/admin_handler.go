package handler

import (
	"strconv"
	"time"

	"brandlink/internal/response"
	"brandlink/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	reconcile *service.ReconcileService
}

func NewAdminHandler(reconcile *service.ReconcileService) *AdminHandler {
	return &AdminHandler{reconcile: reconcile}
}

// Stuck handles GET /admin/payments/stuck?older_than=30m.
func (h *AdminHandler) Stuck(c *gin.Context) {
	var olderThan time.Duration
	if v := c.Query("older_than"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			response.BadRequest(c, "older_than must be a duration like 30m")
			return
		}
		olderThan = d
	}
	rows, err := h.reconcile.StuckProcessing(c.Request.Context(), olderThan)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "stuck payments", gin.H{"count": len(rows), "transactions": rows})
}

// Reconcile handles POST /admin/payments/reconcile. It replays failed
// webhook events and retries failed commission transfers now instead of
// waiting for the next sweep.
func (h *AdminHandler) Reconcile(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		response.BadRequest(c, "limit must be a positive integer")
		return
	}
	replayed, err := h.reconcile.ReplayFailedEvents(c.Request.Context(), limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	recovered, err := h.reconcile.RetryFailedCommissions(c.Request.Context(), limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "reconcile finished", gin.H{"recovered": recovered, "events_replayed": replayed})
}
