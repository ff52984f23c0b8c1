package handler

import (
	"io"
	"net/http"

	"brandlink/internal/response"
	"brandlink/internal/service"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	webhooks *service.WebhookService
}

func NewWebhookHandler(webhooks *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// Handle is the Paystack callback. The signature covers the raw body, so it
// is read before any decoding.
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	if err := h.webhooks.Process(c.Request.Context(), body, c.GetHeader(service.SignatureHeader)); err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
