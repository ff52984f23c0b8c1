package handler

import (
	"brandlink/internal/middleware"
	"brandlink/internal/repository"
	"brandlink/internal/response"

	"github.com/gin-gonic/gin"
)

type MeHandler struct {
	store *repository.Store
}

func NewMeHandler(store *repository.Store) *MeHandler {
	return &MeHandler{store: store}
}

// RegisterFCMToken saves the device token used for payout push notifications.
func (h *MeHandler) RegisterFCMToken(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "token required")
		return
	}
	store := h.store.WithContext(c.Request.Context())
	if err := store.Users.UpdateFCMToken(middleware.GetUserID(c), req.Token); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "token saved", nil)
}
