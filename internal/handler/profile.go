package handler

import (
	"errors"
	"net/http"

	"brandlink/internal/apperror"
	"brandlink/internal/domain"
	"brandlink/internal/middleware"
	"brandlink/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// profileID maps the authenticated user to their brand or influencer
// profile id.
func profileID(c *gin.Context, store *repository.Store) (uint, error) {
	store = store.WithContext(c.Request.Context())
	userID := middleware.GetUserID(c)
	switch middleware.GetRole(c) {
	case domain.RoleBrand:
		b, err := store.Brands.GetByUserID(userID)
		if err != nil {
			return 0, profileErr(err, "brand profile not found")
		}
		return b.ID, nil
	case domain.RoleInfluencer:
		i, err := store.Influencers.GetByUserID(userID)
		if err != nil {
			return 0, profileErr(err, "influencer profile not found")
		}
		return i.ID, nil
	}
	return 0, apperror.New(http.StatusForbidden, "brand or influencer account required", nil)
}

func profileErr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(msg, err)
	}
	return err
}

// walletOwnerType is the wallet owner type for the authenticated role.
func walletOwnerType(c *gin.Context) string {
	if middleware.GetRole(c) == domain.RoleBrand {
		return domain.UserTypeBrand
	}
	return domain.UserTypeInfluencer
}
