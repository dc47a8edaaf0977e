package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lifeguard-api/internal/middleware"
	appErrors "github.com/noah-isme/lifeguard-api/pkg/errors"
	"github.com/noah-isme/lifeguard-api/pkg/response"
)

// currentUserID returns the authenticated user id, writing a 401 when there is none.
func currentUserID(c *gin.Context) (string, bool) {
	claims := middleware.CurrentUser(c)
	if claims == nil || claims.UserID() == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return claims.UserID(), true
}
