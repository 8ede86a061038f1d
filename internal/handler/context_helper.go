package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campustools/timetable-api/internal/middleware"
	"github.com/campustools/timetable-api/internal/models"
	appErrors "github.com/campustools/timetable-api/pkg/errors"
)

func currentUser(c *gin.Context) (*models.JWTClaims, error) {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil, appErrors.ErrUnauthorized
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil, appErrors.ErrUnauthorized
	}
	return claims, nil
}
