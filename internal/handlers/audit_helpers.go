package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"social-service/internal/apperrors"
	"social-service/internal/middleware"
	"social-service/internal/models"
	"social-service/internal/observability"
)

func requestIDFromContext(c *gin.Context) string {
	return observability.RequestID(c)
}

func actorIDFromContext(c *gin.Context) *int64 {
	actor, ok := middleware.Actor(c)
	if !ok || actor.ID == 0 {
		return nil
	}
	id := actor.ID
	return &id
}

// currentActor returns the acting user or writes a 401.
func currentActor(c *gin.Context) (models.UserSummary, bool) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": apperrors.ErrUnauthenticated.Message})
		return models.UserSummary{}, false
	}
	return actor, true
}

func respondError(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	if kind == apperrors.KindInternal {
		logrus.WithFields(logrus.Fields{
			"function":   "handlers.respondError",
			"path":       c.FullPath(),
			"request_id": requestIDFromContext(c),
			"error":      err.Error(),
		}).Error("request failed")
	}
	c.JSON(apperrors.HTTPStatus(kind), gin.H{"message": apperrors.MessageOf(err)})
}
