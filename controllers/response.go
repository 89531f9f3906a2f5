package controllers

import (
	"net/http"

	"github.com/ArpaAP/soulbin/config"
	"github.com/ArpaAP/soulbin/middleware"
	"github.com/ArpaAP/soulbin/services"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// currentUserID AuthMiddleware 가 넣어 둔 사용자 ID
func currentUserID(c *gin.Context) (string, bool) {
	uid := c.GetString(middleware.ContextUserID)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "인증되지 않은 사용자입니다"})
		return "", false
	}
	return uid, true
}

// respondError 서비스 에러를 HTTP 상태로 바꾼다
func respondError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "찾을 수 없습니다"})
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		config.Logger.Errorw(message, "error", err, "uid", c.GetString(middleware.ContextUserID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
