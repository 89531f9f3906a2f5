package middleware

import (
	"net/http"

	"github.com/ArpaAP/soulbin/utils"
	"github.com/gin-gonic/gin"
)

// gin.Context 키
const (
	ContextUserID   = "uid"
	ContextUserName = "userName"
)

// AuthMiddleware 는 Bearer 토큰으로 세션 사용자를 확인한다
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "인증 정보가 없습니다"})
			return
		}

		claims, err := jwtManager.ParseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "인증되지 않은 사용자입니다"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserName, claims.UserName)
		c.Next()
	}
}
