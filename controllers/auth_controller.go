package controllers

import (
	"net/http"

	"github.com/ArpaAP/soulbin/config"
	"github.com/ArpaAP/soulbin/models"
	"github.com/ArpaAP/soulbin/services"
	"github.com/ArpaAP/soulbin/utils"
	"github.com/gin-gonic/gin"
)

// AuthController 세션 토큰 발급. 실제 로그인은 외부 인증 제공자가 맡는다
type AuthController struct {
	profileService *services.ProfileService
	jwtManager     *utils.JWTManager
}

func NewAuthController(profileService *services.ProfileService, jwtManager *utils.JWTManager) *AuthController {
	return &AuthController{
		profileService: profileService,
		jwtManager:     jwtManager,
	}
}

// CreateTestUser 개발 환경 전용 테스트 사용자
func (ac *AuthController) CreateTestUser(c *gin.Context) {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	// 본문은 선택
	_ = c.ShouldBindJSON(&req)
	if req.Name == "" {
		req.Name = "테스트 사용자"
	}

	user, err := ac.profileService.CreateTestUser(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		respondError(c, err, "테스트 사용자 생성 실패")
		return
	}

	token, err := ac.jwtManager.GenerateToken(user.ID, user.GetDisplayName())
	if err != nil {
		config.Logger.Errorw("토큰 생성 실패", "error", err, "userID", user.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "토큰 생성 실패"})
		return
	}

	config.Logger.Infow("테스트 사용자 생성", "userID", user.ID)
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  models.NewUserResponse(user),
	})
}
