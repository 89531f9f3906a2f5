package routes

import (
	"github.com/ArpaAP/soulbin/controllers"
	"github.com/ArpaAP/soulbin/metrics"
	"github.com/ArpaAP/soulbin/middleware"
	"github.com/ArpaAP/soulbin/services"
	"github.com/ArpaAP/soulbin/utils"
	"github.com/gin-gonic/gin"
)

// Dependencies 라우트가 쓰는 서비스 묶음
type Dependencies struct {
	DiaryService   *services.DiaryService
	ChatService    *services.ChatService
	ProfileService *services.ProfileService
	JWTManager     *utils.JWTManager
	Metrics        *metrics.Metrics

	InternalAuthToken string
	// 운영 환경에서는 테스트 사용자 발급을 막는다
	EnableTestUser bool
}

func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	authController := controllers.NewAuthController(deps.ProfileService, deps.JWTManager)
	diaryController := controllers.NewDiaryController(deps.DiaryService)
	chatController := controllers.NewChatController(deps.ChatService)
	userController := controllers.NewUserController(deps.ProfileService)

	// 공개 라우트
	public := r.Group("/api/v1")
	{
		if deps.EnableTestUser {
			public.POST("/auth/test-user", authController.CreateTestUser)
		}
	}

	// 인증 필요
	private := r.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(deps.JWTManager))
	{
		private.POST("/user/register", userController.Register)

		private.GET("/profile", userController.GetProfile)
		private.PUT("/profile", userController.UpdateProfile)
		private.DELETE("/profile", userController.DeleteData)
		private.GET("/profile/stats", userController.GetStats)
		private.GET("/profile/mindset", userController.GetDailyMindset)
		private.GET("/profile/export", userController.ExportData)
		private.POST("/profile/import", userController.ImportData)
		private.GET("/analysis", userController.GetAnalysisDashboard)

		private.POST("/diaries", diaryController.SaveDiary)
		private.GET("/diaries", diaryController.ListDiaries)
		private.GET("/diaries/:id", diaryController.GetDiary)
		private.DELETE("/diaries/:id", diaryController.DeleteDiary)

		private.POST("/chats", chatController.CreateChat)
		private.GET("/chats", chatController.ListChats)
		private.GET("/chats/:id", chatController.GetChat)
		private.DELETE("/chats/:id", chatController.DeleteChat)
		private.POST("/chats/:id/messages", chatController.SendMessage)
	}

	// 내부 라우트
	internal := r.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware(deps.InternalAuthToken))
	{
		internal.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
}
