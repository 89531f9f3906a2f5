package controllers

import (
	"fmt"
	"net/http"

	"github.com/ArpaAP/soulbin/models"
	"github.com/ArpaAP/soulbin/services"
	"github.com/gin-gonic/gin"
)

// UserController 회원 등록과 프로필
type UserController struct {
	profileService *services.ProfileService
}

func NewUserController(profileService *services.ProfileService) *UserController {
	return &UserController{profileService: profileService}
}

func (uc *UserController) Register(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := uc.profileService.Register(c.Request.Context(), uid, &req)
	if err != nil {
		respondError(c, err, "회원 정보 등록 실패")
		return
	}

	c.JSON(http.StatusOK, models.NewUserResponse(user))
}

func (uc *UserController) GetProfile(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := uc.profileService.Get(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err, "프로필 조회 실패")
		return
	}

	c.JSON(http.StatusOK, models.NewUserResponse(user))
}

func (uc *UserController) UpdateProfile(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := uc.profileService.Update(c.Request.Context(), uid, &req)
	if err != nil {
		respondError(c, err, "프로필 수정 실패")
		return
	}

	c.JSON(http.StatusOK, models.NewUserResponse(user))
}

// DeleteData 일기와 프로필 항목 초기화
func (uc *UserController) DeleteData(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := uc.profileService.DeleteData(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err, "데이터 삭제 실패")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "모든 데이터가 삭제되었습니다.",
		"user":    models.NewUserResponse(user),
	})
}

func (uc *UserController) GetStats(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := uc.profileService.Stats(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err, "통계 조회 실패")
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (uc *UserController) GetDailyMindset(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	mindset, err := uc.profileService.DailyMindset(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err, "오늘의 마음가짐 조회 실패")
		return
	}

	c.JSON(http.StatusOK, mindset)
}

// ExportData 첨부 파일로 내려준다
func (uc *UserController) ExportData(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	export, err := uc.profileService.Export(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err, "데이터 내보내기 실패")
		return
	}

	filename := fmt.Sprintf("soulbin-backup-%s.json", export.ExportedAt.Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.JSON(http.StatusOK, export)
}

// ImportData 내보내기 문서를 받아 병합한다
func (uc *UserController) ImportData(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	var doc models.UserExport
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := uc.profileService.Restore(c.Request.Context(), uid, doc)
	if err != nil {
		respondError(c, err, "데이터 가져오기 실패")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (uc *UserController) GetAnalysisDashboard(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	dashboard, err := uc.profileService.AnalysisDashboard(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err, "분석 통계 조회 실패")
		return
	}

	c.JSON(http.StatusOK, dashboard)
}
