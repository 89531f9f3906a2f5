package controllers

import (
	"net/http"

	"github.com/ArpaAP/soulbin/models"
	"github.com/ArpaAP/soulbin/services"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type DiaryController struct {
	diaryService *services.DiaryService
}

func NewDiaryController(diaryService *services.DiaryService) *DiaryController {
	return &DiaryController{diaryService: diaryService}
}

// SaveDiary 일기 저장. 분석은 응답 이후 백그라운드에서 진행된다
func (dc *DiaryController) SaveDiary(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.SaveDiaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	diary, err := dc.diaryService.Save(c.Request.Context(), uid, req.Content)
	if err != nil {
		respondError(c, err, "일기 저장 실패")
		return
	}

	c.JSON(http.StatusCreated, models.NewDiaryResponse(diary))
}

func (dc *DiaryController) ListDiaries(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	diaries, err := dc.diaryService.List(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err, "일기 목록 조회 실패")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"diaries": lo.Map(diaries, func(d models.Diary, _ int) models.DiaryResponse {
			return models.NewDiaryResponse(d)
		}),
	})
}

// GetDiary 클라이언트는 analysisStatus 를 다시 조회해 완료 여부를 확인한다
func (dc *DiaryController) GetDiary(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	diary, err := dc.diaryService.Get(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		respondError(c, err, "일기 조회 실패")
		return
	}

	c.JSON(http.StatusOK, models.NewDiaryResponse(diary))
}

func (dc *DiaryController) DeleteDiary(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := dc.diaryService.Delete(c.Request.Context(), uid, c.Param("id")); err != nil {
		respondError(c, err, "일기 삭제 실패")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "일기가 삭제되었습니다"})
}
