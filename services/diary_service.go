package services

import (
	"context"

	"github.com/ArpaAP/soulbin/config"
	"github.com/ArpaAP/soulbin/metrics"
	"github.com/ArpaAP/soulbin/models"
	"github.com/ArpaAP/soulbin/queue"
	"github.com/ArpaAP/soulbin/utils"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// DiaryService 일기 저장/조회. 분석은 큐로 넘긴다
type DiaryService struct {
	db      *gorm.DB
	queue   queue.Queue
	metrics *metrics.Metrics
}

func NewDiaryService(db *gorm.DB, q queue.Queue, m *metrics.Metrics) *DiaryService {
	return &DiaryService{
		db:      db,
		queue:   q,
		metrics: m,
	}
}

// Save 는 일기를 PENDING 으로 저장하고 분석 작업을 등록한다.
// 등록에 실패해도 일기는 남고 상태만 FAILED 가 된다.
func (s *DiaryService) Save(ctx context.Context, userID, content string) (models.Diary, error) {
	diary := models.Diary{
		ID:             utils.GenerateID(),
		UserID:         userID,
		Content:        content,
		AnalysisStatus: models.AnalysisPending,
	}
	if err := s.db.WithContext(ctx).Create(&diary).Error; err != nil {
		return models.Diary{}, errors.Wrap(err, "create diary")
	}

	if err := s.queue.Enqueue(ctx, queue.NewTask(TaskAnalyzeDiary, diary.ID)); err != nil {
		config.Logger.Errorw("분석 작업 등록 실패", "error", err, "diaryID", diary.ID)
		s.metrics.IncAnalysis(outcomeFailed)
		if err := MarkDiaryFailed(context.WithoutCancel(ctx), s.db, diary.ID); err != nil {
			config.Logger.Errorw("FAILED 상태 저장 실패", "error", err, "diaryID", diary.ID)
		} else {
			diary.AnalysisStatus = models.AnalysisFailed
		}
	}

	return diary, nil
}

// List 최신순, 분석 결과 포함
func (s *DiaryService) List(ctx context.Context, userID string) ([]models.Diary, error) {
	var diaries []models.Diary
	err := s.db.WithContext(ctx).
		Preload("Analysis").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&diaries).Error
	if err != nil {
		return nil, errors.Wrap(err, "list diaries")
	}
	return diaries, nil
}

func (s *DiaryService) Get(ctx context.Context, userID, diaryID string) (models.Diary, error) {
	var diary models.Diary
	err := s.db.WithContext(ctx).
		Preload("Analysis").
		Where("id = ? AND user_id = ?", diaryID, userID).
		First(&diary).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Diary{}, ErrNotFound
	}
	if err != nil {
		return models.Diary{}, errors.Wrap(err, "get diary")
	}
	return diary, nil
}

// Delete 분석 결과와 함께 삭제
func (s *DiaryService) Delete(ctx context.Context, userID, diaryID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", diaryID, userID).Delete(&models.Diary{})
		if res.Error != nil {
			return errors.Wrap(res.Error, "delete diary")
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return errors.Wrap(
			tx.Where("diary_id = ?", diaryID).Delete(&models.DiaryAnalysis{}).Error,
			"delete diary analysis",
		)
	})
}
