package services

import (
	"context"
	"fmt"

	"github.com/ArpaAP/soulbin/config"
	"github.com/ArpaAP/soulbin/metrics"
	"github.com/ArpaAP/soulbin/models"
	"github.com/ArpaAP/soulbin/queue"
	"github.com/ArpaAP/soulbin/utils"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TaskAnalyzeDiary 일기 감정 분석 작업 종류
const TaskAnalyzeDiary = "analyze_diary"

// 분석 결과 메트릭 라벨
const (
	outcomeCompleted = "completed"
	outcomeFailed    = "failed"
	outcomeDuplicate = "duplicate"
)

// AnalysisProcessor 는 저장된 일기를 분석해 PENDING 을 COMPLETED 또는 FAILED 로 바꾼다.
// 상태는 PENDING 일 때만 바뀌므로 같은 일기에 작업이 두 번 들어와도 분석 행은 하나다.
type AnalysisProcessor struct {
	db      *gorm.DB
	ai      *AIService
	metrics *metrics.Metrics
}

func NewAnalysisProcessor(db *gorm.DB, ai *AIService, m *metrics.Metrics) *AnalysisProcessor {
	return &AnalysisProcessor{
		db:      db,
		ai:      ai,
		metrics: m,
	}
}

// Handle queue.Handler 로 등록하기 위한 어댑터
func (p *AnalysisProcessor) Handle(ctx context.Context, task queue.Task) error {
	return p.Process(ctx, task.Ref)
}

func (p *AnalysisProcessor) Process(ctx context.Context, diaryID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = p.fail(ctx, diaryID, fmt.Errorf("analysis panic: %v", r))
		}
	}()

	var diary models.Diary
	if err := p.db.WithContext(ctx).Where("id = ?", diaryID).First(&diary).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrapf(ErrNotFound, "diary %s", diaryID)
		}
		return p.fail(ctx, diaryID, errors.Wrap(err, "load diary"))
	}

	if diary.AnalysisStatus != models.AnalysisPending {
		p.metrics.IncAnalysis(outcomeDuplicate)
		return errors.Wrapf(ErrAlreadyProcessed, "diary %s is %s", diaryID, diary.AnalysisStatus)
	}

	style := p.userStyle(ctx, diary.UserID)
	report := p.ai.ProcessEmotion(ctx, diary.Content, style)
	if report.AnalysisFallback {
		return p.fail(ctx, diaryID, ErrAnalysisUnavailable)
	}

	analysis := models.DiaryAnalysis{
		ID:        utils.GenerateID(),
		DiaryID:   diary.ID,
		Emotion:   report.Emotion,
		Intensity: report.Intensity,
		Tags:      datatypes.JSONSlice[string](report.Tags),
		Summary:   report.Summary,
		Advice:    report.Advice,
	}

	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 상태를 먼저 바꿔 행 잠금을 잡는다
		res := tx.Model(&models.Diary{}).
			Where("id = ? AND analysis_status = ?", diary.ID, models.AnalysisPending).
			Update("analysis_status", models.AnalysisCompleted)
		if res.Error != nil {
			return errors.Wrap(res.Error, "update diary status")
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyProcessed
		}
		return errors.Wrap(tx.Create(&analysis).Error, "create diary analysis")
	})
	if errors.Is(err, ErrAlreadyProcessed) {
		p.metrics.IncAnalysis(outcomeDuplicate)
		return errors.Wrapf(err, "diary %s", diary.ID)
	}
	if err != nil {
		return p.fail(ctx, diary.ID, err)
	}

	p.metrics.IncAnalysis(outcomeCompleted)
	config.Logger.Infow("일기 분석 완료",
		"diaryID", diary.ID,
		"emotion", analysis.Emotion,
		"intensity", analysis.Intensity,
		"adviceFallback", report.AdviceFallback,
	)
	return nil
}

func (p *AnalysisProcessor) userStyle(ctx context.Context, userID string) models.AIStyle {
	var user models.User
	err := p.db.WithContext(ctx).Select("id", "ai_style").Where("id = ?", userID).First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			config.Logger.Warnw("AI 스타일 조회 실패, AUTO 사용", "error", err, "userID", userID)
		}
		return models.AIStyleAuto
	}
	return user.AIStyle.OrDefault()
}

// fail 은 PENDING 인 일기만 FAILED 로 바꾸고 원래 에러를 돌려준다
func (p *AnalysisProcessor) fail(ctx context.Context, diaryID string, cause error) error {
	p.metrics.IncAnalysis(outcomeFailed)
	config.Logger.Errorw("일기 분석 실패", "error", cause, "diaryID", diaryID)

	if err := MarkDiaryFailed(context.WithoutCancel(ctx), p.db, diaryID); err != nil {
		config.Logger.Errorw("FAILED 상태 저장 실패", "error", err, "diaryID", diaryID)
	}
	return cause
}

// MarkDiaryFailed 는 터미널 상태를 덮어쓰지 않는다
func MarkDiaryFailed(ctx context.Context, db *gorm.DB, diaryID string) error {
	return db.WithContext(ctx).
		Model(&models.Diary{}).
		Where("id = ? AND analysis_status = ?", diaryID, models.AnalysisPending).
		Update("analysis_status", models.AnalysisFailed).Error
}
