package services

import (
	"context"
	"time"

	"github.com/ArpaAP/soulbin/models"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

const (
	// 이보다 적으면 통계를 보여주지 않는다
	dashboardMinAnalyses = 3
	dashboardDays        = 7
)

type emotionAggregate struct {
	Emotion      string
	Total        int64
	AvgIntensity float64
}

// AnalysisDashboard 감정 분포, 감정별 평균 강도, 최근 7일 추이를 계산한다
func (s *ProfileService) AnalysisDashboard(ctx context.Context, userID string) (models.AnalysisDashboard, error) {
	db := s.db.WithContext(ctx)
	dash := models.AnalysisDashboard{
		MinimumCount:        dashboardMinAnalyses,
		MostFrequentEmotion: noEmotion,
		Emotions:            []models.EmotionDetail{},
		Daily:               []models.DailyIntensity{},
	}

	if err := userAnalyses(db, userID).Count(&dash.TotalCount).Error; err != nil {
		return models.AnalysisDashboard{}, errors.Wrap(err, "count analyses")
	}
	if dash.TotalCount < dashboardMinAnalyses {
		return dash, nil
	}
	dash.Sufficient = true

	var rows []emotionAggregate
	err := userAnalyses(db, userID).
		Select("diary_analyses.emotion AS emotion, COUNT(*) AS total, AVG(diary_analyses.intensity) AS avg_intensity").
		Group("diary_analyses.emotion").
		Order("total DESC, emotion ASC").
		Scan(&rows).Error
	if err != nil {
		return models.AnalysisDashboard{}, errors.Wrap(err, "group emotions")
	}

	total := float64(dash.TotalCount)
	dash.Emotions = lo.Map(rows, func(r emotionAggregate, _ int) models.EmotionDetail {
		return models.EmotionDetail{
			Emotion:          r.Emotion,
			Count:            r.Total,
			AverageIntensity: roundTenth(r.AvgIntensity),
			Percentage:       roundTenth(float64(r.Total) / total * 100),
		}
	})
	dash.EmotionTypes = len(rows)
	if len(rows) > 0 {
		dash.MostFrequentEmotion = rows[0].Emotion
	}
	sum := lo.SumBy(rows, func(r emotionAggregate) float64 { return r.AvgIntensity * float64(r.Total) })
	dash.AverageIntensity = roundTenth(sum / total)

	daily, err := s.dailyIntensity(ctx, userID)
	if err != nil {
		return models.AnalysisDashboard{}, err
	}
	dash.Daily = daily

	return dash, nil
}

// dailyIntensity 오늘을 포함한 최근 7일. 기록이 없는 날도 0 으로 채운다
func (s *ProfileService) dailyIntensity(ctx context.Context, userID string) ([]models.DailyIntensity, error) {
	now := s.now()
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	start := today.AddDate(0, 0, -(dashboardDays - 1))

	var recent []models.DiaryAnalysis
	err := userAnalyses(s.db.WithContext(ctx), userID).
		Where("diary_analyses.created_at >= ?", start).
		Find(&recent).Error
	if err != nil {
		return nil, errors.Wrap(err, "recent analyses")
	}

	byDay := lo.GroupBy(recent, func(a models.DiaryAnalysis) string {
		return a.CreatedAt.In(loc).Format("2006-01-02")
	})

	days := make([]models.DailyIntensity, 0, dashboardDays)
	for i := 0; i < dashboardDays; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		day := models.DailyIntensity{Date: date}
		if items := byDay[date]; len(items) > 0 {
			sum := lo.SumBy(items, func(a models.DiaryAnalysis) int { return a.Intensity })
			day.Count = len(items)
			day.AverageIntensity = roundTenth(float64(sum) / float64(len(items)))
		}
		days = append(days, day)
	}
	return days, nil
}
