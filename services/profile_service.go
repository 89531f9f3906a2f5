package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ArpaAP/soulbin/config"
	"github.com/ArpaAP/soulbin/models"
	"github.com/ArpaAP/soulbin/utils"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// 분석된 일기가 없을 때의 대표 감정
const noEmotion = "-"

const (
	mindsetCacheTTL = 24 * time.Hour
	exportVersion   = 1
)

// ProfileService 프로필, 통계, 데이터 관리
type ProfileService struct {
	db    *gorm.DB
	ai    *AIService
	cache MindsetCache
	now   func() time.Time
}

// NewProfileService cache 는 nil 이어도 된다
func NewProfileService(db *gorm.DB, ai *AIService, cache MindsetCache) *ProfileService {
	return &ProfileService{
		db:    db,
		ai:    ai,
		cache: cache,
		now:   time.Now,
	}
}

// CreateTestUser 개발 환경용 사용자를 만든다
func (s *ProfileService) CreateTestUser(ctx context.Context, name, email string) (models.User, error) {
	user := models.User{
		ID:         utils.GenerateID(),
		Name:       name,
		Email:      email,
		AIStyle:    models.AIStyleAuto,
		IsTestUser: true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return models.User{}, errors.Wrap(err, "create test user")
	}
	return user, nil
}

func (s *ProfileService) Get(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, errors.Wrap(err, "get user")
	}
	return user, nil
}

// Register 추가 정보 등록
func (s *ProfileService) Register(ctx context.Context, userID string, req *models.RegisterRequest) (models.User, error) {
	if err := req.Validate(); err != nil {
		return models.User{}, errors.Wrap(ErrInvalidInput, err.Error())
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	req.Apply(&user)
	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		return models.User{}, errors.Wrap(err, "register user")
	}
	return user, nil
}

func (s *ProfileService) Update(ctx context.Context, userID string, req *models.UpdateProfileRequest) (models.User, error) {
	updates, err := req.Updates()
	if err != nil {
		return models.User{}, errors.Wrap(ErrInvalidInput, err.Error())
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		return models.User{}, errors.Wrap(res.Error, "update user")
	}
	if res.RowsAffected == 0 {
		return models.User{}, ErrNotFound
	}
	return s.Get(ctx, userID)
}

type emotionCount struct {
	Emotion string
	Total   int64
}

// userAnalyses 사용자의 일기에 딸린 분석만 고른다
func userAnalyses(db *gorm.DB, userID string) *gorm.DB {
	return db.Model(&models.DiaryAnalysis{}).
		Joins("JOIN diaries ON diaries.id = diary_analyses.diary_id").
		Where("diaries.user_id = ?", userID)
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// Stats 는 조회 시점에 계산한다. 백그라운드 작업은 집계 값을 갱신하지 않는다
func (s *ProfileService) Stats(ctx context.Context, userID string) (models.ProfileStats, error) {
	db := s.db.WithContext(ctx)
	stats := models.ProfileStats{MostCommonEmotion: noEmotion}

	if err := db.Model(&models.Diary{}).Where("user_id = ?", userID).Count(&stats.TotalRecords).Error; err != nil {
		return models.ProfileStats{}, errors.Wrap(err, "count diaries")
	}

	analysed := func() *gorm.DB { return userAnalyses(db, userID) }

	var counts []emotionCount
	err := analysed().
		Select("diary_analyses.emotion AS emotion, COUNT(*) AS total").
		Where("diary_analyses.emotion <> ''").
		Group("diary_analyses.emotion").
		Order("total DESC, emotion ASC").
		Scan(&counts).Error
	if err != nil {
		return models.ProfileStats{}, errors.Wrap(err, "count emotions")
	}
	if len(counts) > 0 {
		stats.MostCommonEmotion = counts[0].Emotion
	}
	stats.EmotionTypes = len(counts)

	var avg float64
	err = analysed().
		Select("COALESCE(AVG(diary_analyses.intensity), 0)").
		Row().Scan(&avg)
	if err != nil {
		return models.ProfileStats{}, errors.Wrap(err, "average intensity")
	}
	stats.AverageIntensity = roundTenth(avg)

	return stats, nil
}

// DailyMindset 은 Redis 가 있으면 사용자별로 하루 동안 캐시한다
func (s *ProfileService) DailyMindset(ctx context.Context, userID string) (models.MindsetResponse, error) {
	date := s.now().Format("2006-01-02")
	key := mindsetKey(userID, date)

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			config.Logger.Warnw("마음가짐 캐시 조회 실패", "error", err, "userID", userID)
		} else if ok {
			return models.MindsetResponse{Date: date, Mindset: cached, Cached: true}, nil
		}
	}

	stats, err := s.Stats(ctx, userID)
	if err != nil {
		return models.MindsetResponse{}, err
	}

	mindset := s.ai.GenerateDailyMindset(ctx, stats)
	// 폴백 문장은 캐시하지 않는다
	if s.cache != nil && mindset != fallbackDailyMindset {
		if err := s.cache.Set(ctx, key, mindset, mindsetCacheTTL); err != nil {
			config.Logger.Warnw("마음가짐 캐시 저장 실패", "error", err, "userID", userID)
		}
	}

	return models.MindsetResponse{Date: date, Mindset: mindset}, nil
}

func mindsetKey(userID, date string) string {
	return fmt.Sprintf("soulbin:mindset:%s:%s", userID, date)
}

// DeleteData 일기와 분석을 모두 지우고 프로필 항목을 초기화한다
func (s *ProfileService) DeleteData(ctx context.Context, userID string) (models.User, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		diaryIDs := tx.Model(&models.Diary{}).Select("id").Where("user_id = ?", userID)
		if err := tx.Where("diary_id IN (?)", diaryIDs).Delete(&models.DiaryAnalysis{}).Error; err != nil {
			return errors.Wrap(err, "delete analyses")
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Diary{}).Error; err != nil {
			return errors.Wrap(err, "delete diaries")
		}

		res := tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
			"nickname":     nil,
			"phone_number": nil,
			"birth_date":   nil,
			"job":          nil,
			"ai_style":     models.AIStyleAuto,
		})
		if res.Error != nil {
			return errors.Wrap(res.Error, "reset profile")
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}

	// 지운 기록으로 만든 오늘의 마음가짐이 남지 않도록 한다
	if s.cache != nil {
		key := mindsetKey(userID, s.now().Format("2006-01-02"))
		if err := s.cache.Delete(ctx, key); err != nil {
			config.Logger.Warnw("마음가짐 캐시 삭제 실패", "error", err, "userID", userID)
		}
	}
	return s.Get(ctx, userID)
}

// Export 프로필, 일기(분석 포함), 채팅(메시지 포함)을 한 문서로 만든다
func (s *ProfileService) Export(ctx context.Context, userID string) (models.UserExport, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return models.UserExport{}, err
	}

	db := s.db.WithContext(ctx)

	var diaries []models.Diary
	err = db.Preload("Analysis").
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&diaries).Error
	if err != nil {
		return models.UserExport{}, errors.Wrap(err, "export diaries")
	}

	var chats []models.Chat
	err = db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC")
	}).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&chats).Error
	if err != nil {
		return models.UserExport{}, errors.Wrap(err, "export chats")
	}

	return models.UserExport{
		Version:    exportVersion,
		ExportedAt: s.now().UTC(),
		Profile:    models.NewUserResponse(user),
		Diaries:    lo.Map(diaries, func(d models.Diary, _ int) models.DiaryResponse { return models.NewDiaryResponse(d) }),
		Chats:      lo.Map(chats, func(c models.Chat, _ int) models.ChatResponse { return models.NewChatResponse(c) }),
	}, nil
}
