package services

import (
	"context"

	"github.com/ArpaAP/soulbin/models"
	"github.com/ArpaAP/soulbin/utils"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Restore 내보내기 문서를 현재 데이터에 병합한다.
// 내용과 작성 시각이 같은 일기, 생성 시각이 같은 채팅은 이미 있는 것으로 보고 건너뛴다
func (s *ProfileService) Restore(ctx context.Context, userID string, doc models.UserExport) (models.RestoreResult, error) {
	if doc.Version > exportVersion {
		return models.RestoreResult{}, errors.Wrapf(ErrInvalidInput, "지원하지 않는 백업 버전: %d", doc.Version)
	}

	var result models.RestoreResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users int64
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&users).Error; err != nil {
			return errors.Wrap(err, "find user")
		}
		if users == 0 {
			return ErrNotFound
		}

		if doc.Profile != (models.UserResponse{}) {
			if err := restoreProfile(tx, userID, doc.Profile); err != nil {
				return err
			}
		}

		for _, diary := range doc.Diaries {
			imported, err := restoreDiary(tx, userID, diary)
			if err != nil {
				return err
			}
			if imported {
				result.ImportedDiaries++
			} else {
				result.SkippedDiaries++
			}
		}

		for _, chat := range doc.Chats {
			imported, err := restoreChat(tx, userID, chat)
			if err != nil {
				return err
			}
			if imported {
				result.ImportedChats++
			} else {
				result.SkippedChats++
			}
		}
		return nil
	})
	if err != nil {
		return models.RestoreResult{}, err
	}
	return result, nil
}

func restoreProfile(tx *gorm.DB, userID string, p models.UserResponse) error {
	style, ok := models.ParseAIStyle(string(p.AIStyle))
	if !ok {
		style = models.AIStyleAuto
	}

	updates := map[string]any{
		"nickname":     p.Nickname,
		"phone_number": p.PhoneNumber,
		"birth_date":   p.BirthDate,
		"job":          p.Job,
		"ai_style":     style,
	}
	if p.Name != "" {
		updates["name"] = p.Name
	}

	if err := tx.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return errors.Wrap(err, "restore profile")
	}
	return nil
}

func restoreDiary(tx *gorm.DB, userID string, d models.DiaryResponse) (bool, error) {
	if d.Content == "" {
		return false, nil
	}

	var existing int64
	err := tx.Model(&models.Diary{}).
		Where("user_id = ? AND content = ? AND created_at = ?", userID, d.Content, d.CreatedAt).
		Count(&existing).Error
	if err != nil {
		return false, errors.Wrap(err, "find diary")
	}
	if existing > 0 {
		return false, nil
	}

	// 분석 작업을 다시 예약하지 않으므로 분석이 없는 일기는 FAILED 로 들여온다
	status := models.AnalysisFailed
	if d.Analysis != nil {
		status = models.AnalysisCompleted
	}

	diary := models.Diary{
		ID:             utils.GenerateID(),
		UserID:         userID,
		Content:        d.Content,
		AnalysisStatus: status,
		CreatedAt:      d.CreatedAt,
	}
	if err := tx.Create(&diary).Error; err != nil {
		return false, errors.Wrap(err, "restore diary")
	}

	if d.Analysis == nil {
		return true, nil
	}

	a := d.Analysis
	analysedAt := a.CreatedAt
	if analysedAt.IsZero() {
		analysedAt = d.CreatedAt
	}
	analysis := models.DiaryAnalysis{
		ID:        utils.GenerateID(),
		DiaryID:   diary.ID,
		Emotion:   a.Emotion,
		Intensity: lo.Clamp(a.Intensity, 1, 10),
		Tags:      datatypes.JSONSlice[string](a.Tags),
		Summary:   a.Summary,
		Advice:    a.Advice,
		CreatedAt: analysedAt,
	}
	if err := tx.Create(&analysis).Error; err != nil {
		return false, errors.Wrap(err, "restore analysis")
	}
	return true, nil
}

func restoreChat(tx *gorm.DB, userID string, c models.ChatResponse) (bool, error) {
	// 제목은 비어 있을 수 있어 생성 시각으로만 비교한다
	var existing int64
	err := tx.Model(&models.Chat{}).
		Where("user_id = ? AND created_at = ?", userID, c.CreatedAt).
		Count(&existing).Error
	if err != nil {
		return false, errors.Wrap(err, "find chat")
	}
	if existing > 0 {
		return false, nil
	}

	for _, m := range c.Messages {
		if m.Role != models.RoleUser && m.Role != models.RoleAssistant && m.Role != models.RoleSystem {
			return false, errors.Wrapf(ErrInvalidInput, "잘못된 메시지 역할: %s", m.Role)
		}
	}

	chat := models.Chat{
		ID:        utils.GenerateID(),
		UserID:    userID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if err := tx.Create(&chat).Error; err != nil {
		return false, errors.Wrap(err, "restore chat")
	}

	if len(c.Messages) == 0 {
		return true, nil
	}

	messages := lo.Map(c.Messages, func(m models.MessageResponse, _ int) models.Message {
		return models.Message{
			ID:        utils.GenerateID(),
			ChatID:    chat.ID,
			Content:   m.Content,
			Role:      m.Role,
			CreatedAt: m.CreatedAt,
		}
	})
	if err := tx.Create(&messages).Error; err != nil {
		return false, errors.Wrap(err, "restore messages")
	}
	return true, nil
}
