package services

import (
	"context"
	"time"

	"github.com/ArpaAP/soulbin/config"
	"github.com/ArpaAP/soulbin/models"
	"github.com/ArpaAP/soulbin/utils"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// ChatService 상담 세션과 메시지
type ChatService struct {
	db *gorm.DB
	ai *AIService
}

func NewChatService(db *gorm.DB, ai *AIService) *ChatService {
	return &ChatService{db: db, ai: ai}
}

func (s *ChatService) Create(ctx context.Context, userID string) (models.Chat, error) {
	chat := models.Chat{
		ID:     utils.GenerateID(),
		UserID: userID,
	}
	if err := s.db.WithContext(ctx).Create(&chat).Error; err != nil {
		return models.Chat{}, errors.Wrap(err, "create chat")
	}
	return chat, nil
}

// List 최근 대화순. 마지막 메시지를 미리보기로 붙인다
func (s *ChatService) List(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	var chats []models.Chat
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC, id DESC").
		Find(&chats).Error
	if err != nil {
		return nil, errors.Wrap(err, "list chats")
	}
	if len(chats) == 0 {
		return []models.ChatSummary{}, nil
	}

	var latest []models.Message
	err = s.db.WithContext(ctx).
		Where("chat_id IN ?", lo.Map(chats, func(c models.Chat, _ int) string { return c.ID })).
		Where("id = (SELECT m2.id FROM messages m2 WHERE m2.chat_id = messages.chat_id ORDER BY m2.created_at DESC, m2.id DESC LIMIT 1)").
		Find(&latest).Error
	if err != nil {
		return nil, errors.Wrap(err, "load last messages")
	}
	preview := lo.SliceToMap(latest, func(m models.Message) (string, string) {
		return m.ChatID, m.Content
	})

	return lo.Map(chats, func(c models.Chat, _ int) models.ChatSummary {
		summary := models.ChatSummary{
			ID:        c.ID,
			Title:     c.Title,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		}
		if content, ok := preview[c.ID]; ok {
			summary.LastMessage = &content
		}
		return summary
	}), nil
}

// Get 메시지는 시간순
func (s *ChatService) Get(ctx context.Context, userID, chatID string) (models.Chat, error) {
	var chat models.Chat
	err := s.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("id = ? AND user_id = ?", chatID, userID).
		First(&chat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Chat{}, ErrNotFound
	}
	if err != nil {
		return models.Chat{}, errors.Wrap(err, "get chat")
	}
	return chat, nil
}

func (s *ChatService) Delete(ctx context.Context, userID, chatID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", chatID, userID).Delete(&models.Chat{})
		if res.Error != nil {
			return errors.Wrap(res.Error, "delete chat")
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return errors.Wrap(tx.Where("chat_id = ?", chatID).Delete(&models.Message{}).Error, "delete messages")
	})
}

// SendMessage 는 사용자 메시지를 저장하고 AI 응답을 만들어 함께 돌려준다.
// 세션의 첫 사용자 메시지일 때만 제목을 생성한다.
func (s *ChatService) SendMessage(ctx context.Context, userID, chatID, content string) (models.SendMessageResponse, error) {
	var chat models.Chat
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", chatID, userID).First(&chat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.SendMessageResponse{}, ErrNotFound
	}
	if err != nil {
		return models.SendMessageResponse{}, errors.Wrap(err, "get chat")
	}

	userMsg := models.Message{
		ID:      utils.GenerateID(),
		ChatID:  chatID,
		Content: content,
		Role:    models.RoleUser,
	}
	var userCount int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&userMsg).Error; err != nil {
			return errors.Wrap(err, "create user message")
		}
		if err := touchChat(tx, chatID); err != nil {
			return err
		}
		return errors.Wrap(
			tx.Model(&models.Message{}).Where("chat_id = ? AND role = ?", chatID, models.RoleUser).Count(&userCount).Error,
			"count user messages",
		)
	})
	if err != nil {
		return models.SendMessageResponse{}, err
	}

	if userCount == 1 && chat.Title == nil {
		s.generateTitle(ctx, chatID, content)
	}

	var recent []models.Message
	err = s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC, id DESC").
		Limit(chatHistoryLimit).
		Find(&recent).Error
	if err != nil {
		return models.SendMessageResponse{}, errors.Wrap(err, "load history")
	}

	reply := s.ai.GenerateChatReply(ctx, lo.Reverse(recent))

	assistantMsg := models.Message{
		ID:      utils.GenerateID(),
		ChatID:  chatID,
		Content: reply,
		Role:    models.RoleAssistant,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&assistantMsg).Error; err != nil {
			return errors.Wrap(err, "create assistant message")
		}
		return touchChat(tx, chatID)
	})
	if err != nil {
		return models.SendMessageResponse{}, err
	}

	if err := s.db.WithContext(ctx).Select("title").Where("id = ?", chatID).First(&chat).Error; err != nil {
		return models.SendMessageResponse{}, errors.Wrap(err, "reload chat")
	}

	return models.SendMessageResponse{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		Title:            chat.Title,
	}, nil
}

// generateTitle 실패하면 제목은 null 로 남는다
func (s *ChatService) generateTitle(ctx context.Context, chatID, firstMessage string) {
	title, err := s.ai.GenerateChatTitle(ctx, firstMessage)
	if err != nil {
		config.Logger.Warnw("채팅 제목 생성 실패", "error", err, "chatID", chatID)
		return
	}

	err = s.db.WithContext(ctx).
		Model(&models.Chat{}).
		Where("id = ? AND title IS NULL", chatID).
		Update("title", title).Error
	if err != nil {
		config.Logger.Errorw("채팅 제목 저장 실패", "error", err, "chatID", chatID)
	}
}

func touchChat(tx *gorm.DB, chatID string) error {
	return errors.Wrap(
		tx.Model(&models.Chat{}).Where("id = ?", chatID).Update("updated_at", time.Now()).Error,
		"touch chat",
	)
}
