package models

import "time"

// MessageRole 메시지 작성 주체
type MessageRole string

const (
	RoleUser      MessageRole = "USER"
	RoleAssistant MessageRole = "ASSISTANT"
	RoleSystem    MessageRole = "SYSTEM"
)

// Chat 상담 세션. Title 은 첫 사용자 메시지 이후 한 번만 채워진다
type Chat struct {
	ID        string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(50);index:idx_chats_user_updated" json:"userId"`
	Title     *string   `gorm:"type:varchar(100)" json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `gorm:"index:idx_chats_user_updated" json:"updatedAt"`

	Messages []Message `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// Message 는 추가만 되며 세션 안에서 created_at 오름차순으로 정렬된다
type Message struct {
	ID        string      `gorm:"type:varchar(50);primaryKey" json:"id"`
	ChatID    string      `gorm:"type:varchar(50);index:idx_messages_chat_created" json:"chatId"`
	Content   string      `gorm:"type:text;not null" json:"content"`
	Role      MessageRole `gorm:"type:varchar(20)" json:"role"`
	CreatedAt time.Time   `gorm:"index:idx_messages_chat_created" json:"createdAt"`
}
