package models

import (
	"strings"
	"time"
)

// AIStyle 은 조언과 대화에 쓰이는 상담 페르소나
type AIStyle string

const (
	AIStyleAuto AIStyle = "AUTO"
	AIStyleCold AIStyle = "COLD"
	AIStyleWarm AIStyle = "WARM"
)

// ParseAIStyle 은 대소문자 구분 없이 auto/cold/warm 을 받는다
func ParseAIStyle(s string) (AIStyle, bool) {
	switch AIStyle(strings.ToUpper(strings.TrimSpace(s))) {
	case AIStyleAuto:
		return AIStyleAuto, true
	case AIStyleCold:
		return AIStyleCold, true
	case AIStyleWarm:
		return AIStyleWarm, true
	default:
		return AIStyleAuto, false
	}
}

// OrDefault 비어 있거나 알 수 없는 값이면 AUTO
func (s AIStyle) OrDefault() AIStyle {
	if style, ok := ParseAIStyle(string(s)); ok {
		return style
	}
	return AIStyleAuto
}

// User 사용자 모델
type User struct {
	ID           string     `gorm:"type:varchar(50);primaryKey" json:"id"`
	Name         string     `gorm:"type:varchar(100)" json:"name"`
	Email        string     `gorm:"type:varchar(100)" json:"email"`
	Nickname     *string    `gorm:"type:varchar(100)" json:"nickname"`
	PhoneNumber  *string    `gorm:"type:varchar(30)" json:"phoneNumber"`
	BirthDate    *time.Time `json:"birthDate"`
	Job          *string    `gorm:"type:varchar(100)" json:"job"`
	AIStyle      AIStyle    `gorm:"type:varchar(10);default:'AUTO'" json:"aiStyle"`
	IsRegistered bool       `gorm:"default:false" json:"isRegistered"`
	IsTestUser   bool       `gorm:"default:false" json:"isTestUser"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (u *User) GetDisplayName() string {
	if u.Nickname != nil && *u.Nickname != "" {
		return *u.Nickname
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
