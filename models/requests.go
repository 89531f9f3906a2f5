package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// SaveDiaryRequest 일기 저장 요청
type SaveDiaryRequest struct {
	Content string `json:"content" binding:"required"`
}

func (r *SaveDiaryRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)
	if r.Content == "" {
		return fmt.Errorf("일기 내용을 입력해주세요")
	}
	return nil
}

// SendMessageRequest 채팅 메시지 전송 요청
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func (r *SendMessageRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)
	if r.Content == "" {
		return fmt.Errorf("메시지를 입력해주세요")
	}
	return nil
}

// RegisterRequest 회원 정보 등록 요청. 모든 항목이 필수
type RegisterRequest struct {
	Nickname    string `json:"nickname" binding:"required"`
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	BirthDate   string `json:"birthDate" binding:"required"`
	Job         string `json:"job" binding:"required"`
	AIStyle     string `json:"aiStyle" binding:"required"`

	birthDate time.Time
	aiStyle   AIStyle
}

func (r *RegisterRequest) Validate() error {
	r.Nickname = strings.TrimSpace(r.Nickname)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	r.Job = strings.TrimSpace(r.Job)
	if r.Nickname == "" || r.PhoneNumber == "" || r.Job == "" {
		return fmt.Errorf("필수 항목을 모두 입력해주세요")
	}

	birthDate, err := ParseBirthDate(r.BirthDate)
	if err != nil {
		return err
	}
	r.birthDate = birthDate

	style, ok := ParseAIStyle(r.AIStyle)
	if !ok {
		return fmt.Errorf("잘못된 AI 스타일: %s", r.AIStyle)
	}
	r.aiStyle = style
	return nil
}

// Apply 검증된 값을 사용자에 반영한다. Validate 이후에 호출해야 한다
func (r *RegisterRequest) Apply(user *User) {
	user.Nickname = &r.Nickname
	user.PhoneNumber = &r.PhoneNumber
	user.BirthDate = &r.birthDate
	user.Job = &r.Job
	user.AIStyle = r.aiStyle
	user.IsRegistered = true
}

// UpdateProfileRequest 프로필 부분 수정. nil 인 항목은 그대로 둔다
type UpdateProfileRequest struct {
	Name        *string `json:"name"`
	Nickname    *string `json:"nickname"`
	PhoneNumber *string `json:"phoneNumber"`
	BirthDate   *string `json:"birthDate"`
	Job         *string `json:"job"`
	AIStyle     *string `json:"aiStyle"`
}

// Updates 는 gorm Updates 에 넘길 컬럼 맵을 만든다
func (r *UpdateProfileRequest) Updates() (map[string]any, error) {
	updates := map[string]any{}

	if r.Name != nil {
		updates["name"] = strings.TrimSpace(*r.Name)
	}
	if r.Nickname != nil {
		updates["nickname"] = nullableString(*r.Nickname)
	}
	if r.PhoneNumber != nil {
		updates["phone_number"] = nullableString(*r.PhoneNumber)
	}
	if r.Job != nil {
		updates["job"] = nullableString(*r.Job)
	}
	if r.BirthDate != nil {
		birthDate, err := ParseBirthDate(*r.BirthDate)
		if err != nil {
			return nil, err
		}
		updates["birth_date"] = birthDate
	}
	if r.AIStyle != nil {
		style, ok := ParseAIStyle(*r.AIStyle)
		if !ok {
			return nil, fmt.Errorf("잘못된 AI 스타일: %s", *r.AIStyle)
		}
		updates["ai_style"] = style
	}

	if len(updates) == 0 {
		return nil, fmt.Errorf("수정할 항목이 없습니다")
	}
	return updates, nil
}

// nullableString 공백뿐인 값은 NULL 로 저장한다
func nullableString(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}

// "2005. 06. 01", "2005.6.1", "2005-06-01" 모두 허용
var birthDatePattern = regexp.MustCompile(`^(\d{4})\s*[.\-/]\s*(\d{1,2})\s*[.\-/]\s*(\d{1,2})\.?$`)

// ParseBirthDate 생년월일 문자열을 UTC 자정 시각으로 변환한다
func ParseBirthDate(s string) (time.Time, error) {
	m := birthDatePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, fmt.Errorf("잘못된 생년월일 형식: %q", s)
	}

	// 정규식이 숫자만 허용하므로 변환 에러는 없다
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date 는 2월 30일 같은 값을 정규화하므로 되돌려 확인한다
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("존재하지 않는 날짜: %q", s)
	}
	if t.After(time.Now()) {
		return time.Time{}, fmt.Errorf("생년월일이 미래입니다: %q", s)
	}
	return t, nil
}
