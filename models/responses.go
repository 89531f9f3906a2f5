package models

import "time"

// DiaryResponse 일기 응답. 분석이 끝나지 않았으면 Analysis 는 null
type DiaryResponse struct {
	ID             string            `json:"id"`
	Content        string            `json:"content"`
	AnalysisStatus AnalysisStatus    `json:"analysisStatus"`
	CreatedAt      time.Time         `json:"createdAt"`
	Analysis       *AnalysisResponse `json:"analysis"`
}

type AnalysisResponse struct {
	Emotion   string    `json:"emotion"`
	Intensity int       `json:"intensity"`
	Tags      []string  `json:"tags"`
	Summary   string    `json:"summary"`
	Advice    string    `json:"advice"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewDiaryResponse(d Diary) DiaryResponse {
	resp := DiaryResponse{
		ID:             d.ID,
		Content:        d.Content,
		AnalysisStatus: d.AnalysisStatus,
		CreatedAt:      d.CreatedAt,
	}
	if d.Analysis != nil {
		resp.Analysis = &AnalysisResponse{
			Emotion:   d.Analysis.Emotion,
			Intensity: d.Analysis.Intensity,
			Tags:      []string(d.Analysis.Tags),
			Summary:   d.Analysis.Summary,
			Advice:    d.Analysis.Advice,
		}
	}
	return resp
}

// ChatSummary 채팅 목록 항목
type ChatSummary struct {
	ID          string    `json:"id"`
	Title       *string   `json:"title"`
	LastMessage *string   `json:"lastMessage"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ChatResponse 메시지를 포함한 채팅. 내보내기 문서에 쓰인다
type ChatResponse struct {
	ID        string            `json:"id"`
	Title     *string           `json:"title"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Messages  []MessageResponse `json:"messages"`
}

type MessageResponse struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"createdAt"`
}

func NewChatResponse(c Chat) ChatResponse {
	resp := ChatResponse{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Messages:  make([]MessageResponse, 0, len(c.Messages)),
	}
	for _, m := range c.Messages {
		resp.Messages = append(resp.Messages, MessageResponse{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return resp
}

// SendMessageResponse 사용자 메시지와 AI 응답을 함께 돌려준다
type SendMessageResponse struct {
	UserMessage      Message `json:"userMessage"`
	AssistantMessage Message `json:"assistantMessage"`
	Title            *string `json:"title"`
}

// ProfileStats 감정 통계
type ProfileStats struct {
	TotalRecords      int64   `json:"totalRecords"`
	MostCommonEmotion string  `json:"mostCommonEmotion"`
	EmotionTypes      int     `json:"emotionTypes"`
	AverageIntensity  float64 `json:"averageIntensity"`
}

// UserResponse 프로필 응답
type UserResponse struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	DisplayName  string     `json:"displayName"`
	Nickname     *string    `json:"nickname"`
	PhoneNumber  *string    `json:"phoneNumber"`
	BirthDate    *time.Time `json:"birthDate"`
	Job          *string    `json:"job"`
	AIStyle      AIStyle    `json:"aiStyle"`
	IsRegistered bool       `json:"isRegistered"`
}

func NewUserResponse(u User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		DisplayName:  u.GetDisplayName(),
		Nickname:     u.Nickname,
		PhoneNumber:  u.PhoneNumber,
		BirthDate:    u.BirthDate,
		Job:          u.Job,
		AIStyle:      u.AIStyle.OrDefault(),
		IsRegistered: u.IsRegistered,
	}
}

// MindsetResponse 오늘의 마음가짐
type MindsetResponse struct {
	Date    string `json:"date"`
	Mindset string `json:"mindset"`
	Cached  bool   `json:"cached"`
}

// UserExport 데이터 내보내기 문서
type UserExport struct {
	Version    int             `json:"version"`
	ExportedAt time.Time       `json:"exportedAt"`
	Profile    UserResponse    `json:"profile"`
	Diaries    []DiaryResponse `json:"diaries"`
	Chats      []ChatResponse  `json:"chats"`
}

// RestoreResult 가져오기 결과. 이미 있는 항목은 건너뛴다
type RestoreResult struct {
	ImportedDiaries int `json:"importedDiaries"`
	SkippedDiaries  int `json:"skippedDiaries"`
	ImportedChats   int `json:"importedChats"`
	SkippedChats    int `json:"skippedChats"`
}

// AnalysisDashboard 감정 분석 대시보드. Sufficient 가 false 면 나머지 집계는 비어 있다
type AnalysisDashboard struct {
	TotalCount          int64            `json:"totalCount"`
	Sufficient          bool             `json:"sufficient"`
	MinimumCount        int64            `json:"minimumCount"`
	MostFrequentEmotion string           `json:"mostFrequentEmotion"`
	AverageIntensity    float64          `json:"averageIntensity"`
	EmotionTypes        int              `json:"emotionTypes"`
	Emotions            []EmotionDetail  `json:"emotions"`
	Daily               []DailyIntensity `json:"daily"`
}

// EmotionDetail 감정별 횟수, 평균 강도, 비율(%)
type EmotionDetail struct {
	Emotion          string  `json:"emotion"`
	Count            int64   `json:"count"`
	AverageIntensity float64 `json:"averageIntensity"`
	Percentage       float64 `json:"percentage"`
}

// DailyIntensity 하루 평균 강도. 기록이 없는 날은 0
type DailyIntensity struct {
	Date             string  `json:"date"`
	AverageIntensity float64 `json:"averageIntensity"`
	Count            int     `json:"count"`
}
