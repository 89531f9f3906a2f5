package models

import (
	"time"

	"gorm.io/datatypes"
)

// AnalysisStatus 일기 분석 상태. PENDING 에서 한 번만 COMPLETED 또는 FAILED 로 바뀐다
type AnalysisStatus string

const (
	AnalysisPending   AnalysisStatus = "PENDING"
	AnalysisCompleted AnalysisStatus = "COMPLETED"
	AnalysisFailed    AnalysisStatus = "FAILED"
)

// IsTerminal 더 이상 바뀌지 않는 상태인지
func (s AnalysisStatus) IsTerminal() bool {
	return s == AnalysisCompleted || s == AnalysisFailed
}

// Diary 일기 모델
type Diary struct {
	ID             string         `gorm:"type:varchar(50);primaryKey" json:"id"`
	UserID         string         `gorm:"type:varchar(50);index:idx_diaries_user_created" json:"userId"`
	Content        string         `gorm:"type:text;not null" json:"content"`
	AnalysisStatus AnalysisStatus `gorm:"type:varchar(20);default:'PENDING';index" json:"analysisStatus"`
	CreatedAt      time.Time      `gorm:"index:idx_diaries_user_created" json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`

	Analysis *DiaryAnalysis `gorm:"foreignKey:DiaryID;constraint:OnDelete:CASCADE" json:"analysis,omitempty"`
}

// DiaryAnalysis 는 COMPLETED 상태의 일기마다 정확히 하나 존재한다
type DiaryAnalysis struct {
	ID        string                      `gorm:"type:varchar(50);primaryKey" json:"id"`
	DiaryID   string                      `gorm:"type:varchar(50);uniqueIndex" json:"diaryId"`
	Emotion   string                      `gorm:"type:varchar(100)" json:"emotion"`
	Intensity int                         `json:"intensity"`
	Tags      datatypes.JSONSlice[string] `json:"tags"`
	Summary   string                      `gorm:"type:text" json:"summary"`
	Advice    string                      `gorm:"type:text" json:"advice"`
	CreatedAt time.Time                   `json:"createdAt"`
	UpdatedAt time.Time                   `json:"updatedAt"`
}

func (DiaryAnalysis) TableName() string {
	return "diary_analyses"
}
