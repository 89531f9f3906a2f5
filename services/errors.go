package services

import "github.com/pkg/errors"

var (
	ErrNotFound     = errors.New("리소스를 찾을 수 없습니다")
	ErrInvalidInput = errors.New("잘못된 요청")

	// ErrAlreadyProcessed 분석 작업이 이미 끝난 일기에 다시 들어왔다
	ErrAlreadyProcessed = errors.New("이미 분석이 끝난 일기")
	// ErrAnalysisUnavailable 감정 분석이 폴백으로 끝나 결과를 저장하지 않는다
	ErrAnalysisUnavailable = errors.New("감정 분석 결과를 얻지 못했습니다")
)
