package services

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
)

// ErrParse 모델 출력이 감정 분석 스키마와 맞지 않음
var ErrParse = errors.New("감정 분석 결과 파싱 실패")

// EmotionResult 감정 분석 결과
type EmotionResult struct {
	Emotion   string   `json:"emotion" validate:"required" jsonschema:"description=주요 감정 (예: 불안/기쁨/슬픔/분노/스트레스/피로/외로움/만족/희망/걱정)"`
	Intensity int      `json:"intensity" validate:"min=1,max=10" jsonschema:"minimum=1,maximum=10,description=1부터 10까지의 감정 강도"`
	Tags      []string `json:"tags" validate:"min=1,dive,required" jsonschema:"description=관련 태그 3-5개"`
	Summary   string   `json:"summary" validate:"required" jsonschema:"description=감정 상태에 대한 한 줄 요약"`
}

// FallbackEmotionResult 분석 실패 시 반환하는 고정 값
func FallbackEmotionResult() EmotionResult {
	return EmotionResult{
		Emotion:   fallbackEmotion,
		Intensity: fallbackIntensity,
		Tags:      []string{fallbackTag},
		Summary:   fallbackSummary,
	}
}

var resultValidator = validator.New()

// FormatInstructions 프롬프트에 넣을 출력 형식 설명
func FormatInstructions() string {
	reflector := jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
	}
	schema := reflector.Reflect(&EmotionResult{})
	schema.Version = ""

	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		// 고정된 구조체라 실패하지 않는다
		panic(err)
	}

	return "출력은 아래 JSON Schema 를 따르는 JSON 값이어야 합니다. 설명 문장 없이 JSON 만 응답하세요.\n" +
		"```json\n" + string(b) + "\n```"
}

// ParseEmotionResult 모델 원문을 EmotionResult 로 변환한다. 재시도하지 않는다
func ParseEmotionResult(raw string) (EmotionResult, error) {
	body := extractJSONObject(raw)
	if body == "" {
		return EmotionResult{}, errors.Wrap(ErrParse, "JSON 객체를 찾을 수 없습니다")
	}

	var payload struct {
		Emotion   string   `json:"emotion"`
		Intensity *float64 `json:"intensity"`
		Tags      []string `json:"tags"`
		Summary   string   `json:"summary"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return EmotionResult{}, errors.Wrapf(ErrParse, "잘못된 JSON: %v", err)
	}

	if payload.Intensity == nil {
		return EmotionResult{}, errors.Wrap(ErrParse, "intensity 누락")
	}
	intensity := *payload.Intensity
	if intensity != math.Trunc(intensity) {
		return EmotionResult{}, errors.Wrapf(ErrParse, "intensity 는 정수여야 합니다: %v", intensity)
	}

	result := EmotionResult{
		Emotion:   strings.TrimSpace(payload.Emotion),
		Intensity: int(intensity),
		Tags:      make([]string, 0, len(payload.Tags)),
		Summary:   strings.TrimSpace(payload.Summary),
	}
	for _, tag := range payload.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			result.Tags = append(result.Tags, tag)
		}
	}

	if err := resultValidator.Struct(result); err != nil {
		return EmotionResult{}, errors.Wrapf(ErrParse, "스키마 검증 실패: %v", err)
	}
	return result, nil
}

// ```json 코드 블록이나 앞뒤 설명이 섞인 응답에서 객체만 꺼낸다
func extractJSONObject(raw string) string {
	text := strings.TrimSpace(raw)
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			text = strings.TrimSpace(rest[:end])
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return ""
	}
	return text[start : end+1]
}
