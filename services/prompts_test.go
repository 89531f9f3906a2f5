package services

import (
	"testing"

	"github.com/ArpaAP/soulbin/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonaPrompts_Distinct(t *testing.T) {
	auto := PersonaPrompt(models.AIStyleAuto)
	cold := PersonaPrompt(models.AIStyleCold)
	warm := PersonaPrompt(models.AIStyleWarm)

	assert.NotEqual(t, auto, cold)
	assert.NotEqual(t, auto, warm)
	assert.NotEqual(t, cold, warm)

	assert.Contains(t, auto, "2-4문장")
	assert.Contains(t, cold, "2-4문장")
	assert.Contains(t, warm, "3-5문장")
}

func TestPersonaPrompt_UnknownFallsBackToAuto(t *testing.T) {
	assert.Equal(t, PersonaPrompt(models.AIStyleAuto), PersonaPrompt(""))
	assert.Equal(t, PersonaPrompt(models.AIStyleAuto), PersonaPrompt("SARCASTIC"))
}

func TestEmotionAnalysisPrompt(t *testing.T) {
	prompt, err := emotionAnalysisPrompt.Format(map[string]any{"text": "오늘 기분이 좋다"})
	require.NoError(t, err)

	assert.Contains(t, prompt, "사용자 텍스트: 오늘 기분이 좋다")
	assert.Contains(t, prompt, `"intensity"`)
	assert.NotContains(t, prompt, "{{")
}

func TestAdviceUserPrompt(t *testing.T) {
	prompt, err := adviceUserPrompt.Format(map[string]any{
		"emotion":   "불안",
		"intensity": 7,
		"tags":      "시험, 걱정",
		"content":   "내일 시험이다",
	})
	require.NoError(t, err)

	assert.Contains(t, prompt, "주요 감정: 불안")
	assert.Contains(t, prompt, "감정 강도: 7/10")
	assert.Contains(t, prompt, "관련 태그: 시험, 걱정")
	assert.Contains(t, prompt, "상황: 내일 시험이다")
}
