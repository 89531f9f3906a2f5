package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ArpaAP/soulbin/config"
	"github.com/ArpaAP/soulbin/metrics"
	"github.com/ArpaAP/soulbin/models"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// 메트릭/로그용 작업 이름
const (
	opAnalyze = "analyze_emotion"
	opAdvice  = "generate_advice"
	opChat    = "chat_reply"
	opMindset = "daily_mindset"
	opTitle   = "chat_title"
)

// AIService 는 프롬프트 구성, 모델 호출, 결과 파싱을 묶는다.
// 각 작업은 실패하면 고정 폴백 값을 돌려주고 에러를 밖으로 내보내지 않는다.
type AIService struct {
	client  CompletionClient
	metrics *metrics.Metrics
}

func NewAIService(client CompletionClient, m *metrics.Metrics) *AIService {
	return &AIService{
		client:  client,
		metrics: m,
	}
}

// EmotionReport 감정 분석 + 조언 결과
type EmotionReport struct {
	EmotionResult
	Advice string `json:"advice"`

	// 폴백 사용 여부. 백그라운드 분석이 저장 여부를 판단할 때 쓴다
	AnalysisFallback bool `json:"-"`
	AdviceFallback   bool `json:"-"`
}

// AnalyzeEmotion 감정 분석. 실패 시 FallbackEmotionResult
func (s *AIService) AnalyzeEmotion(ctx context.Context, text string) EmotionResult {
	result, err := s.analyzeEmotion(ctx, text)
	if err != nil {
		config.Logger.Errorw("감정 분석 실패", "error", err)
		s.metrics.IncFallback(opAnalyze)
		return FallbackEmotionResult()
	}
	return result
}

func (s *AIService) analyzeEmotion(ctx context.Context, text string) (EmotionResult, error) {
	prompt, err := emotionAnalysisPrompt.Format(map[string]any{"text": text})
	if err != nil {
		return EmotionResult{}, errors.Wrap(err, "format analysis prompt")
	}

	raw, err := s.client.Complete(ctx, CompletionRequest{
		Operation:   opAnalyze,
		Messages:    []ChatTurn{{Role: TurnHuman, Content: prompt}},
		Temperature: analysisTemperature,
		JSONMode:    true,
	})
	if err != nil {
		return EmotionResult{}, err
	}

	return ParseEmotionResult(raw)
}

// GenerateAdvice 페르소나별 조언 생성. 실패 시 고정 문장
func (s *AIService) GenerateAdvice(ctx context.Context, result EmotionResult, content string, style models.AIStyle) string {
	advice, err := s.generateAdvice(ctx, result, content, style)
	if err != nil {
		config.Logger.Errorw("조언 생성 실패", "error", err, "style", style)
		s.metrics.IncFallback(opAdvice)
		return fallbackAdvice
	}
	return advice
}

func (s *AIService) generateAdvice(ctx context.Context, result EmotionResult, content string, style models.AIStyle) (string, error) {
	userPrompt, err := adviceUserPrompt.Format(map[string]any{
		"emotion":   result.Emotion,
		"intensity": result.Intensity,
		"tags":      strings.Join(result.Tags, ", "),
		"content":   content,
	})
	if err != nil {
		return "", errors.Wrap(err, "format advice prompt")
	}

	advice, err := s.client.Complete(ctx, CompletionRequest{
		Operation: opAdvice,
		Messages: []ChatTurn{
			{Role: TurnSystem, Content: PersonaPrompt(style.OrDefault())},
			{Role: TurnHuman, Content: userPrompt},
		},
		Temperature: adviceTemperature,
	})
	if err != nil {
		return "", err
	}
	if advice == "" {
		return "", errors.New("빈 조언 응답")
	}
	return advice, nil
}

// ProcessEmotion 분석 후 조언. 분석이 폴백이어도 조언 단계는 그대로 진행한다
func (s *AIService) ProcessEmotion(ctx context.Context, text string, style models.AIStyle) EmotionReport {
	report := EmotionReport{}

	result, err := s.analyzeEmotion(ctx, text)
	if err != nil {
		config.Logger.Errorw("감정 분석 실패", "error", err)
		s.metrics.IncFallback(opAnalyze)
		result = FallbackEmotionResult()
		report.AnalysisFallback = true
	}
	report.EmotionResult = result

	advice, err := s.generateAdvice(ctx, result, text, style)
	if err != nil {
		config.Logger.Errorw("조언 생성 실패", "error", err, "style", style)
		s.metrics.IncFallback(opAdvice)
		advice = fallbackAdvice
		report.AdviceFallback = true
	}
	report.Advice = advice

	return report
}

// GenerateChatReply 는 시간순(오래된 것 → 최신) 메시지를 받아 상담 응답을 만든다.
// 최근 chatHistoryLimit 개만 사용한다.
func (s *AIService) GenerateChatReply(ctx context.Context, history []models.Message) string {
	if len(history) > chatHistoryLimit {
		history = history[len(history)-chatHistoryLimit:]
	}

	turns := append([]ChatTurn{{Role: TurnSystem, Content: counselorPrompt}}, HistoryTurns(history)...)

	reply, err := s.client.Complete(ctx, CompletionRequest{
		Operation:   opChat,
		Messages:    turns,
		Temperature: chatTemperature,
	})
	if err == nil && reply == "" {
		err = errors.New("빈 응답")
	}
	if err != nil {
		config.Logger.Errorw("채팅 응답 생성 실패", "error", err)
		s.metrics.IncFallback(opChat)
		return fallbackChatReply
	}
	return reply
}

// HistoryTurns 저장된 메시지를 대화 역할로 바꾼다.
// USER, SYSTEM 메시지는 human, ASSISTANT 메시지는 ai
func HistoryTurns(history []models.Message) []ChatTurn {
	return lo.Map(history, func(msg models.Message, _ int) ChatTurn {
		if msg.Role == models.RoleAssistant {
			return ChatTurn{Role: TurnAI, Content: msg.Content}
		}
		return ChatTurn{Role: TurnHuman, Content: msg.Content}
	})
}

// GenerateDailyMindset 최근 감정 통계 기반 오늘의 마음가짐
func (s *AIService) GenerateDailyMindset(ctx context.Context, stats models.ProfileStats) string {
	mostCommon := stats.MostCommonEmotion
	if mostCommon == "" || mostCommon == noEmotion {
		mostCommon = "없음"
	}

	prompt, err := dailyMindsetPrompt.Format(map[string]any{
		"total":            stats.TotalRecords,
		"mostCommon":       mostCommon,
		"averageIntensity": fmt.Sprintf("%.1f", stats.AverageIntensity),
	})
	if err == nil {
		var mindset string
		mindset, err = s.client.Complete(ctx, CompletionRequest{
			Operation:   opMindset,
			Messages:    []ChatTurn{{Role: TurnHuman, Content: prompt}},
			Temperature: mindsetTemperature,
		})
		if err == nil && mindset != "" {
			return mindset
		}
	}

	config.Logger.Errorw("오늘의 마음가짐 생성 실패", "error", err)
	s.metrics.IncFallback(opMindset)
	return fallbackDailyMindset
}

// GenerateChatTitle 첫 사용자 메시지로 세션 제목을 만든다
func (s *AIService) GenerateChatTitle(ctx context.Context, firstMessage string) (string, error) {
	prompt, err := chatTitlePrompt.Format(map[string]any{"message": firstMessage})
	if err != nil {
		return "", errors.Wrap(err, "format title prompt")
	}

	raw, err := s.client.Complete(ctx, CompletionRequest{
		Operation:   opTitle,
		Messages:    []ChatTurn{{Role: TurnHuman, Content: prompt}},
		Temperature: titleTemperature,
		MaxTokens:   titleMaxTokens,
	})
	if err != nil {
		return "", err
	}

	title := cleanTitle(raw)
	if title == "" {
		return "", errors.New("빈 제목")
	}
	return title, nil
}

func cleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if idx := strings.IndexByte(title, '\n'); idx >= 0 {
		title = title[:idx]
	}
	const cutset = " \t\"'“”‘’`."
	title = strings.Trim(title, cutset)
	title = strings.TrimPrefix(title, "제목:")
	title = strings.Trim(title, cutset)

	// 멀티바이트 안전하게 자른다
	runes := []rune(title)
	if len(runes) > titleMaxRunes {
		title = string(runes[:titleMaxRunes])
	}
	return strings.TrimSpace(title)
}
