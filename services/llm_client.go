package services

import (
	"context"
	"strings"
	"time"

	"github.com/ArpaAP/soulbin/config"
	"github.com/ArpaAP/soulbin/metrics"
	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"golang.org/x/time/rate"
)

// ErrMissingAPIKey 는 설정 오류이며 fallback 으로 가리지 않는다
var ErrMissingAPIKey = errors.New("OpenAI API 키가 설정되지 않았습니다")

// TurnRole 대화 메시지의 역할
type TurnRole string

const (
	TurnSystem TurnRole = "system"
	TurnHuman  TurnRole = "human"
	TurnAI     TurnRole = "ai"
)

type ChatTurn struct {
	Role    TurnRole
	Content string
}

// CompletionRequest 스트리밍 없는 완성 호출 한 건
type CompletionRequest struct {
	// 로그와 지표에 남는 작업 이름
	Operation   string
	Messages    []ChatTurn
	Temperature float64
	MaxTokens   int
	JSONMode    bool
}

// CompletionClient 는 LLM 제공자 호출 경계
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type LLMConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	RequestsPerSecond float64
	Burst             int
}

// LLMClient 는 langchaingo 모델을 CompletionClient 로 감싼다
type LLMClient struct {
	model   llms.Model
	name    string
	limiter *rate.Limiter
	metrics *metrics.Metrics
}

// NewLLMClient 는 OpenAI 호환 엔드포인트용 클라이언트를 만든다
func NewLLMClient(cfg LLMConfig, m *metrics.Metrics) (*LLMClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create OpenAI client")
	}

	return NewLLMClientWithModel(model, cfg, m), nil
}

// NewLLMClientWithModel 이미 만들어진 모델을 쓴다
func NewLLMClientWithModel(model llms.Model, cfg LLMConfig, m *metrics.Metrics) *LLMClient {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &LLMClient{
		model:   model,
		name:    cfg.Model,
		limiter: rate.NewLimiter(limit, burst),
		metrics: m,
	}
}

func (c *LLMClient) Complete(ctx context.Context, req CompletionRequest) (text string, err error) {
	started := time.Now()
	defer func() {
		c.metrics.ObserveLLM(req.Operation, started, err)
	}()

	if err = c.limiter.Wait(ctx); err != nil {
		return "", errors.Wrap(err, "rate limiter")
	}

	options := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.MaxTokens > 0 {
		options = append(options, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.JSONMode {
		options = append(options, llms.WithJSONMode())
	}

	resp, err := c.model.GenerateContent(ctx, toMessageContent(req.Messages), options...)
	if err != nil {
		return "", errors.Wrapf(err, "%s: generate content", req.Operation)
	}
	if len(resp.Choices) == 0 {
		err = errors.Errorf("%s: 유효한 응답이 생성되지 않았습니다", req.Operation)
		return "", err
	}

	config.Logger.Debugw("LLM 응답 수신",
		"operation", req.Operation,
		"model", c.name,
		"latency", time.Since(started).String(),
	)

	return strings.TrimSpace(resp.Choices[0].Content), nil
}

func toMessageContent(turns []ChatTurn) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(turns))
	for _, turn := range turns {
		role := schema.ChatMessageTypeHuman
		switch turn.Role {
		case TurnSystem:
			role = schema.ChatMessageTypeSystem
		case TurnAI:
			role = schema.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, turn.Content))
	}
	return messages
}
