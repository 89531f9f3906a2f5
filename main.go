package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ArpaAP/soulbin/config"
	"github.com/ArpaAP/soulbin/metrics"
	"github.com/ArpaAP/soulbin/middleware"
	"github.com/ArpaAP/soulbin/queue"
	"github.com/ArpaAP/soulbin/routes"
	"github.com/ArpaAP/soulbin/services"
	"github.com/ArpaAP/soulbin/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const tokenTTL = 30 * 24 * time.Hour

var configPath string

var rootCmd = &cobra.Command{
	Use:          "soulbin",
	Short:        "감정 일기와 AI 상담 API 서버",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "HTTP 서버와 일기 분석 워커를 실행한다",
	RunE: func(cmd *cobra.Command, _ []string) error {
		conf, err := setup()
		if err != nil {
			return err
		}
		return serve(conf)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "데이터베이스 스키마를 마이그레이션한다",
	RunE: func(cmd *cobra.Command, _ []string) error {
		conf, err := setup()
		if err != nil {
			return err
		}
		db, err := config.InitDB(conf)
		if err != nil {
			return errors.Wrap(err, "데이터베이스 초기화 실패")
		}
		if err := config.MigrateDB(db); err != nil {
			return err
		}
		config.Logger.Info("마이그레이션 완료")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", ".env 파일이 있는 디렉터리")
	rootCmd.AddCommand(serveCmd, migrateCmd)
	// 하위 명령 없이 실행하면 serve
	rootCmd.RunE = serveCmd.RunE
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup() (config.Config, error) {
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		return config.Config{}, errors.Wrap(err, "설정 로드 실패")
	}
	if err := config.InitLogger(conf.LogDir); err != nil {
		return config.Config{}, errors.Wrap(err, "로거 초기화 실패")
	}
	return conf, nil
}

func serve(conf config.Config) error {
	defer config.Logger.Sync()

	db, err := config.InitDB(conf)
	if err != nil {
		return errors.Wrap(err, "데이터베이스 초기화 실패")
	}
	if err := config.MigrateDB(db); err != nil {
		return err
	}

	var redisClient *redis.Client
	if conf.RedisEnabled() {
		redisClient, err = config.InitRedis(context.Background(), conf)
		if err != nil {
			return errors.Wrap(err, "Redis 초기화 실패")
		}
		defer redisClient.Close()
	}

	m := metrics.New()

	// API 키가 없으면 폴백으로 가리지 않고 바로 종료한다
	llmClient, err := services.NewLLMClient(services.LLMConfig{
		APIKey:            conf.OpenAIAPIKey,
		BaseURL:           conf.OpenAIBaseURL,
		Model:             conf.OpenAIModel,
		RequestsPerSecond: conf.LLMRateLimit,
		Burst:             conf.LLMBurst,
	}, m)
	if err != nil {
		config.Logger.Errorw("LLM 클라이언트 초기화 실패", "error", err)
		return err
	}

	jwtManager, err := utils.NewJWTManager(conf.JWTSecret, tokenTTL)
	if err != nil {
		return err
	}

	ai := services.NewAIService(llmClient, m)

	analysisQueue, err := newAnalysisQueue(conf, redisClient, m)
	if err != nil {
		return err
	}
	processor := services.NewAnalysisProcessor(db, ai, m)
	analysisQueue.Start(queue.Mux{services.TaskAnalyzeDiary: processor.Handle}.Handle)

	var mindsetCache services.MindsetCache
	if redisClient != nil {
		mindsetCache = services.NewRedisMindsetCache(redisClient)
	}

	if conf.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	middleware.SetupMiddleware(r, conf.AllowedOrigins())
	routes.RegisterRoutes(r, routes.Dependencies{
		DiaryService:      services.NewDiaryService(db, analysisQueue, m),
		ChatService:       services.NewChatService(db, ai),
		ProfileService:    services.NewProfileService(db, ai, mindsetCache),
		JWTManager:        jwtManager,
		Metrics:           m,
		InternalAuthToken: conf.InternalAuthToken,
		EnableTestUser:    !conf.IsProduction(),
	})

	srv := &http.Server{
		Addr:    ":" + conf.ServerPort,
		Handler: r,
	}

	serverErr := make(chan error, 1)
	go func() {
		config.Logger.Infow("서버 시작", "port", conf.ServerPort, "queue", conf.AnalysisQueue)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		config.Logger.Errorw("서버 실행 실패", "error", err)
		_ = analysisQueue.Close()
		return err
	}
	config.Logger.Info("서버 종료 중...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		config.Logger.Errorw("서버 종료 실패", "error", err)
	}

	config.Logger.Info("백그라운드 분석 작업 대기 중...")
	if err := analysisQueue.Close(); err != nil {
		config.Logger.Errorw("큐 종료 실패", "error", err)
	}
	config.Logger.Info("서버가 종료되었습니다")
	return nil
}

func newAnalysisQueue(conf config.Config, redisClient *redis.Client, m *metrics.Metrics) (queue.Queue, error) {
	switch conf.AnalysisQueue {
	case "", "memory":
		return queue.NewMemoryQueue(conf.AnalysisQueueSize, conf.AnalysisWorkers, m), nil
	case "redis":
		if redisClient == nil {
			return nil, errors.New("ANALYSIS_QUEUE=redis 에는 REDIS_HOST 가 필요합니다")
		}
		return queue.NewRedisQueue(redisClient, queue.RedisQueueOptions{
			Key:     "soulbin:queue:analysis",
			MaxLen:  int64(conf.AnalysisQueueSize),
			Workers: conf.AnalysisWorkers,
		}, m), nil
	default:
		return nil, errors.Errorf("지원하지 않는 ANALYSIS_QUEUE: %s", conf.AnalysisQueue)
	}
}

