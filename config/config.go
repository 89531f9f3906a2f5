package config

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Config 는 서버 전체 설정 값을 담는다
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	ServerPort  string `mapstructure:"SERVER_PORT"`
	LogDir      string `mapstructure:"LOG_DIR"`

	// 데이터베이스 설정
	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBPath     string `mapstructure:"DB_PATH"`

	// Redis 설정
	RedisHost     string `mapstructure:"REDIS_HOST"`
	RedisPort     string `mapstructure:"REDIS_PORT"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// OpenAI 호환 API 설정
	OpenAIAPIKey  string  `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL string  `mapstructure:"OPENAI_BASE_URL"`
	OpenAIModel   string  `mapstructure:"OPENAI_MODEL"`
	LLMRateLimit  float64 `mapstructure:"LLM_REQUESTS_PER_SECOND"`
	LLMBurst      int     `mapstructure:"LLM_BURST"`

	// 일기 분석 큐
	AnalysisQueue     string `mapstructure:"ANALYSIS_QUEUE"`
	AnalysisWorkers   int    `mapstructure:"ANALYSIS_WORKERS"`
	AnalysisQueueSize int    `mapstructure:"ANALYSIS_QUEUE_SIZE"`

	// JWT 설정
	JWTSecret string `mapstructure:"JWT_SECRET"`

	InternalAuthToken string `mapstructure:"INTERNAL_AUTH_TOKEN"`

	// 쉼표로 구분. 비어 있으면 모든 Origin 허용
	CORSAllowOrigins string `mapstructure:"CORS_ALLOW_ORIGINS"`
}

var configKeys = []string{
	"ENVIRONMENT", "SERVER_PORT", "LOG_DIR",
	"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_PATH",
	"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB",
	"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL", "LLM_REQUESTS_PER_SECOND", "LLM_BURST",
	"ANALYSIS_QUEUE", "ANALYSIS_WORKERS", "ANALYSIS_QUEUE_SIZE",
	"JWT_SECRET", "INTERNAL_AUTH_TOKEN", "CORS_ALLOW_ORIGINS",
}

// LoadConfig 는 .env 파일과 환경 변수에서 설정을 읽는다
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_DIR", "logs")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_PATH", "soulbin.db")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("LLM_REQUESTS_PER_SECOND", 5.0)
	v.SetDefault("LLM_BURST", 5)
	v.SetDefault("ANALYSIS_QUEUE", "memory")
	v.SetDefault("ANALYSIS_WORKERS", 2)
	v.SetDefault("ANALYSIS_QUEUE_SIZE", 256)

	v.AutomaticEnv()
	// AutomaticEnv 는 Unmarshal 대상 키를 모르므로 직접 바인딩
	for _, key := range configKeys {
		if err = v.BindEnv(key); err != nil {
			return
		}
	}

	err = v.ReadInConfig()
	if err != nil {
		// 설정 파일이 없으면 환경 변수만 사용
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
	}

	err = v.Unmarshal(&config)
	return
}

// IsProduction 운영 환경 여부
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// GetDBConnString 은 DB_DRIVER 에 맞는 DSN 을 만든다
func (c *Config) GetDBConnString() string {
	switch c.DBDriver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
	case "sqlite":
		return c.DBPath
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
	}
}

// GetRedisConnString 은 Redis 주소를 반환한다
func (c *Config) GetRedisConnString() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// RedisEnabled Redis 호스트가 설정되어 있는지
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// AllowedOrigins 는 CORS_ALLOW_ORIGINS 를 목록으로 나눈다
func (c *Config) AllowedOrigins() []string {
	return lo.FilterMap(strings.Split(c.CORSAllowOrigins, ","), func(origin string, _ int) (string, bool) {
		origin = strings.TrimSpace(origin)
		return origin, origin != ""
	})
}
