package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/ArpaAP/soulbin/config"
	"github.com/ArpaAP/soulbin/metrics"
	"github.com/ArpaAP/soulbin/models"
	"github.com/ArpaAP/soulbin/utils"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var errProvider = errors.New("provider unavailable")

// fakeCompletion 은 작업 이름별로 응답을 돌려주는 CompletionClient
type fakeCompletion struct {
	mu        sync.Mutex
	responses map[string]func(req CompletionRequest) (string, error)
	calls     []CompletionRequest
}

func newFakeCompletion() *fakeCompletion {
	return &fakeCompletion{responses: map[string]func(CompletionRequest) (string, error){}}
}

func (f *fakeCompletion) on(op, reply string) *fakeCompletion {
	f.responses[op] = func(CompletionRequest) (string, error) { return reply, nil }
	return f
}

func (f *fakeCompletion) onFunc(op string, fn func(req CompletionRequest) (string, error)) *fakeCompletion {
	f.responses[op] = fn
	return f
}

func (f *fakeCompletion) Complete(_ context.Context, req CompletionRequest) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	fn, ok := f.responses[req.Operation]
	f.mu.Unlock()

	if !ok {
		return "", errProvider
	}
	return fn(req)
}

func (f *fakeCompletion) callsFor(op string) []CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []CompletionRequest
	for _, c := range f.calls {
		if c.Operation == op {
			out = append(out, c)
		}
	}
	return out
}

// failingCompletion 모든 호출이 실패한다
type failingCompletion struct{}

func (failingCompletion) Complete(context.Context, CompletionRequest) (string, error) {
	return "", errProvider
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(uuid.NewString(), "-", ""))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.MigrateDB(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, style models.AIStyle) models.User {
	t.Helper()

	user := models.User{
		ID:      uuid.NewString(),
		Name:    "테스트",
		Email:   "test@example.com",
		AIStyle: style,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createDiary(t *testing.T, db *gorm.DB, userID, content string) models.Diary {
	t.Helper()

	diary := models.Diary{
		ID:             utils.GenerateID(),
		UserID:         userID,
		Content:        content,
		AnalysisStatus: models.AnalysisPending,
	}
	require.NoError(t, db.Create(&diary).Error)
	return diary
}

func analysisCount(t *testing.T, db *gorm.DB, diaryID string) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(&models.DiaryAnalysis{}).Where("diary_id = ?", diaryID).Count(&n).Error)
	return n
}

func reloadDiary(t *testing.T, db *gorm.DB, diaryID string) models.Diary {
	t.Helper()

	var diary models.Diary
	require.NoError(t, db.Preload("Analysis").Where("id = ?", diaryID).First(&diary).Error)
	return diary
}

// counterValue 는 레지스트리에서 라벨이 모두 일치하는 카운터 값을 찾는다
func counterValue(t *testing.T, m *metrics.Metrics, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			matched := 0
			for _, pair := range metric.GetLabel() {
				if labels[pair.GetName()] == pair.GetValue() {
					matched++
				}
			}
			if matched == len(labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}
