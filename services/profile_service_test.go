package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/ArpaAP/soulbin/models"
	"github.com/ArpaAP/soulbin/utils"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string]string
	ttl  time.Duration
}

func (c *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttl = ttl
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func addAnalysis(t *testing.T, db *gorm.DB, diary models.Diary, emotion string, intensity int) {
	t.Helper()

	require.NoError(t, db.Create(&models.DiaryAnalysis{
		ID:        utils.GenerateID(),
		DiaryID:   diary.ID,
		Emotion:   emotion,
		Intensity: intensity,
		Tags:      datatypes.JSONSlice[string]{"태그"},
		Summary:   "요약",
		Advice:    "조언",
	}).Error)
	require.NoError(t, db.Model(&models.Diary{}).Where("id = ?", diary.ID).Update("analysis_status", models.AnalysisCompleted).Error)
}

func TestProfileService_StatsEmpty(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, models.AIStyleAuto)

	stats, err := NewProfileService(db, NewAIService(failingCompletion{}, nil), nil).Stats(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProfileStats{MostCommonEmotion: "-"}, stats)
}

func TestProfileService_Stats(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, models.AIStyleAuto)
	other := createUser(t, db, models.AIStyleAuto)

	addAnalysis(t, db, createDiary(t, db, user.ID, "a"), "불안", 7)
	addAnalysis(t, db, createDiary(t, db, user.ID, "b"), "기쁨", 8)
	addAnalysis(t, db, createDiary(t, db, user.ID, "c"), "불안", 6)
	createDiary(t, db, user.ID, "pending")
	addAnalysis(t, db, createDiary(t, db, other.ID, "x"), "분노", 10)

	stats, err := NewProfileService(db, NewAIService(failingCompletion{}, nil), nil).Stats(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalRecords)
	assert.Equal(t, "불안", stats.MostCommonEmotion)
	assert.Equal(t, 2, stats.EmotionTypes)
	assert.Equal(t, 7.0, stats.AverageIntensity)
}

func TestProfileService_DailyMindsetCachedPerDay(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, models.AIStyleAuto)

	fake := newFakeCompletion().on(opMindset, "오늘은 천천히 걸어보세요.")
	cache := &mapCache{data: map[string]string{}}
	svc := NewProfileService(db, NewAIService(fake, nil), cache)
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }

	first, err := svc.DailyMindset(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", first.Date)
	assert.False(t, first.Cached)

	second, err := svc.DailyMindset(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Mindset, second.Mindset)
	assert.Len(t, fake.callsFor(opMindset), 1)
	assert.Equal(t, mindsetCacheTTL, cache.ttl)

	svc.now = func() time.Time { return time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC) }
	_, err = svc.DailyMindset(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, fake.callsFor(opMindset), 2)
}

func TestProfileService_DailyMindsetFallbackNotCached(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, models.AIStyleAuto)

	cache := &mapCache{data: map[string]string{}}
	svc := NewProfileService(db, NewAIService(failingCompletion{}, nil), cache)

	resp, err := svc.DailyMindset(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, fallbackDailyMindset, resp.Mindset)
	assert.Empty(t, cache.data)

	// 캐시 없이도 동작한다
	resp, err = NewProfileService(db, NewAIService(failingCompletion{}, nil), nil).DailyMindset(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, fallbackDailyMindset, resp.Mindset)
}

func TestProfileService_RegisterAndUpdate(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, models.AIStyleAuto)
	svc := NewProfileService(db, NewAIService(failingCompletion{}, nil), nil)

	_, err := svc.Register(context.Background(), user.ID, &models.RegisterRequest{
		Nickname: "민", PhoneNumber: "010", BirthDate: "2005/13/40", Job: "학생", AIStyle: "warm",
	})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	registered, err := svc.Register(context.Background(), user.ID, &models.RegisterRequest{
		Nickname: " 민 ", PhoneNumber: "010-1234-5678", BirthDate: "2005. 06. 01", Job: "학생", AIStyle: "warm",
	})
	require.NoError(t, err)
	assert.True(t, registered.IsRegistered)
	assert.Equal(t, models.AIStyleWarm, registered.AIStyle)
	require.NotNil(t, registered.Nickname)
	assert.Equal(t, "민", *registered.Nickname)
	require.NotNil(t, registered.BirthDate)
	assert.Equal(t, "2005-06-01", registered.BirthDate.Format("2006-01-02"))

	style := "COLD"
	job := "개발자"
	updated, err := svc.Update(context.Background(), user.ID, &models.UpdateProfileRequest{AIStyle: &style, Job: &job})
	require.NoError(t, err)
	assert.Equal(t, models.AIStyleCold, updated.AIStyle)
	assert.Equal(t, "개발자", *updated.Job)
	assert.Equal(t, "민", *updated.Nickname)

	bad := "sarcastic"
	_, err = svc.Update(context.Background(), user.ID, &models.UpdateProfileRequest{AIStyle: &bad})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = svc.Update(context.Background(), "nobody", &models.UpdateProfileRequest{Job: &job})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestProfileService_DeleteData(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, models.AIStyleWarm)
	other := createUser(t, db, models.AIStyleAuto)
	svc := NewProfileService(db, NewAIService(failingCompletion{}, nil), nil)

	nickname := "민"
	_, err := svc.Update(context.Background(), user.ID, &models.UpdateProfileRequest{Nickname: &nickname})
	require.NoError(t, err)

	mine := createDiary(t, db, user.ID, "a")
	addAnalysis(t, db, mine, "기쁨", 8)
	theirs := createDiary(t, db, other.ID, "b")
	addAnalysis(t, db, theirs, "슬픔", 3)

	reset, err := svc.DeleteData(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Nil(t, reset.Nickname)
	assert.Equal(t, models.AIStyleAuto, reset.AIStyle)

	var diaries int64
	require.NoError(t, db.Model(&models.Diary{}).Where("user_id = ?", user.ID).Count(&diaries).Error)
	assert.Zero(t, diaries)
	assert.Zero(t, analysisCount(t, db, mine.ID))
	assert.Equal(t, int64(1), analysisCount(t, db, theirs.ID))
}

func TestProfileService_Export(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, models.AIStyleAuto)
	addAnalysis(t, db, createDiary(t, db, user.ID, "일기"), "기쁨", 8)
	createDiary(t, db, user.ID, "분석 대기")

	chats := NewChatService(db, NewAIService(newFakeCompletion().on(opChat, "답변"), nil))
	chat, err := chats.Create(context.Background(), user.ID)
	require.NoError(t, err)
	_, err = chats.SendMessage(context.Background(), user.ID, chat.ID, "질문")
	require.NoError(t, err)

	export, err := NewProfileService(db, NewAIService(failingCompletion{}, nil), nil).Export(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Equal(t, exportVersion, export.Version)
	assert.Equal(t, user.ID, export.Profile.ID)
	require.Len(t, export.Diaries, 2)
	require.NotNil(t, export.Diaries[0].Analysis)
	assert.Equal(t, "기쁨", export.Diaries[0].Analysis.Emotion)
	assert.Nil(t, export.Diaries[1].Analysis)
	require.Len(t, export.Chats, 1)
	require.Len(t, export.Chats[0].Messages, 2)
	assert.Equal(t, "질문", export.Chats[0].Messages[0].Content)

	_, err = NewProfileService(db, NewAIService(failingCompletion{}, nil), nil).Export(context.Background(), "nobody")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestProfileService_CreateTestUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewProfileService(db, NewAIService(failingCompletion{}, nil), nil)

	user, err := svc.CreateTestUser(context.Background(), "민지", "minji@example.com")
	require.NoError(t, err)
	assert.True(t, user.IsTestUser)
	assert.False(t, user.IsRegistered)

	got, err := svc.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "민지", got.Name)
	assert.Equal(t, models.AIStyleAuto, got.AIStyle)
}

func TestProfileService_UpdateBlankFieldsBecomeNull(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, models.AIStyleAuto)
	svc := NewProfileService(db, NewAIService(failingCompletion{}, nil), nil)

	nickname, phone, job := "민", "010", "학생"
	_, err := svc.Update(context.Background(), user.ID, &models.UpdateProfileRequest{
		Nickname: &nickname, PhoneNumber: &phone, Job: &job,
	})
	require.NoError(t, err)

	blank := "   "
	updated, err := svc.Update(context.Background(), user.ID, &models.UpdateProfileRequest{
		Nickname: &blank, PhoneNumber: &blank, Job: &blank,
	})
	require.NoError(t, err)
	assert.Nil(t, updated.Nickname)
	assert.Nil(t, updated.PhoneNumber)
	assert.Nil(t, updated.Job)
}

func TestProfileService_DeleteDataClearsTodaysMindset(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, models.AIStyleAuto)

	fake := newFakeCompletion().on(opMindset, "오늘은 천천히 걸어보세요.")
	cache := &mapCache{data: map[string]string{}}
	svc := NewProfileService(db, NewAIService(fake, nil), cache)
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }

	_, err := svc.DailyMindset(context.Background(), user.ID)
	require.NoError(t, err)
	require.Contains(t, cache.data, mindsetKey(user.ID, "2026-03-02"))

	_, err = svc.DeleteData(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotContains(t, cache.data, mindsetKey(user.ID, "2026-03-02"))

	again, err := svc.DailyMindset(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, again.Cached)
	assert.Len(t, fake.callsFor(opMindset), 2)
}

func TestProfileService_ExportWithoutChats(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, models.AIStyleAuto)

	export, err := NewProfileService(db, NewAIService(failingCompletion{}, nil), nil).Export(context.Background(), user.ID)
	require.NoError(t, err)

	raw, err := json.Marshal(export)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"chats":[]`)
	assert.Contains(t, string(raw), `"diaries":[]`)
}

// 내보낸 문서를 JSON 으로 한 번 거친 뒤 돌려준다
func exportDocument(t *testing.T, svc *ProfileService, userID string) models.UserExport {
	t.Helper()

	export, err := svc.Export(context.Background(), userID)
	require.NoError(t, err)
	raw, err := json.Marshal(export)
	require.NoError(t, err)

	var doc models.UserExport
	require.NoError(t, json.Unmarshal(raw, &doc))
	return doc
}

func TestProfileService_RestoreRoundTrip(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, models.AIStyleAuto)
	svc := NewProfileService(db, NewAIService(failingCompletion{}, nil), nil)

	_, err := svc.Register(context.Background(), user.ID, &models.RegisterRequest{
		Nickname: "민", PhoneNumber: "010-1234-5678", BirthDate: "2005-06-01", Job: "학생", AIStyle: "warm",
	})
	require.NoError(t, err)
	addAnalysis(t, db, createDiary(t, db, user.ID, "좋은 하루"), "기쁨", 8)
	createDiary(t, db, user.ID, "분석 대기")

	before := exportDocument(t, svc, user.ID)
	require.Len(t, before.Diaries, 2)

	_, err = svc.DeleteData(context.Background(), user.ID)
	require.NoError(t, err)

	result, err := svc.Restore(context.Background(), user.ID, before)
	require.NoError(t, err)
	assert.Equal(t, models.RestoreResult{ImportedDiaries: 2}, result)

	after := exportDocument(t, svc, user.ID)
	assert.Equal(t, "민", *after.Profile.Nickname)
	assert.Equal(t, models.AIStyleWarm, after.Profile.AIStyle)
	assert.Equal(t, "2005-06-01", after.Profile.BirthDate.Format("2006-01-02"))
	require.Len(t, after.Diaries, 2)

	for i := range before.Diaries {
		assert.Equal(t, before.Diaries[i].Content, after.Diaries[i].Content)
		assert.True(t, before.Diaries[i].CreatedAt.Equal(after.Diaries[i].CreatedAt))
	}
	require.NotNil(t, after.Diaries[0].Analysis)
	assert.Equal(t, before.Diaries[0].Analysis.Emotion, after.Diaries[0].Analysis.Emotion)
	assert.Equal(t, before.Diaries[0].Analysis.Tags, after.Diaries[0].Analysis.Tags)
	assert.Equal(t, models.AnalysisCompleted, after.Diaries[0].AnalysisStatus)
	// 분석이 없던 일기는 다시 예약되지 않는다
	assert.Nil(t, after.Diaries[1].Analysis)
	assert.Equal(t, models.AnalysisFailed, after.Diaries[1].AnalysisStatus)
}

func TestProfileService_RestoreTwiceSkipsExisting(t *testing.T) {
	db := newTestDB(t)
	source := createUser(t, db, models.AIStyleAuto)
	target := createUser(t, db, models.AIStyleAuto)
	svc := NewProfileService(db, NewAIService(failingCompletion{}, nil), nil)

	addAnalysis(t, db, createDiary(t, db, source.ID, "일기"), "기쁨", 8)
	chats := NewChatService(db, NewAIService(newFakeCompletion().on(opChat, "답변"), nil))
	chat, err := chats.Create(context.Background(), source.ID)
	require.NoError(t, err)
	_, err = chats.SendMessage(context.Background(), source.ID, chat.ID, "질문")
	require.NoError(t, err)

	doc := exportDocument(t, svc, source.ID)

	first, err := svc.Restore(context.Background(), target.ID, doc)
	require.NoError(t, err)
	assert.Equal(t, models.RestoreResult{ImportedDiaries: 1, ImportedChats: 1}, first)

	second, err := svc.Restore(context.Background(), target.ID, doc)
	require.NoError(t, err)
	assert.Equal(t, models.RestoreResult{SkippedDiaries: 1, SkippedChats: 1}, second)

	var diaries, chatCount, messages int64
	require.NoError(t, db.Model(&models.Diary{}).Where("user_id = ?", target.ID).Count(&diaries).Error)
	require.NoError(t, db.Model(&models.Chat{}).Where("user_id = ?", target.ID).Count(&chatCount).Error)
	require.NoError(t, db.Model(&models.Message{}).
		Joins("JOIN chats ON chats.id = messages.chat_id").
		Where("chats.user_id = ?", target.ID).
		Count(&messages).Error)
	assert.Equal(t, int64(1), diaries)
	assert.Equal(t, int64(1), chatCount)
	assert.Equal(t, int64(2), messages)

	// 원본 사용자의 데이터는 그대로다
	require.NoError(t, db.Model(&models.Diary{}).Where("user_id = ?", source.ID).Count(&diaries).Error)
	assert.Equal(t, int64(1), diaries)
}

func TestProfileService_RestoreRejects(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, models.AIStyleAuto)
	svc := NewProfileService(db, NewAIService(failingCompletion{}, nil), nil)

	_, err := svc.Restore(context.Background(), user.ID, models.UserExport{Version: exportVersion + 1})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = svc.Restore(context.Background(), "nobody", models.UserExport{Version: exportVersion})
	assert.True(t, errors.Is(err, ErrNotFound))

	// 잘못된 메시지가 있으면 아무것도 들여오지 않는다
	_, err = svc.Restore(context.Background(), user.ID, models.UserExport{
		Version: exportVersion,
		Diaries: []models.DiaryResponse{{Content: "일기", CreatedAt: time.Now().UTC()}},
		Chats: []models.ChatResponse{{
			CreatedAt: time.Now().UTC(),
			Messages:  []models.MessageResponse{{Role: "ROBOT", Content: "?"}},
		}},
	})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	var diaries int64
	require.NoError(t, db.Model(&models.Diary{}).Where("user_id = ?", user.ID).Count(&diaries).Error)
	assert.Zero(t, diaries)
}
