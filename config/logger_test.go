package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitLogger_WritesJSONFile(t *testing.T) {
	previous := Logger
	t.Cleanup(func() { Logger = previous })

	dir := t.TempDir()
	require.NoError(t, InitLogger(dir))

	Logger.Infow("테스트 로그", "diaryID", "d-1")
	_ = Logger.Sync()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^app_\d{4}-\d{2}-\d{2}\.log$`, entries[0].Name())

	body, err := os.ReadFile(dir + "/" + entries[0].Name())
	require.NoError(t, err)
	assert.Contains(t, string(body), `"diaryID":"d-1"`)
}

func TestLogger_DefaultsToNop(t *testing.T) {
	assert.NotPanics(t, func() {
		zap.NewNop().Sugar().Infow("noop")
	})
}
