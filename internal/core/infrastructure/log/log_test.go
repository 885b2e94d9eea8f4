package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	logconfig "github.com/weisyn/powminer/internal/config/log"
	configtypes "github.com/weisyn/powminer/pkg/types"
)

func TestNew_WithFilePath_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "powminer.log")
	level := "debug"

	logger, err := New(logconfig.New(&configtypes.UserLogConfig{Level: &level, FilePath: &path}))
	require.NoError(t, err)

	logger.Infof("挖矿启动 height=%d", 7)
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"挖矿启动 height=7"`)
	assert.Contains(t, string(data), `"level":"info"`)
}

func TestWith_AddsStructuredFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewFromZap(zap.New(core))

	NewModuleLogger(logger, "consensus").With("height", 3, "dangling").Info("found")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "consensus", fields["module"])
	assert.EqualValues(t, 3, fields["height"])
	assert.NotContains(t, fields, "dangling")
}

func TestNewModuleLogger_WithNilBase_ReturnsNil(t *testing.T) {
	assert.Nil(t, NewModuleLogger(nil, "consensus"))
}

func TestNew_RotationSettingsFromOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rotate.log")
	logger, err := New(logconfig.FromOptions(&logconfig.LogOptions{
		Level:      "warn",
		FilePath:   path,
		MaxSizeMB:  1,
		MaxBackups: 2,
	}))
	require.NoError(t, err)

	logger.Infof("低于级别的日志")
	logger.Warnf("区块 %d 被拒绝", 12)
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "低于级别的日志")
	assert.Contains(t, string(data), "区块 12 被拒绝")
}
