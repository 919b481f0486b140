package logging

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"k8s.io/utils/ptr"
)

type recordingSession struct {
	mu   sync.Mutex
	logs []*mcp.LoggingMessageParams
	err  error
}

func (r *recordingSession) Log(_ context.Context, params *mcp.LoggingMessageParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, params)
	return r.err
}

func TestMcpCoreWrite(t *testing.T) {
	ss := &recordingSession{}
	core, err := newMcpCore(context.Background(), ss)
	require.NoError(t, err)

	logger := zap.New(core).Named("browser").With(zap.String("tool", "browser_navigate"))
	logger.Warn("slow page", zap.Int("ms", 1200), zap.Strings("urls", []string{"a", "b"}))

	require.Len(t, ss.logs, 1)
	got := ss.logs[0]
	assert.Equal(t, mcp.LoggingLevel("warning"), got.Level)
	assert.Equal(t, "browser", got.Logger)

	data, ok := got.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "slow page", data["msg"])
	assert.Equal(t, "browser_navigate", data["tool"])
	assert.Equal(t, int64(1200), data["ms"])
	assert.Equal(t, []interface{}{"a", "b"}, data["urls"])
	assert.Contains(t, data, "ts")
}

func TestMcpCoreWithDoesNotLeak(t *testing.T) {
	ss := &recordingSession{}
	core, err := newMcpCore(context.Background(), ss)
	require.NoError(t, err)

	parent := zap.New(core)
	child := parent.With(zap.String("tab", "1"))

	child.Info("child")
	parent.Info("parent")

	require.Len(t, ss.logs, 2)
	assert.Contains(t, ss.logs[0].Data, "tab")
	assert.NotContains(t, ss.logs[1].Data, "tab")
}

func TestNewMcpCoreRejectsNilSession(t *testing.T) {
	_, err := NewMcpCore(context.Background(), nil)
	assert.Error(t, err)
}

func TestMCPLevel(t *testing.T) {
	tt := map[zapcore.Level]mcp.LoggingLevel{
		zapcore.DebugLevel:  "debug",
		zapcore.InfoLevel:   "info",
		zapcore.WarnLevel:   "warning",
		zapcore.ErrorLevel:  "error",
		zapcore.DPanicLevel: "critical",
		zapcore.PanicLevel:  "alert",
		zapcore.FatalLevel:  "emergency",
	}
	for zl, want := range tt {
		assert.Equal(t, want, MCPLevel(zl), zl.String())
	}
}

func TestTeeLoggerWritesBoth(t *testing.T) {
	obsCore, observed := observer.New(zapcore.DebugLevel)
	ss := &recordingSession{err: errors.New("client went away")}
	core, err := newMcpCore(context.Background(), ss)
	require.NoError(t, err)

	logger := teeLogger(zap.New(obsCore), core)
	logger.Info("hello")

	assert.Equal(t, 1, observed.Len())
	assert.Len(t, ss.logs, 1)
}

func TestContextLoggers(t *testing.T) {
	ctx := context.Background()
	assert.NotNil(t, FromContext(ctx))
	assert.NotNil(t, BaseFromContext(ctx))

	obsCore, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(obsCore)

	ctx = WithBaseLogger(ctx, logger)
	BaseFromContext(ctx).Info("base")
	FromContext(ctx).Info("dropped")

	ctx = WithRequestLogger(ctx, logger)
	FromContext(ctx).Info("request")

	assert.Equal(t, 2, observed.Len())
}

func TestLoggingConfig(t *testing.T) {
	var nilConfig *LoggingConfig
	assert.True(t, nilConfig.MCPLogsEnabled())
	assert.False(t, (&LoggingConfig{EnableMcpLogs: ptr.To(false)}).MCPLogsEnabled())

	logger, err := (&LoggingConfig{Level: "debug", Encoding: "console"}).BuildBase()
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = (&LoggingConfig{Level: "chatty"}).BuildBase()
	assert.ErrorContains(t, err, "invalid log level")
}
