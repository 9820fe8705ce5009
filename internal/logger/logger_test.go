package logger

import (
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitialize_ReplacesGlobal(t *testing.T) {
	prev := zap.L()
	defer zap.ReplaceGlobals(prev)

	l, err := Initialize(Config{Mode: "development"})
	require.NoError(t, err)

	assert.Same(t, l, zap.L())
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestInitialize_ProductionSkipsDebug(t *testing.T) {
	prev := zap.L()
	defer zap.ReplaceGlobals(prev)

	l, err := Initialize(Config{Mode: "production"})
	require.NoError(t, err)

	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
}

func TestInitialize_WithSentryClient(t *testing.T) {
	prev := zap.L()
	defer zap.ReplaceGlobals(prev)
	defer func() { sentryClient = nil }()

	var mu sync.Mutex
	var events []*sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn: "https://public@sentry.example.com/1",
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, event)
			return nil
		},
	})
	require.NoError(t, err)

	l, err := Initialize(Config{Mode: "production", SentryClient: client, Tags: map[string]string{"indexer": "test"}})
	require.NoError(t, err)

	l.Error("commit failed")
	Flush(time.Second)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, "commit failed", events[0].Message)
	assert.Equal(t, "test", events[0].Tags["indexer"])
}

func TestInitialize_InvalidDSN(t *testing.T) {
	prev := zap.L()
	defer zap.ReplaceGlobals(prev)

	_, err := Initialize(Config{SentryDSN: "::not a dsn"})
	assert.Error(t, err)
}
