package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := logWriter
	logWriter = &buf
	t.Cleanup(func() {
		logWriter = prev
		JSONLog(false)
	})
	return &buf
}

func TestLogLevel(t *testing.T) {
	buf := captureLogs(t)

	hooked := 0
	logger := NewWithLevel("feedsim", zap.NewAtomicLevelAt(zapcore.DebugLevel), func(zapcore.Entry) error {
		hooked++
		return nil
	})

	logger.Debug("test001")
	require.Contains(t, buf.String(), "test001")
	require.Contains(t, buf.String(), "feedsim")
	require.Equal(t, 1, hooked)
	buf.Reset()

	child := WithLevel(logger, "consumer", zap.NewAtomicLevelAt(zapcore.InfoLevel))
	child.Debug("test002")
	require.Empty(t, buf.String())

	child.Info("test003")
	require.Contains(t, buf.String(), "feedsim.consumer")
	require.Contains(t, buf.String(), "test003")
	buf.Reset()

	// fields attached after the level is set keep the level.
	child.With(zap.Int("n", 1)).Debug("test004")
	require.Empty(t, buf.String())
	child.With(zap.Int("n", 1)).Warn("test005")
	require.Contains(t, buf.String(), "test005")
}

func TestDynamicLevel(t *testing.T) {
	buf := captureLogs(t)

	lvl := zap.NewAtomicLevelAt(zapcore.WarnLevel)
	logger := WithLevel(NewWithLevel("", zap.NewAtomicLevelAt(zapcore.DebugLevel)), "recovery", lvl)
	logger.Info("hidden")
	require.Empty(t, buf.String())

	lvl.SetLevel(zapcore.InfoLevel)
	logger.Info("visible")
	require.Contains(t, buf.String(), "visible")
}

func TestChildCannotLowerParentLevel(t *testing.T) {
	buf := captureLogs(t)

	parent := NewWithLevel("", zap.NewAtomicLevelAt(zapcore.InfoLevel))
	child := WithLevel(parent, "publisher", zap.NewAtomicLevelAt(zapcore.DebugLevel))
	child.Debug("hidden")
	require.Empty(t, buf.String())
}

func TestJSONLog(t *testing.T) {
	buf := captureLogs(t)

	JSONLog(true)
	logger := NewWithLevel("feedsim", zap.NewAtomicLevelAt(zapcore.InfoLevel))
	logger.Info("sent", zap.Uint32("seq", 7))

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	require.Equal(t, "sent", entry["msg"])
	require.Equal(t, "feedsim", entry["logger"])
	require.EqualValues(t, 7, entry["seq"])
}

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	_, ok := ExtractRequestID(ctx)
	require.False(t, ok)
	require.Equal(t, zap.Skip(), ZContext(ctx))

	ctx = WithRequestID(ctx, "abc")
	id, ok := ExtractRequestID(ctx)
	require.True(t, ok)
	require.Equal(t, "abc", id)
	require.Equal(t, zap.String("requestId", "abc"), ZContext(ctx))

	first, _ := ExtractRequestID(WithNewRequestID(ctx))
	second, _ := ExtractRequestID(WithNewRequestID(ctx))
	require.NotEmpty(t, first)
	require.NotEqual(t, first, second)
}

func TestFatalError(t *testing.T) {
	reason := errors.New("address already in use")
	err := error(ErrBindRecovery(reason))

	require.ErrorIs(t, err, reason)
	require.EqualError(t, err, "could not bind recovery listener: address already in use")

	var fe *FatalError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "ERR_BIND_RECOVERY", fe.Code)
}
