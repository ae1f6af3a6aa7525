package logging_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/km-arc/go-shopping/framework/config"
	"github.com/km-arc/go-shopping/framework/logging"
)

func TestNew(t *testing.T) {
	t.Parallel()

	for _, cfg := range []config.LogConfig{
		{Level: "debug", Format: "console"},
		{Level: "info", Format: "json"},
		{Level: "warn", Format: ""},
	} {
		l, err := logging.New(cfg)
		require.NoError(t, err, cfg)
		assert.NotNil(t, l)
	}

	l, err := logging.New(config.LogConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestNew_Invalid(t *testing.T) {
	t.Parallel()

	_, err := logging.New(config.LogConfig{Level: "loud", Format: "json"})
	assert.Error(t, err)

	_, err = logging.New(config.LogConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, logging.FromContext(context.Background()))

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logging.WithContext(context.Background(), zap.New(core))
	logging.FromContext(ctx).Info("hello")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "hello", logs.All()[0].Message)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	var seenID string
	handler := logging.Middleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = logging.CorrelationID(r.Context())
		logging.FromContext(r.Context()).Debug("inside")
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/carts/1", nil)
	req.Header.Set(logging.CorrelationHeader, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", seenID)
	assert.Equal(t, "abc-123", rec.Header().Get(logging.CorrelationHeader))

	require.Equal(t, 2, logs.Len())
	inside := logs.All()[0]
	assert.Equal(t, "abc-123", inside.ContextMap()["correlation_id"])

	done := logs.All()[1]
	assert.Equal(t, zapcore.WarnLevel, done.Level)
	assert.Equal(t, int64(http.StatusNotFound), done.ContextMap()["status"])
	assert.Equal(t, "/carts/1", done.ContextMap()["path"])
}

func TestMiddleware_GeneratesCorrelationID(t *testing.T) {
	t.Parallel()

	handler := logging.Middleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Len(t, rec.Header().Get(logging.CorrelationHeader), 36)
}
