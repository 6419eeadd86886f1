package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newLoggedEngine(logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(ctx *gin.Context) {
		ctx.Set(RequestIDKey, "req-42")
		ctx.Next()
	})
	r.Use(AccessLog(logger), Recovery(logger))
	r.GET("/recipes", func(ctx *gin.Context) { ctx.Status(http.StatusOK) })
	r.GET("/boom", func(ctx *gin.Context) { panic("boom") })
	return r
}

func TestAccessLogCarriesRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := newLoggedEngine(zap.New(core))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/recipes?page=1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	entries := logs.FilterMessage("/recipes").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
	assert.Equal(t, "page=1", fields["query"])
}

func TestRecoveryAnswersWithErrorBody(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := newLoggedEngine(zap.New(core))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, CodeInternal, body.Code)

	panics := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.NotEmpty(t, panics)
	assert.Contains(t, panics[0].ContextMap(), "stack")
}
