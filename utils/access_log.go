package utils

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestIDKey is the gin context key holding the current request id.
const RequestIDKey = "request_id"

// RequestID returns the id assigned to the request, or "" outside the request id middleware.
func RequestID(ctx *gin.Context) string {
	return ctx.GetString(RequestIDKey)
}

// AccessLog logs one line per finished request, tagged with its request id.
func AccessLog(logger *zap.Logger) gin.HandlerFunc {
	return ginzap.GinzapWithConfig(logger, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		Context: func(ctx *gin.Context) []zapcore.Field {
			return []zapcore.Field{zap.String("request_id", RequestID(ctx))}
		},
	})
}

// Recovery logs a panic with its stack and answers with the usual 500 body.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return ginzap.CustomRecoveryWithZap(logger, true, func(ctx *gin.Context, _ any) {
		Error(ctx, http.StatusInternalServerError, CodeInternal, "internal server error")
	})
}
