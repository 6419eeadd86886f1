package utils

import "github.com/gin-gonic/gin"

// Error codes carried in the body next to the HTTP status.
const (
	CodeValidation       = 42200
	CodeNotFound         = 40400
	CodeMethodNotAllowed = 40500
	CodeRateLimited      = 42900
	CodeInternal         = 50000
	CodeUnavailable      = 50300
)

// ErrorResponse is the body returned for every failed request.
type ErrorResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Error writes an error body with the given status and aborts the handler chain.
func Error(ctx *gin.Context, status int, code int, message string) {
	ErrorWithData(ctx, status, code, message, nil)
}

// ErrorWithData is Error with a machine readable payload, e.g. per-field validation failures.
func ErrorWithData(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.AbortWithStatusJSON(status, ErrorResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}
