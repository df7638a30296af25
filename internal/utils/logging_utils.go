package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"whisperbox/internal/schemas"
)

func GenerateTraceId() string {
	return uuid.New().String()
}

func logEntry(entry *log.Entry, level, message string) {
	switch level {
	case "debug":
		entry.Debug(message)
	case "info":
		entry.Info(message)
	case "warn":
		entry.Warn(message)
	case "error":
		entry.Error(message)
	case "fatal":
		entry.Fatal(message)
	default:
		entry.Info(message)
	}
}

// LogMessageWithFields logs a message enriched with the request's trace id.
func LogMessageWithFields(ctx *gin.Context, level, message string) {
	traceId, _ := ctx.Value(TraceIdKey.String()).(string)

	entry := log.WithFields(log.Fields{
		"traceId": traceId,
	})

	logEntry(entry, level, message)
}

// LogMessageWithFieldsAndError logs a message plus the underlying error with the request's trace id.
func LogMessageWithFieldsAndError(ctx *gin.Context, level, message string, err error) {
	traceId, _ := ctx.Value(TraceIdKey.String()).(string)

	entry := log.WithFields(log.Fields{
		"traceId": traceId,
		"error":   err,
	})

	logEntry(entry, level, message)
}

// WriteAndLogResponse encodes the response object to JSON and writes it with the given status code.
func WriteAndLogResponse(ctx *gin.Context, response interface{}, statusCode int) {
	LogMessageWithFields(ctx, "info", "Returning response")
	if response == nil {
		ctx.Status(statusCode)
		return
	}
	ctx.JSON(statusCode, response)
}

// WriteAndLogError logs the given error and writes the error envelope with the specified status code.
func WriteAndLogError(ctx *gin.Context, customErr *schemas.CustomError, statusCode int, err error) {
	LogMessageWithFieldsAndError(ctx, "error", "Returning "+customErr.Code+" / "+customErr.Message, err)
	ctx.JSON(statusCode, &schemas.ErrorDTO{
		Success: false,
		Code:    customErr.Code,
		Message: customErr.Message,
	})
}

// AbortWithError behaves like WriteAndLogError but also aborts the middleware chain.
func AbortWithError(ctx *gin.Context, customErr *schemas.CustomError, statusCode int, err error) {
	LogMessageWithFieldsAndError(ctx, "error", "Aborting with "+customErr.Code+" / "+customErr.Message, err)
	ctx.AbortWithStatusJSON(statusCode, &schemas.ErrorDTO{
		Success: false,
		Code:    customErr.Code,
		Message: customErr.Message,
	})
}
