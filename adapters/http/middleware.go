package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/pictures/pkg/apperror"
	"github.com/khoahotran/pictures/pkg/logger"
)

const (
	HeaderRequestID  = "X-Request-ID"
	HeaderAlbumToken = "X-Album-Token"

	GinContextKeyRequestID = "requestID"
)

// RequestIDMiddleware keeps an incoming request id or assigns a new one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(GinContextKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// LoggerMiddleware logs one line per request after it completes.
func LoggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(GinContextKeyRequestID)),
		)
	}
}

// ErrorMiddleware renders the last error a handler attached with c.Error.
func ErrorMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status := apperror.ToHTTPStatus(err)
		if status >= http.StatusInternalServerError {
			log.Error("Request failed", err,
				zap.String("path", c.FullPath()),
				zap.String("request_id", c.GetString(GinContextKeyRequestID)),
			)
		}

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			body := appErr.ToJSON()
			if appErr.Details != "" && status < http.StatusInternalServerError {
				body["details"] = appErr.Details
			}
			c.AbortWithStatusJSON(status, body)
			return
		}
		c.AbortWithStatusJSON(status, gin.H{"error": apperror.ErrInternal.Error()})
	}
}

func albumToken(c *gin.Context) string {
	if t := c.GetHeader(HeaderAlbumToken); t != "" {
		return t
	}
	return c.Query("albumToken")
}
