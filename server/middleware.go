package server

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/segmentio/ksuid"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

// requestID 只沿用合法 ksuid 形式的上游请求 id，其余一律重新生成，
// 避免任意内容进入响应头和日志
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if !isKSUID(id) {
			id = ksuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// accessLog 用 slog 代替 gin 默认的 Logger
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"request_id", c.GetString(requestIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"cost", time.Since(start),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
			slog.Warn("request failed", attrs...)
			return
		}
		slog.Info("request", attrs...)
	}
}
