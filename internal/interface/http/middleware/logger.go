package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/xiebiao/storefront/pkg/metrics"
)

const headerRequestID = "X-Request-ID"

// RequestLogger 访问日志
// 1. 生成或透传X-Request-ID
// 2. 把带request_id的logger放进request context,handler和response.Error通过zerolog.Ctx取用
// 3. 请求结束后输出一条访问日志
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(headerRequestID, requestID)

		reqLog := log.With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(reqLog.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		ev := reqLog.Info()
		if status >= 500 {
			ev = reqLog.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Str("client_ip", c.ClientIP()).
			Uint("user_id", GetUserID(c)).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// Metrics HTTP指标
// path使用路由模板(c.FullPath),避免/orders/1、/orders/2产生大量标签
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.InitMetrics()
		metrics.HTTPRequestsInProgress.Inc()
		defer metrics.HTTPRequestsInProgress.Dec()

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.ObserveHTTP(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
