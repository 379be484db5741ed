package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"

	"resume-ranker/internal/logger"
)

// RequestIDHeader 请求ID的头部名称，客户端传入时沿用
const RequestIDHeader = "X-Request-ID"

// RequestID 为每个请求分配ID，写回响应头并把带ID的日志记录器放入上下文
func RequestID() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		requestID := string(c.GetHeader(RequestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)
		ctx = logger.WithContext(ctx, map[string]interface{}{"request_id": requestID})
		c.Next(ctx)
	}
}

// AccessLog 记录每个请求的方法、路径、状态码和耗时
func AccessLog() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		c.Next(ctx)
		logger.Ctx(ctx).Info().
			Str("method", string(c.Method())).
			Str("path", string(c.Path())).
			Int("status", c.Response.StatusCode()).
			Dur("latency", time.Since(start)).
			Msg("请求处理完成")
	}
}
