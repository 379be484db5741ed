package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket 按每分钟请求数限流，失败时按指数退避重试
type TokenBucket struct {
	limiter *rate.Limiter
	now     func() time.Time

	retryWait  time.Duration // 首次重试前的等待，之后按 2 的幂增长
	maxRetries int
}

// NewTokenBucket capacity 为 0 时取 qpm 的一半，至少为 1
func NewTokenBucket(qpm int, capacity int) *TokenBucket {
	if qpm <= 0 {
		qpm = 1
	}
	if capacity <= 0 {
		capacity = qpm / 2
		if capacity <= 0 {
			capacity = 1
		}
	}
	return &TokenBucket{
		limiter:    rate.NewLimiter(rate.Limit(float64(qpm)/60.0), capacity),
		now:        time.Now,
		retryWait:  time.Second,
		maxRetries: 3,
	}
}

// WithRetryPolicy 设置重试策略，maxRetries 为 0 表示不重试
func (tb *TokenBucket) WithRetryPolicy(waitTime time.Duration, maxRetries int) *TokenBucket {
	if waitTime > 0 {
		tb.retryWait = waitTime
	}
	if maxRetries >= 0 {
		tb.maxRetries = maxRetries
	}
	return tb
}

// Allow 有令牌时消耗一个并返回 true，不阻塞
func (tb *TokenBucket) Allow() bool {
	return tb.limiter.AllowN(tb.now(), 1)
}

// Wait 阻塞直到拿到令牌或 ctx 结束。等待时间超过 ctx 截止时间时立即返回错误。
func (tb *TokenBucket) Wait(ctx context.Context) error {
	if err := tb.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

// Do 每次尝试前先取令牌，可重试的错误按指数退避重试
func (tb *TokenBucket) Do(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt <= tb.maxRetries; attempt++ {
		if err = tb.Wait(ctx); err != nil {
			return err
		}
		err = fn()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) || attempt == tb.maxRetries {
			return err
		}

		backoff := tb.retryWait * time.Duration(1<<uint(attempt))
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

var retryableMarkers = []string{
	"timeout",
	"deadline exceeded",
	"connection reset",
	"EOF",
	"connection refused",
	"429",
	"rate limit",
	"Too Many Requests",
	"no such host",
	"503",
	"服务器繁忙",
	"请求超过限额",
	"QPS限制",
}

// IsRetryable 根据错误信息判断是否值得重试。调用方主动取消的不重试。
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	msg := err.Error()
	for _, marker := range retryableMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
