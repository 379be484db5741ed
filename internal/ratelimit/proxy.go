package ratelimit

import (
	"context"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"resume-ranker/internal/processor"
)

// ChatModel 对聊天模型调用限流并重试的代理
type ChatModel struct {
	next   model.BaseChatModel
	bucket *TokenBucket
}

var _ model.BaseChatModel = (*ChatModel)(nil)

// NewChatModel qpm 为每分钟请求上限，桶容量取其一半以允许少量突发
func NewChatModel(next model.BaseChatModel, qpm, maxRetries int, retryWait time.Duration) *ChatModel {
	return &ChatModel{
		next:   next,
		bucket: NewTokenBucket(qpm, 0).WithRetryPolicy(retryWait, maxRetries),
	}
}

// Generate 实现 model.BaseChatModel
func (m *ChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	var out *schema.Message
	err := m.bucket.Do(ctx, func() error {
		var genErr error
		out, genErr = m.next.Generate(ctx, messages, opts...)
		return genErr
	})
	return out, err
}

// Stream 只对建立流的调用限流，读取过程中的错误交给调用方
func (m *ChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	var out *schema.StreamReader[*schema.Message]
	err := m.bucket.Do(ctx, func() error {
		var streamErr error
		out, streamErr = m.next.Stream(ctx, messages, opts...)
		return streamErr
	})
	return out, err
}

// Embedder 对向量接口限流的代理，放在缓存之下，命中缓存的文本不消耗配额
type Embedder struct {
	next   processor.Embedder
	bucket *TokenBucket
}

var _ processor.Embedder = (*Embedder)(nil)

// NewEmbedder 创建限流的向量生成器
func NewEmbedder(next processor.Embedder, qpm, maxRetries int, retryWait time.Duration) *Embedder {
	return &Embedder{
		next:   next,
		bucket: NewTokenBucket(qpm, 0).WithRetryPolicy(retryWait, maxRetries),
	}
}

// Embed 实现 processor.Embedder
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	var vec []float64
	err := e.bucket.Do(ctx, func() error {
		var embedErr error
		vec, embedErr = e.next.Embed(ctx, text)
		return embedErr
	})
	return vec, err
}
