package processor

import (
	"context"
	"errors"
	"fmt"

	"resume-ranker/internal/logger"
)

// EinoEmbedder 把 eino 的批量向量接口适配为单文本的 Embedder
type EinoEmbedder struct {
	textEmbedder TextEmbedder
}

// NewEinoEmbedder 创建适配器
func NewEinoEmbedder(textEmbedder TextEmbedder) (*EinoEmbedder, error) {
	if textEmbedder == nil {
		return nil, errors.New("textEmbedder cannot be nil")
	}
	return &EinoEmbedder{textEmbedder: textEmbedder}, nil
}

// Embed 每次只发送一段文本
func (e *EinoEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	embeddings, err := e.textEmbedder.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embedding text failed: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("embedding count mismatch: expected 1, got %d", len(embeddings))
	}
	if len(embeddings[0]) == 0 {
		return nil, errors.New("embedding service returned an empty vector")
	}
	return embeddings[0], nil
}

// CachedEmbedder 在 Embedder 前加一层向量缓存。缓存读写失败只记日志。
type CachedEmbedder struct {
	next  Embedder
	cache VectorCache
	model string
}

// NewCachedEmbedder model 参与缓存键，换模型后旧向量自然失效
func NewCachedEmbedder(next Embedder, cache VectorCache, model string) *CachedEmbedder {
	return &CachedEmbedder{next: next, cache: cache, model: model}
}

// Embed 先查缓存，未命中时调用下游并回写
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if c.cache == nil {
		return c.next.Embed(ctx, text)
	}

	vec, ok, err := c.cache.GetVector(ctx, c.model, text)
	if err != nil {
		logger.Warn().Err(err).Str("model", c.model).Msg("读取向量缓存失败，直接调用向量服务")
	} else if ok {
		return vec, nil
	}

	vec, err = c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SetVector(ctx, c.model, text, vec); err != nil {
		logger.Warn().Err(err).Str("model", c.model).Msg("写入向量缓存失败")
	}
	return vec, nil
}
