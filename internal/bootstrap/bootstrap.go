// Package bootstrap 按配置组装排序流水线，服务端和命令行共用
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog"

	"resume-ranker/internal/agent"
	"resume-ranker/internal/config"
	"resume-ranker/internal/parser"
	"resume-ranker/internal/processor"
	"resume-ranker/internal/ratelimit"
	"resume-ranker/internal/storage"
)

const (
	// 限流代理的首次重试等待
	retryWait = time.Second
	// 向量接口可重试错误的最大重试次数
	embedMaxRetries = 3
)

// NewExtractor PDF 按 extraction.pdf_backend 选择 eino 或 tika，其余格式走 Tika OCR
func NewExtractor(ctx context.Context, cfg *config.Config, log zerolog.Logger) (processor.TextExtractor, error) {
	tikaCfg := cfg.Extraction.Tika
	tikaOpts := []parser.TikaOption{
		parser.WithTimeout(time.Duration(tikaCfg.Timeout) * time.Second),
		parser.WithOCRLanguage(tikaCfg.OCRLanguage),
		parser.WithTikaLogger(log.With().Str("component", "tika").Logger()),
	}
	ocr := parser.NewTikaOCRExtractor(tikaCfg.ServerURL, tikaOpts...)

	var pdf parser.Extractor
	switch cfg.Extraction.PDFBackend {
	case "tika":
		pdf = parser.NewTikaOCRExtractor(tikaCfg.ServerURL, append(tikaOpts, parser.WithPDFSupport(true))...)
	default:
		einoPDF, err := parser.NewEinoPDFExtractor(ctx, parser.WithEinoLogger(log.With().Str("component", "eino_pdf").Logger()))
		if err != nil {
			return nil, fmt.Errorf("创建PDF提取器失败: %w", err)
		}
		pdf = einoPDF
	}
	log.Info().Str("pdf_backend", cfg.Extraction.PDFBackend).Str("tika", tikaCfg.ServerURL).Msg("文本提取器就绪")
	return parser.NewFileTextExtractor(pdf, ocr)
}

// NewEmbedder HTTP 向量接口，外层依次包上限流和 Redis 缓存。cache 为空时不缓存。
func NewEmbedder(cfg *config.Config, cache processor.VectorCache, log zerolog.Logger) (processor.Embedder, error) {
	httpEmbedder, err := parser.NewHTTPEmbedder(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("创建向量生成器失败: %w", err)
	}
	einoEmbedder, err := processor.NewEinoEmbedder(httpEmbedder)
	if err != nil {
		return nil, err
	}

	var embedder processor.Embedder = einoEmbedder
	if cfg.Embedding.QPM > 0 {
		embedder = ratelimit.NewEmbedder(embedder, cfg.Embedding.QPM, embedMaxRetries, retryWait)
	}
	if cache != nil {
		embedder = processor.NewCachedEmbedder(embedder, cache, httpEmbedder.Model())
	}
	log.Info().
		Str("model", httpEmbedder.Model()).
		Bool("cache", cache != nil).
		Int("qpm", cfg.Embedding.QPM).
		Msg("向量生成器就绪")
	return embedder, nil
}

// NewRecognizer 按 ner.backend 组装实体识别。正则识别器总是参与合并。
func NewRecognizer(cfg *config.Config, log zerolog.Logger) (processor.EntityRecognizer, error) {
	pattern := parser.NewPatternRecognizer(cfg.NER.PhoneRegion)

	switch cfg.NER.Backend {
	case "pattern":
		log.Info().Msg("实体识别: pattern")
		return pattern, nil
	case "llm":
		chatModel, err := agent.NewOpenAIChatModel(cfg.NER.LLM)
		if err != nil {
			return nil, fmt.Errorf("创建聊天模型失败: %w", err)
		}
		var chat model.BaseChatModel = chatModel
		if cfg.NER.LLM.QPM > 0 {
			chat = ratelimit.NewChatModel(chatModel, cfg.NER.LLM.QPM, cfg.NER.LLM.MaxRetries, retryWait)
		}
		llm, err := parser.NewLLMEntityRecognizer(chat)
		if err != nil {
			return nil, err
		}
		log.Info().Str("model", cfg.NER.LLM.Model).Int("qpm", cfg.NER.LLM.QPM).Msg("实体识别: llm")
		return parser.NewCompositeRecognizer(llm, pattern)
	default:
		log.Info().Msg("实体识别: prose")
		return parser.NewCompositeRecognizer(parser.NewProseRecognizer(), pattern)
	}
}

// NewRanker 组装提取、向量、识别三个组件
func NewRanker(ctx context.Context, cfg *config.Config, cache processor.VectorCache, log zerolog.Logger) (*processor.Ranker, error) {
	extractor, err := NewExtractor(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	embedder, err := NewEmbedder(cfg, cache, log)
	if err != nil {
		return nil, err
	}
	recognizer, err := NewRecognizer(cfg, log)
	if err != nil {
		return nil, err
	}
	components := processor.NewComponents(
		processor.WithExtractor(extractor),
		processor.WithEmbedder(embedder),
		processor.WithRecognizer(recognizer),
	)
	return processor.NewRanker(components, processor.WithLogger(log))
}

// NewRankingService 组装完整服务，store 中已初始化的组件作为旁路接入
func NewRankingService(ctx context.Context, cfg *config.Config, store *storage.Storage, log zerolog.Logger) (*processor.RankingService, error) {
	var (
		cache    processor.VectorCache
		reader   processor.RunReader
		sideOpts []processor.SideChannelOpt
	)
	if store != nil {
		if store.Redis != nil {
			cache = store.Redis
		}
		if store.MinIO != nil {
			sideOpts = append(sideOpts, processor.WithArchiver(store.MinIO))
		}
		if store.MySQL != nil {
			reader = store.MySQL
			sideOpts = append(sideOpts, processor.WithRecorder(store.MySQL))
		}
		if store.RabbitMQ != nil {
			sideOpts = append(sideOpts, processor.WithPublisher(store.RabbitMQ))
		}
	}

	ranker, err := NewRanker(ctx, cfg, cache, log)
	if err != nil {
		return nil, err
	}
	return processor.NewRankingService(ranker, reader, sideOpts, processor.WithLogger(log))
}
