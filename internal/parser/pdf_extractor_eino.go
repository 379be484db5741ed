package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	"github.com/rs/zerolog"

	"resume-ranker/internal/logger"
)

// EinoPDFExtractor 使用 Eino PDF Parser 按页提取文本
type EinoPDFExtractor struct {
	parser  einoParser.Parser
	timeout time.Duration
	logger  zerolog.Logger
}

// EinoPDFOption PDF提取器的配置选项
type EinoPDFOption func(*EinoPDFExtractor)

// WithEinoLogger 配置自定义日志记录器
func WithEinoLogger(l zerolog.Logger) EinoPDFOption {
	return func(e *EinoPDFExtractor) {
		e.logger = l
	}
}

// WithEinoTimeout 单个文件的解析超时，0 表示不限制
func WithEinoTimeout(timeout time.Duration) EinoPDFOption {
	return func(e *EinoPDFExtractor) {
		e.timeout = timeout
	}
}

// WithEinoParser 替换底层解析器
func WithEinoParser(p einoParser.Parser) EinoPDFOption {
	return func(e *EinoPDFExtractor) {
		if p != nil {
			e.parser = p
		}
	}
}

// NewEinoPDFExtractor 初始化 Eino PDF 文本提取器
// 解析器按页返回文档，便于逐页拼接
func NewEinoPDFExtractor(ctx context.Context, options ...EinoPDFOption) (*EinoPDFExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Eino PDF parser: %w", err)
	}

	extractor := &EinoPDFExtractor{
		parser:  p,
		timeout: 30 * time.Second,
		logger:  logger.Logger.With().Str("component", "eino_pdf").Logger(),
	}
	for _, option := range options {
		option(extractor)
	}
	return extractor, nil
}

// Extract 实现 Extractor 接口。每页文本后追加一个换行，最后去掉首尾空白。
// 没有可提取文本的 PDF 返回空字符串而不是错误。
func (e *EinoPDFExtractor) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	startTime := time.Now()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	docs, err := e.parser.Parse(ctx, bytes.NewReader(data), einoParser.WithURI(filename))
	if err != nil {
		e.logger.Error().Err(err).Str("filename", filename).Dur("duration", time.Since(startTime)).Msg("PDF解析失败")
		return "", fmt.Errorf("eino PDF parser failed for %s: %w", filename, err)
	}

	var sb strings.Builder
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		sb.WriteString(doc.Content)
		sb.WriteString("\n")
	}
	text := strings.TrimSpace(sb.String())

	e.logger.Debug().
		Str("filename", filename).
		Int("pages", len(docs)).
		Int("text_length", len(text)).
		Dur("duration", time.Since(startTime)).
		Msg("PDF提取完成")
	return text, nil
}
