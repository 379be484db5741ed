package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"resume-ranker/internal/logger"
)

// ErrUnsupportedFormat 文件内容既不是图片也不是 Tika 被允许处理的文档
var ErrUnsupportedFormat = errors.New("unsupported file format")

// TikaOCRExtractor 基于Apache Tika的文本提取器。
// 图片交给 Tika 内置的 Tesseract 做OCR；开启 PDF 模式后也可解析 PDF。
type TikaOCRExtractor struct {
	// Tika服务器地址，例如 http://localhost:9998
	ServerURL string
	// HTTP客户端，可配置超时等参数
	Client *http.Client

	ocrLanguage string
	allowPDF    bool
	logger      zerolog.Logger
}

// TikaOption 定义配置选项函数
type TikaOption func(*TikaOCRExtractor)

// WithTimeout 配置HTTP客户端超时时间
func WithTimeout(timeout time.Duration) TikaOption {
	return func(e *TikaOCRExtractor) {
		e.Client.Timeout = timeout
	}
}

// WithHTTPClient 替换默认的HTTP客户端
func WithHTTPClient(client *http.Client) TikaOption {
	return func(e *TikaOCRExtractor) {
		if client != nil {
			e.Client = client
		}
	}
}

// WithOCRLanguage 设置 Tesseract 语言，例如 "eng" 或 "eng+chi_sim"
func WithOCRLanguage(lang string) TikaOption {
	return func(e *TikaOCRExtractor) {
		e.ocrLanguage = lang
	}
}

// WithPDFSupport 允许把 PDF 交给 Tika 解析
func WithPDFSupport(allow bool) TikaOption {
	return func(e *TikaOCRExtractor) {
		e.allowPDF = allow
	}
}

// WithTikaLogger 配置自定义日志记录器
func WithTikaLogger(l zerolog.Logger) TikaOption {
	return func(e *TikaOCRExtractor) {
		e.logger = l
	}
}

// NewTikaOCRExtractor 创建一个新的Tika提取器
func NewTikaOCRExtractor(serverURL string, options ...TikaOption) *TikaOCRExtractor {
	extractor := &TikaOCRExtractor{
		ServerURL:   strings.TrimRight(serverURL, "/"),
		Client:      &http.Client{Timeout: 60 * time.Second},
		ocrLanguage: "eng",
		logger:      logger.Logger.With().Str("component", "tika").Logger(),
	}
	for _, option := range options {
		option(extractor)
	}
	return extractor
}

// Extract 实现 Extractor 接口，返回去掉首尾空白的纯文本
func (e *TikaOCRExtractor) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	startTime := time.Now()

	mtype := mimetype.Detect(data)
	if !e.accepts(mtype) {
		return "", fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, filename, mtype.String())
	}

	url := fmt.Sprintf("%s/tika", e.ServerURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", mtype.String())
	req.Header.Set("Accept", "text/plain")
	if e.ocrLanguage != "" {
		req.Header.Set("X-Tika-OCRLanguage", e.ocrLanguage)
	}
	if filename != "" {
		req.Header.Set("X-Tika-Resource-Name", filename)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("发送请求到Tika服务器失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取Tika响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tika服务器返回错误状态码: %d, 响应: %s", resp.StatusCode, truncate(string(body), 200))
	}

	text := strings.TrimSpace(string(body))
	e.logger.Debug().
		Str("filename", filename).
		Str("mime", mtype.String()).
		Int("text_length", len(text)).
		Dur("duration", time.Since(startTime)).
		Msg("Tika提取完成")
	return text, nil
}

func (e *TikaOCRExtractor) accepts(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") {
			return true
		}
	}
	return e.allowPDF && mtype.Is("application/pdf")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
