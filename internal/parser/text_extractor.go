package parser

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

// Extractor 从单个文件的原始字节中取出纯文本
type Extractor interface {
	Extract(ctx context.Context, filename string, data []byte) (string, error)
}

// FileTextExtractor 按文件名分派：.pdf 走PDF解析，其余全部走OCR
type FileTextExtractor struct {
	pdf Extractor
	ocr Extractor
}

// NewFileTextExtractor 组合PDF与OCR两个后端
func NewFileTextExtractor(pdf, ocr Extractor) (*FileTextExtractor, error) {
	if pdf == nil || ocr == nil {
		return nil, errors.New("PDF和OCR提取器都不能为空")
	}
	return &FileTextExtractor{pdf: pdf, ocr: ocr}, nil
}

// Extract 实现 processor.TextExtractor
func (f *FileTextExtractor) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	if IsPDF(filename) {
		return f.pdf.Extract(ctx, filename, data)
	}
	return f.ocr.Extract(ctx, filename, data)
}

// IsPDF 判断文件名是否以 .pdf 结尾（不区分大小写）
func IsPDF(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}
