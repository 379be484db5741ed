package parser

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	pdfHeader = []byte("%PDF-1.5\nMock PDF content for testing\n")
)

// 创建一个记录请求的模拟Tika服务器
func newMockTikaServer(t *testing.T, status int, body string) (*httptest.Server, *[]*http.Request) {
	t.Helper()
	var requests []*http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, _ := io.ReadAll(r.Body)
		clone := r.Clone(context.Background())
		clone.ContentLength = int64(len(payload))
		requests = append(requests, clone)

		if r.URL.Path != "/tika" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func TestNewTikaOCRExtractor(t *testing.T) {
	extractor := NewTikaOCRExtractor("http://localhost:9998/")
	assert.Equal(t, "http://localhost:9998", extractor.ServerURL, "末尾的斜杠应被去掉")
	require.NotNil(t, extractor.Client)
	assert.Equal(t, 60*time.Second, extractor.Client.Timeout)
	assert.Equal(t, "eng", extractor.ocrLanguage)
	assert.False(t, extractor.allowPDF)

	custom := NewTikaOCRExtractor("http://tika:9998",
		WithTimeout(5*time.Second),
		WithOCRLanguage("eng+chi_sim"),
		WithPDFSupport(true),
	)
	assert.Equal(t, 5*time.Second, custom.Client.Timeout)
	assert.Equal(t, "eng+chi_sim", custom.ocrLanguage)
	assert.True(t, custom.allowPDF)
}

func TestTikaOCRExtractor_ExtractImage(t *testing.T) {
	server, requests := newMockTikaServer(t, http.StatusOK, "\n  Jane Doe\nGo Developer  \n\n")
	extractor := NewTikaOCRExtractor(server.URL, WithOCRLanguage("eng+chi_sim"))

	text, err := extractor.Extract(context.Background(), "scan.png", pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nGo Developer", text)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/tika", req.URL.Path)
	assert.Equal(t, "image/png", req.Header.Get("Content-Type"))
	assert.Equal(t, "text/plain", req.Header.Get("Accept"))
	assert.Equal(t, "eng+chi_sim", req.Header.Get("X-Tika-OCRLanguage"))
	assert.Equal(t, "scan.png", req.Header.Get("X-Tika-Resource-Name"))
	assert.Equal(t, int64(len(pngHeader)), req.ContentLength)
}

func TestTikaOCRExtractor_RejectsUnsupportedFormats(t *testing.T) {
	server, requests := newMockTikaServer(t, http.StatusOK, "should not be called")
	extractor := NewTikaOCRExtractor(server.URL)

	_, err := extractor.Extract(context.Background(), "resume.docx", []byte("plain text is not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	// 默认不接受 PDF
	_, err = extractor.Extract(context.Background(), "resume.pdf", pdfHeader)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	assert.Empty(t, *requests, "不支持的格式不应发送到Tika")
}

func TestTikaOCRExtractor_PDFSupport(t *testing.T) {
	server, requests := newMockTikaServer(t, http.StatusOK, "pdf text")
	extractor := NewTikaOCRExtractor(server.URL, WithPDFSupport(true))

	text, err := extractor.Extract(context.Background(), "resume.pdf", pdfHeader)
	require.NoError(t, err)
	assert.Equal(t, "pdf text", text)
	require.Len(t, *requests, 1)
	assert.Equal(t, "application/pdf", (*requests)[0].Header.Get("Content-Type"))
}

func TestTikaOCRExtractor_ServerError(t *testing.T) {
	server, _ := newMockTikaServer(t, http.StatusUnprocessableEntity, "TesseractOCRParser failed")
	extractor := NewTikaOCRExtractor(server.URL)

	_, err := extractor.Extract(context.Background(), "scan.png", pngHeader)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "TesseractOCRParser failed")
}

func TestTikaOCRExtractor_ConnectionError(t *testing.T) {
	extractor := NewTikaOCRExtractor("http://127.0.0.1:1", WithTimeout(2*time.Second))

	_, err := extractor.Extract(context.Background(), "scan.png", pngHeader)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "发送请求到Tika服务器失败")
}
