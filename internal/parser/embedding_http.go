package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/rs/zerolog"

	"resume-ranker/internal/config"
	"resume-ranker/internal/logger"
)

// HTTPEmbedder 实现 embedding.Embedder 接口，调用 OpenAI 兼容的 /v1/embeddings 接口。
// DashScope 兼容模式和本地部署的 sentence-transformers 服务都走这条路径。
type HTTPEmbedder struct {
	apiKey     string
	model      string
	dimensions int
	httpClient *http.Client
	baseURL    string
	logger     zerolog.Logger
}

var _ embedding.Embedder = (*HTTPEmbedder)(nil)

// NewHTTPEmbedder 按配置创建 Embedder，本地服务可以不设置 API Key
func NewHTTPEmbedder(embeddingCfg config.EmbeddingConfig) (*HTTPEmbedder, error) {
	if embeddingCfg.BaseURL == "" {
		return nil, fmt.Errorf("embedding base_url 不能为空")
	}
	if embeddingCfg.Model == "" {
		return nil, fmt.Errorf("embedding model 不能为空")
	}
	timeout := time.Duration(embeddingCfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPEmbedder{
		apiKey:     embeddingCfg.APIKey,
		model:      embeddingCfg.Model,
		dimensions: embeddingCfg.Dimensions,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    embeddingCfg.BaseURL,
		logger:     logger.Logger.With().Str("component", "embedder").Str("model", embeddingCfg.Model).Logger(),
	}, nil
}

// Model 返回默认模型名，缓存键依赖它区分不同模型的向量
func (a *HTTPEmbedder) Model() string {
	return a.model
}

// GetDimensions 返回请求中携带的维度，0 表示使用模型默认维度
func (a *HTTPEmbedder) GetDimensions() int {
	return a.dimensions
}

// EmbeddingRequest OpenAI兼容的请求结构
type EmbeddingRequest struct {
	Input          interface{} `json:"input"` // string or []string
	Model          string      `json:"model"`
	Dimensions     int         `json:"dimensions,omitempty"`
	EncodingFormat string      `json:"encoding_format,omitempty"`
}

// EmbeddingResponse OpenAI兼容的响应结构
type EmbeddingResponse struct {
	Object string           `json:"object"`
	Data   []EmbeddingEntry `json:"data"`
	Model  string           `json:"model"`
	Usage  EmbeddingUsage   `json:"usage"`
	ID     string           `json:"id,omitempty"`
	Error  *APIError        `json:"error,omitempty"`
}

// EmbeddingEntry part of the response
type EmbeddingEntry struct {
	Object    string    `json:"object"`
	Embedding []float64 `json:"embedding"`
	Index     int       `json:"index"`
}

// EmbeddingUsage part of the response
type EmbeddingUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// APIError for API-level errors, some providers return them with 200 OK
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param"`
	Code    string `json:"code"`
}

// EmbedStrings 将文本转换为向量, 实现 cloudwego/eino embedding.Embedder 接口。
// 返回的向量按输入顺序排列。
func (a *HTTPEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	options := embedding.GetCommonOptions(&embedding.Options{}, opts...)
	effectiveModel := a.model
	if options.Model != nil && *options.Model != "" {
		effectiveModel = *options.Model
	}

	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	var inputBody interface{}
	if len(texts) == 1 {
		inputBody = texts[0]
	} else {
		inputBody = texts
	}
	reqBody := EmbeddingRequest{
		Input:          inputBody,
		Model:          effectiveModel,
		Dimensions:     a.dimensions,
		EncodingFormat: "float",
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	startTime := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var wrapped struct {
			Error *APIError `json:"error"`
		}
		if json.Unmarshal(body, &wrapped) == nil && wrapped.Error != nil && wrapped.Error.Message != "" {
			return nil, fmt.Errorf("API调用失败, 状态码: %d, 类型: %s, 错误: %s, Code: %s",
				resp.StatusCode, wrapped.Error.Type, wrapped.Error.Message, wrapped.Error.Code)
		}
		return nil, fmt.Errorf("API调用失败, 状态码: %d, 响应: %s", resp.StatusCode, truncate(string(body), 500))
	}

	var parsedResp EmbeddingResponse
	if err := json.Unmarshal(body, &parsedResp); err != nil {
		return nil, fmt.Errorf("解析响应JSON失败: %w", err)
	}
	if parsedResp.Error != nil && parsedResp.Error.Message != "" {
		return nil, fmt.Errorf("API返回错误: 类型=%s, 消息='%s', Code=%s",
			parsedResp.Error.Type, parsedResp.Error.Message, parsedResp.Error.Code)
	}
	if len(parsedResp.Data) != len(texts) {
		return nil, fmt.Errorf("向量数量不匹配: 期望 %d, 实际 %d", len(texts), len(parsedResp.Data))
	}

	outputEmbeddings := make([][]float64, len(texts))
	for _, entry := range parsedResp.Data {
		idx := entry.Index
		if idx < 0 || idx >= len(texts) {
			return nil, fmt.Errorf("向量索引越界: %d (共 %d 条输入)", idx, len(texts))
		}
		if outputEmbeddings[idx] != nil {
			return nil, fmt.Errorf("向量索引重复: %d", idx)
		}
		if len(entry.Embedding) == 0 {
			return nil, fmt.Errorf("索引 %d 的向量为空", idx)
		}
		outputEmbeddings[idx] = entry.Embedding
	}

	a.logger.Debug().
		Int("texts", len(texts)).
		Int("dim", firstEmbeddingDim(outputEmbeddings)).
		Int("prompt_tokens", parsedResp.Usage.PromptTokens).
		Dur("duration", time.Since(startTime)).
		Msg("向量生成完成")
	return outputEmbeddings, nil
}

func firstEmbeddingDim(embeddings [][]float64) int {
	if len(embeddings) > 0 {
		return len(embeddings[0])
	}
	return 0
}
