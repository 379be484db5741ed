package agent

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-ranker/internal/config"
)

func newMockChatServer(t *testing.T, status int, response string, captured *chatCompletionRequest, auth *string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if captured != nil {
			_ = json.Unmarshal(body, captured)
		}
		if auth != nil {
			*auth = r.Header.Get("Authorization")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewOpenAIChatModel(t *testing.T) {
	_, err := NewOpenAIChatModel(config.LLMConfig{})
	assert.Error(t, err, "缺少 API 密钥应报错")

	m, err := NewOpenAIChatModel(config.LLMConfig{APIKey: "sk"})
	require.NoError(t, err)
	assert.Equal(t, defaultChatModelName, m.modelName)
	assert.Equal(t, defaultChatAPIURL, m.apiURL)
	assert.Nil(t, m.temperature)

	m, err = NewOpenAIChatModel(config.LLMConfig{APIKey: "sk", Model: "qwen-plus", APIURL: "http://llm", Temperature: 0.2})
	require.NoError(t, err)
	assert.Equal(t, "qwen-plus", m.modelName)
	require.NotNil(t, m.temperature)
	assert.InDelta(t, 0.2, *m.temperature, 1e-6)
}

func TestOpenAIChatModel_Generate(t *testing.T) {
	var captured chatCompletionRequest
	var auth string
	server := newMockChatServer(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"model": "qwen-turbo",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"entities\":[]}"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
	}`, &captured, &auth)

	m, err := NewOpenAIChatModel(config.LLMConfig{APIKey: "sk-test", APIURL: server.URL, Temperature: 0.1})
	require.NoError(t, err)

	msg, err := m.Generate(context.Background(),
		[]*schema.Message{schema.SystemMessage("system"), nil, schema.UserMessage("hello")},
		model.WithMaxTokens(256),
	)
	require.NoError(t, err)

	assert.Equal(t, schema.Assistant, msg.Role)
	assert.Equal(t, `{"entities":[]}`, msg.Content)
	require.NotNil(t, msg.ResponseMeta)
	assert.Equal(t, "stop", msg.ResponseMeta.FinishReason)
	assert.Equal(t, 17, msg.ResponseMeta.Usage.TotalTokens)

	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "qwen-turbo", captured.Model)
	require.Len(t, captured.Messages, 2, "nil 消息应被跳过")
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "hello", captured.Messages[1].Content)
	require.NotNil(t, captured.MaxTokens)
	assert.Equal(t, 256, *captured.MaxTokens)
	require.NotNil(t, captured.Temperature)
	assert.InDelta(t, 0.1, *captured.Temperature, 1e-6)
}

func TestOpenAIChatModel_ModelOverride(t *testing.T) {
	var captured chatCompletionRequest
	server := newMockChatServer(t, http.StatusOK,
		`{"choices":[{"message":{"content":"ok"}}]}`, &captured, nil)

	m, err := NewOpenAIChatModel(config.LLMConfig{APIKey: "sk", APIURL: server.URL})
	require.NoError(t, err)

	msg, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")}, model.WithModel("qwen-max"))
	require.NoError(t, err)
	assert.Equal(t, "qwen-max", captured.Model)
	assert.Equal(t, schema.Assistant, msg.Role, "缺省角色应为 assistant")
	assert.Nil(t, captured.Temperature)
}

func TestOpenAIChatModel_Errors(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
		want   string
	}{
		"http error":     {http.StatusTooManyRequests, `{"error":"rate limited"}`, "429"},
		"api error":      {http.StatusOK, `{"error":{"message":"bad model","code":"invalid_model"}}`, "bad model"},
		"no choices":     {http.StatusOK, `{"choices":[]}`, "空选项"},
		"malformed json": {http.StatusOK, `{`, "反序列化"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			server := newMockChatServer(t, tc.status, tc.body, nil, nil)
			m, err := NewOpenAIChatModel(config.LLMConfig{APIKey: "sk", APIURL: server.URL})
			require.NoError(t, err)

			_, err = m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestOpenAIChatModel_Stream(t *testing.T) {
	server := newMockChatServer(t, http.StatusOK,
		`{"choices":[{"message":{"role":"assistant","content":"streamed"}}]}`, nil, nil)
	m, err := NewOpenAIChatModel(config.LLMConfig{APIKey: "sk", APIURL: server.URL})
	require.NoError(t, err)

	sr, err := m.Stream(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.NoError(t, err)
	defer sr.Close()

	chunk, err := sr.Recv()
	require.NoError(t, err)
	assert.Equal(t, "streamed", chunk.Content)

	_, err = sr.Recv()
	assert.ErrorIs(t, err, io.EOF)
}
