package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-ranker/internal/config"
	"resume-ranker/internal/parser"
	"resume-ranker/internal/processor"
	"resume-ranker/internal/ratelimit"
	"resume-ranker/internal/storage"
	"resume-ranker/internal/types"
)

type mapCache struct {
	vectors map[string][]float64
}

func (m *mapCache) GetVector(_ context.Context, model, text string) ([]float64, bool, error) {
	v, ok := m.vectors[model+"|"+text]
	return v, ok, nil
}

func (m *mapCache) SetVector(_ context.Context, model, text string, vector []float64) error {
	m.vectors[model+"|"+text] = vector
	return nil
}

// 固定返回同一向量的 OpenAI 兼容向量服务
func newEmbeddingServer(t *testing.T, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"index": 0, "embedding": []float64{0.6, 0.8}}},
		})
	}))
}

func TestNewRecognizer_Backends(t *testing.T) {
	log := zerolog.Nop()

	cfg := config.Default()
	cfg.NER.Backend = "pattern"
	r, err := NewRecognizer(cfg, log)
	require.NoError(t, err)
	assert.IsType(t, &parser.PatternRecognizer{}, r)

	cfg.NER.Backend = "prose"
	r, err = NewRecognizer(cfg, log)
	require.NoError(t, err)
	assert.IsType(t, &parser.CompositeRecognizer{}, r)

	cfg.NER.Backend = "llm"
	cfg.NER.LLM.APIKey = ""
	_, err = NewRecognizer(cfg, log)
	assert.Error(t, err, "缺少 API 密钥时应失败")

	cfg.NER.LLM.APIKey = "sk-test"
	cfg.NER.LLM.QPM = 30
	r, err = NewRecognizer(cfg, log)
	require.NoError(t, err)
	assert.IsType(t, &parser.CompositeRecognizer{}, r)
}

func TestNewRecognizer_PatternFindsEmail(t *testing.T) {
	cfg := config.Default()
	cfg.NER.Backend = "pattern"
	r, err := NewRecognizer(cfg, zerolog.Nop())
	require.NoError(t, err)

	ents, err := r.Recognize(context.Background(), "Contact: jane@example.com")
	require.NoError(t, err)
	details := processor.ExtractResumeDetails(ents)
	assert.Equal(t, "jane@example.com", details.Email)
}

func TestNewRecognizer_DefaultBackendFillsEducation(t *testing.T) {
	cfg := config.Default()
	require.Equal(t, "prose", cfg.NER.Backend)
	r, err := NewRecognizer(cfg, zerolog.Nop())
	require.NoError(t, err)

	resume := "Alice Johnson\nalice@example.com | (415) 555-0100\n" +
		"Software Engineer at Google, 2019 - 2023\n" +
		"B.S. Computer Science, Stanford University, 2015"
	ents, err := r.Recognize(context.Background(), resume)
	require.NoError(t, err)

	details := processor.ExtractResumeDetails(ents)
	assert.Equal(t, "Stanford University", details.Education)
	assert.NotEqual(t, "Stanford University", details.Name, "学校名不应占用姓名")
	assert.Equal(t, "alice@example.com", details.Email)
	assert.Equal(t, "(415) 555-0100", details.Phone)
	assert.Equal(t, "2015", details.Experience)
}

func TestNewEmbedder_Layers(t *testing.T) {
	calls := 0
	srv := newEmbeddingServer(t, &calls)
	defer srv.Close()

	cfg := config.Default()
	cfg.Embedding.BaseURL = srv.URL
	cfg.Embedding.QPM = 6000

	e, err := NewEmbedder(cfg, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &ratelimit.Embedder{}, e)

	cache := &mapCache{vectors: map[string][]float64{}}
	e, err = NewEmbedder(cfg, cache, zerolog.Nop())
	require.NoError(t, err)
	require.IsType(t, &processor.CachedEmbedder{}, e)

	for i := 0; i < 2; i++ {
		vec, err := e.Embed(context.Background(), "Go developer")
		require.NoError(t, err)
		assert.Equal(t, []float64{0.6, 0.8}, vec)
	}
	assert.Equal(t, 1, calls, "第二次应命中缓存")
	assert.Contains(t, cache.vectors, cfg.Embedding.Model+"|Go developer")
}

func TestNewEmbedder_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Embedding.BaseURL = ""
	_, err := NewEmbedder(cfg, nil, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewRankingService_WithoutStorage(t *testing.T) {
	cfg := config.Default()
	cfg.NER.Backend = "pattern"

	svc, err := NewRankingService(context.Background(), cfg, &storage.Storage{}, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, svc.HistoryEnabled())

	_, err = svc.Analyze(context.Background(), []types.ResumeUpload{}, "Go")
	assert.ErrorIs(t, err, processor.ErrMissingInput)
}
