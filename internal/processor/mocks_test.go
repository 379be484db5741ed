package processor

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/mock"

	"resume-ranker/internal/types"
)

// MockTextExtractor 按文件名返回预设文本
type MockTextExtractor struct {
	texts map[string]string
	errs  map[string]error
	calls []string
}

func (m *MockTextExtractor) Extract(_ context.Context, filename string, _ []byte) (string, error) {
	m.calls = append(m.calls, filename)
	if err, ok := m.errs[filename]; ok {
		return "", err
	}
	text, ok := m.texts[filename]
	if !ok {
		return "", fmt.Errorf("no text for %s", filename)
	}
	return text, nil
}

// MockEmbedder 使用 testify mock 记录调用
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	args := m.Called(ctx, text)
	if v := args.Get(0); v != nil {
		return v.([]float64), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockTextEmbedder 模拟 eino 批量向量接口
type MockTextEmbedder struct {
	mock.Mock
}

func (m *MockTextEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	args := m.Called(ctx, texts)
	if v := args.Get(0); v != nil {
		return v.([][]float64), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockRecognizer 按文本返回预设实体
type MockRecognizer struct {
	entities map[string][]types.Entity
	err      error
}

func (m *MockRecognizer) Recognize(_ context.Context, text string) ([]types.Entity, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.entities[text], nil
}

// memoryVectorCache 内存向量缓存
type memoryVectorCache struct {
	mu     sync.Mutex
	data   map[string][]float64
	getErr error
	setErr error
	hits   int
	writes int
}

func newMemoryVectorCache() *memoryVectorCache {
	return &memoryVectorCache{data: make(map[string][]float64)}
}

func (c *memoryVectorCache) GetVector(_ context.Context, model, text string) ([]float64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.data[model+"|"+text]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *memoryVectorCache) SetVector(_ context.Context, model, text string, vector []float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.writes++
	c.data[model+"|"+text] = vector
	return nil
}

// recordingSideChannels 记录旁路调用，可注入错误
type recordingSideChannels struct {
	archived  []string
	saved     []*types.RankingRun
	published []*types.RankingRun
	err       error
}

func (r *recordingSideChannels) ArchiveResume(_ context.Context, runID string, index int, upload types.ResumeUpload) error {
	r.archived = append(r.archived, fmt.Sprintf("%s/%d-%s", runID, index, upload.Filename))
	return r.err
}

func (r *recordingSideChannels) SaveRun(_ context.Context, run *types.RankingRun) error {
	r.saved = append(r.saved, run)
	return r.err
}

func (r *recordingSideChannels) PublishRunCompleted(_ context.Context, run *types.RankingRun) error {
	r.published = append(r.published, run)
	return r.err
}

func (r *recordingSideChannels) GetRun(_ context.Context, runID string) (*types.RankingRun, error) {
	for _, run := range r.saved {
		if run.ID == runID {
			return run, nil
		}
	}
	return nil, ErrRunNotFound
}
