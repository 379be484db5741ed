package parser

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-ranker/internal/types"
)

// 测试用LLM模型模拟器
type MockLLMModel struct {
	mockResponse string
	err          error
	// 记录最后一次调用的消息
	lastMessages []*schema.Message
	callCount    int
}

func (m *MockLLMModel) Generate(_ context.Context, messages []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.callCount++
	m.lastMessages = messages
	if m.err != nil {
		return nil, m.err
	}
	return &schema.Message{Role: schema.Assistant, Content: m.mockResponse}, nil
}

func (m *MockLLMModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

const llmResumeText = "Jane Doe\njane@example.com\nStanford University, 2016-2020\nJane Doe Consulting"

func TestLLMEntityRecognizer_FencedJSON(t *testing.T) {
	mockLLM := &MockLLMModel{mockResponse: "```json\n" + `{"entities":[
		{"label":"person","text":"Jane Doe"},
		{"label":"EMAIL","text":"jane@example.com"},
		{"label":"ORG","text":"Stanford University"},
		{"label":"DATE","text":"2016-2020"},
		{"label":"ORG","text":"Jane Doe Consulting"},
		{"label":"GPE","text":"Palo Alto"}
	]}` + "\n```"}

	r, err := NewLLMEntityRecognizer(mockLLM)
	require.NoError(t, err)

	entities, err := r.Recognize(context.Background(), llmResumeText)
	require.NoError(t, err)
	require.Len(t, entities, 6)

	assert.Equal(t, types.Entity{Label: types.LabelPerson, Text: "Jane Doe", Start: 0}, entities[0])
	assert.Equal(t, types.LabelEmail, entities[1].Label)
	assert.Equal(t, strings.Index(llmResumeText, "jane@example.com"), entities[1].Start)
	// 从上一个实体之后继续查找
	assert.Equal(t, strings.Index(llmResumeText, "Jane Doe Consulting"), entities[4].Start)
	// 原文中不存在的实体偏移未知
	assert.Equal(t, types.UnknownOffset, entities[5].Start)

	require.Len(t, mockLLM.lastMessages, 2)
	assert.Equal(t, schema.System, mockLLM.lastMessages[0].Role)
	assert.Contains(t, mockLLM.lastMessages[1].Content, llmResumeText)
}

func TestLLMEntityRecognizer_RepairsUnescapedQuotes(t *testing.T) {
	mockLLM := &MockLLMModel{mockResponse: "\uFEFF" + `{"entities":[{"label":"ORG","text":"The "Best" Company"}]}`}
	r, err := NewLLMEntityRecognizer(mockLLM)
	require.NoError(t, err)

	entities, err := r.Recognize(context.Background(), `Worked at The "Best" Company`)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, `The "Best" Company`, entities[0].Text)
	assert.Equal(t, 10, entities[0].Start)
}

func TestLLMEntityRecognizer_SkipsBlankEntries(t *testing.T) {
	mockLLM := &MockLLMModel{mockResponse: `{"entities":[{"label":"","text":"x"},{"label":"DATE","text":"  "},{"label":"DATE","text":"2021"}]}`}
	r, _ := NewLLMEntityRecognizer(mockLLM)

	entities, err := r.Recognize(context.Background(), "since 2021")
	require.NoError(t, err)
	assert.Equal(t, []types.Entity{{Label: types.LabelDate, Text: "2021", Start: 6}}, entities)
}

func TestLLMEntityRecognizer_Errors(t *testing.T) {
	_, err := NewLLMEntityRecognizer(nil)
	assert.Error(t, err)

	cases := map[string]*MockLLMModel{
		"llm error":   {err: errors.New("quota exceeded")},
		"empty reply": {mockResponse: ""},
		"no json":     {mockResponse: "I could not find any entities."},
		"broken json": {mockResponse: `{"entities":[{"label":"PERSON","text":}]}`},
	}
	for name, mockLLM := range cases {
		t.Run(name, func(t *testing.T) {
			r, err := NewLLMEntityRecognizer(mockLLM)
			require.NoError(t, err)
			_, err = r.Recognize(context.Background(), "some resume text")
			assert.Error(t, err)
		})
	}
}

func TestLLMEntityRecognizer_BlankTextSkipsModel(t *testing.T) {
	mockLLM := &MockLLMModel{mockResponse: `{"entities":[]}`}
	r, _ := NewLLMEntityRecognizer(mockLLM)

	entities, err := r.Recognize(context.Background(), "  \n ")
	require.NoError(t, err)
	assert.Empty(t, entities)
	assert.Equal(t, 0, mockLLM.callCount)
}

func TestLLMEntityRecognizer_TruncatesInput(t *testing.T) {
	mockLLM := &MockLLMModel{mockResponse: `{"entities":[]}`}
	r, _ := NewLLMEntityRecognizer(mockLLM, WithMaxInputRunes(5), WithEntityPromptTemplate("TEXT<%s>"))

	_, err := r.Recognize(context.Background(), "简历文本很长很长")
	require.NoError(t, err)
	assert.Equal(t, "TEXT<简历文本很>", mockLLM.lastMessages[1].Content)
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a":{"b":"}"}}`, extractJSONObject(`prefix {"a":{"b":"}"}} suffix {"c":1}`))
	assert.Equal(t, "", extractJSONObject("no braces"))
	assert.Equal(t, "", extractJSONObject(`{"unterminated":`))
}
