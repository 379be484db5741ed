package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/model"
	einoschema "github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"resume-ranker/internal/logger"
	"resume-ranker/internal/types"
)

const defaultEntityPrompt = `Extract named entities from the resume text below.
Use only these labels: PERSON, EMAIL, PHONE, ORG, WORK_OF_ART, DATE, GPE.
Return the entities in the order they appear, copying each span exactly as written.
Respond with JSON only, no markdown, in the form:
{"entities":[{"label":"PERSON","text":"Jane Doe"}]}

Resume text:
%s`

const entitySystemMessage = "You are a precise named-entity recognizer for resumes. You never invent text that is not in the input."

// LLMEntityRecognizer 通过聊天模型做命名实体识别，输出 OntoNotes 标签体系
type LLMEntityRecognizer struct {
	llmModel       model.BaseChatModel
	promptTemplate string
	maxInputRunes  int
	logger         zerolog.Logger
}

// LLMEntityRecognizerOption 配置选项
type LLMEntityRecognizerOption func(*LLMEntityRecognizer)

// WithEntityPromptTemplate 自定义提示词，模板中需要包含一个 %s 占位符
func WithEntityPromptTemplate(template string) LLMEntityRecognizerOption {
	return func(r *LLMEntityRecognizer) {
		if template != "" {
			r.promptTemplate = template
		}
	}
}

// WithMaxInputRunes 截断过长的简历文本，0 表示不截断
func WithMaxInputRunes(n int) LLMEntityRecognizerOption {
	return func(r *LLMEntityRecognizer) {
		r.maxInputRunes = n
	}
}

// NewLLMEntityRecognizer 创建基于LLM的识别器
func NewLLMEntityRecognizer(llmModel model.BaseChatModel, options ...LLMEntityRecognizerOption) (*LLMEntityRecognizer, error) {
	if llmModel == nil {
		return nil, fmt.Errorf("LLMEntityRecognizer: llmModel is nil")
	}
	r := &LLMEntityRecognizer{
		llmModel:       llmModel,
		promptTemplate: defaultEntityPrompt,
		maxInputRunes:  12000,
		logger:         logger.Logger.With().Str("component", "llm_ner").Logger(),
	}
	for _, opt := range options {
		opt(r)
	}
	return r, nil
}

type llmEntityResponse struct {
	Entities []struct {
		Label string `json:"label"`
		Text  string `json:"text"`
	} `json:"entities"`
}

// Recognize 实现 processor.EntityRecognizer
func (r *LLMEntityRecognizer) Recognize(ctx context.Context, text string) ([]types.Entity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	input := text
	if r.maxInputRunes > 0 && utf8.RuneCountInString(input) > r.maxInputRunes {
		input = string([]rune(input)[:r.maxInputRunes])
	}

	messages := []*einoschema.Message{
		einoschema.SystemMessage(entitySystemMessage),
		einoschema.UserMessage(fmt.Sprintf(r.promptTemplate, input)),
	}

	response, err := r.llmModel.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("LLMEntityRecognizer: LLM call failed: %w", err)
	}
	if response == nil || response.Content == "" {
		return nil, fmt.Errorf("LLMEntityRecognizer: LLM returned empty response")
	}

	jsonStr := extractJSONObject(strings.TrimPrefix(response.Content, "\uFEFF"))
	if jsonStr == "" {
		return nil, fmt.Errorf("LLMEntityRecognizer: no JSON object in response: %s", truncate(response.Content, 200))
	}
	if !utf8.ValidString(jsonStr) {
		jsonStr = strings.ToValidUTF8(jsonStr, "")
	}

	var parsed llmEntityResponse
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		if jsonErr := json.Unmarshal([]byte(sanitizeJSON(jsonStr)), &parsed); jsonErr != nil {
			return nil, fmt.Errorf("LLMEntityRecognizer: failed to unmarshal response: %w", err)
		}
	}

	entities := make([]types.Entity, 0, len(parsed.Entities))
	cursor := 0
	for _, e := range parsed.Entities {
		span := strings.TrimSpace(e.Text)
		label := types.EntityLabel(strings.ToUpper(strings.TrimSpace(e.Label)))
		if span == "" || label == "" {
			continue
		}
		start := types.UnknownOffset
		if idx := strings.Index(text[cursor:], span); idx >= 0 {
			start = cursor + idx
			cursor = start + len(span)
		} else if idx := strings.Index(text, span); idx >= 0 {
			start = idx
		}
		entities = append(entities, types.Entity{Label: label, Text: span, Start: start})
	}

	r.logger.Debug().Int("entities", len(entities)).Msg("LLM实体识别完成")
	return entities, nil
}

// extractJSONObject 取出文本中第一个括号配平的 JSON 对象，兼容 ```json 包裹
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	level := 0
	inStr := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inStr:
			escaped = true
		case c == '"':
			inStr = !inStr
		case c == '{' && !inStr:
			level++
		case c == '}' && !inStr:
			level--
			if level == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// sanitizeJSON 把字符串字面量内部未转义的双引号改写为 \"。
// 判断依据是下一个非空白字符是否为 : , ] } 之一。
func sanitizeJSON(src string) string {
	var b strings.Builder
	inStr := false
	escaped := false

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '"' && !escaped:
			if !inStr {
				inStr = true
				b.WriteByte(c)
				break
			}
			j := i + 1
			for j < len(src) && (src[j] == ' ' || src[j] == '\t' || src[j] == '\n' || src[j] == '\r') {
				j++
			}
			if j >= len(src) || src[j] == ':' || src[j] == ',' || src[j] == ']' || src[j] == '}' {
				inStr = false
				b.WriteByte(c)
			} else {
				b.WriteString("\\\"")
			}
		case c == '\\' && !escaped:
			escaped = true
			b.WriteByte(c)
			continue
		default:
			b.WriteByte(c)
		}
		escaped = false
	}
	return b.String()
}
