package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"

	"resume-ranker/internal/types"
)

// ProseRecognizer 使用 prose 自带的统计模型做命名实体识别，模型只输出 PERSON 和 GPE
type ProseRecognizer struct{}

// NewProseRecognizer 模型随库加载，构造本身没有开销
func NewProseRecognizer() *ProseRecognizer {
	return &ProseRecognizer{}
}

// Recognize 实现 processor.EntityRecognizer。
// prose 不返回偏移量，这里按出现顺序在原文中回查；查不到的记为 UnknownOffset。
func (p *ProseRecognizer) Recognize(ctx context.Context, text string) ([]types.Entity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
	)
	if err != nil {
		return nil, fmt.Errorf("prose 解析失败: %w", err)
	}

	ents := doc.Entities()
	entities := make([]types.Entity, 0, len(ents))
	cursor := 0
	for _, ent := range ents {
		start := types.UnknownOffset
		if idx := strings.Index(text[cursor:], ent.Text); idx >= 0 {
			start = cursor + idx
			cursor = start + len(ent.Text)
		}
		label := types.EntityLabel(strings.ToUpper(ent.Label))
		// 内置模型只有 PERSON 和 GPE，学校和公司名常被标成 PERSON
		if label == types.LabelPerson && IsOrgName(ent.Text) {
			label = types.LabelOrg
		}
		entities = append(entities, types.Entity{
			Label: label,
			Text:  ent.Text,
			Start: start,
		})
	}
	return entities, nil
}
