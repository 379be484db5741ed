package parser

import (
	"context"
	"errors"
	"sort"

	"resume-ranker/internal/types"
)

// Recognizer 与 processor.EntityRecognizer 相同，在此重复声明以避免循环依赖
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]types.Entity, error)
}

// CompositeRecognizer 依次调用多个识别器，把结果按原文偏移合并。
// 偏移相同的实体保持识别器的先后顺序，偏移未知的排在最后。
type CompositeRecognizer struct {
	recognizers []Recognizer
}

// NewCompositeRecognizer 至少需要一个识别器
func NewCompositeRecognizer(recognizers ...Recognizer) (*CompositeRecognizer, error) {
	var rs []Recognizer
	for _, r := range recognizers {
		if r != nil {
			rs = append(rs, r)
		}
	}
	if len(rs) == 0 {
		return nil, errors.New("至少需要一个实体识别器")
	}
	return &CompositeRecognizer{recognizers: rs}, nil
}

// Recognize 任一识别器失败即返回错误
func (c *CompositeRecognizer) Recognize(ctx context.Context, text string) ([]types.Entity, error) {
	var merged []types.Entity
	for _, r := range c.recognizers {
		ents, err := r.Recognize(ctx, text)
		if err != nil {
			return nil, err
		}
		merged = append(merged, ents...)
	}
	SortEntities(merged)
	return merged, nil
}

// SortEntities 按 Start 稳定排序，UnknownOffset 排在末尾
func SortEntities(entities []types.Entity) {
	sort.SliceStable(entities, func(i, j int) bool {
		a, b := entities[i].Start, entities[j].Start
		if a < 0 {
			return false
		}
		if b < 0 {
			return true
		}
		return a < b
	})
}
