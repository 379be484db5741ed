package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-ranker/internal/types"
)

type fixedRecognizer struct {
	entities []types.Entity
	err      error
}

func (f fixedRecognizer) Recognize(context.Context, string) ([]types.Entity, error) {
	return f.entities, f.err
}

func TestCompositeRecognizer_MergesByOffset(t *testing.T) {
	pattern := fixedRecognizer{entities: []types.Entity{
		{Label: types.LabelEmail, Text: "a@b.co", Start: 10},
		{Label: types.LabelDate, Text: "2020", Start: 40},
	}}
	model := fixedRecognizer{entities: []types.Entity{
		{Label: types.LabelPerson, Text: "Ann", Start: 0},
		{Label: types.LabelGPE, Text: "Mars", Start: types.UnknownOffset},
		{Label: types.LabelOrg, Text: "2020 Inc", Start: 40},
	}}

	c, err := NewCompositeRecognizer(pattern, nil, model)
	require.NoError(t, err)

	entities, err := c.Recognize(context.Background(), "ignored")
	require.NoError(t, err)

	var texts []string
	for _, e := range entities {
		texts = append(texts, e.Text)
	}
	// 偏移相同保持识别器顺序，未知偏移排最后
	assert.Equal(t, []string{"Ann", "a@b.co", "2020", "2020 Inc", "Mars"}, texts)
}

func TestCompositeRecognizer_Errors(t *testing.T) {
	_, err := NewCompositeRecognizer()
	assert.Error(t, err)
	_, err = NewCompositeRecognizer(nil)
	assert.Error(t, err)

	boom := errors.New("model not loaded")
	c, err := NewCompositeRecognizer(fixedRecognizer{}, fixedRecognizer{err: boom})
	require.NoError(t, err)
	_, err = c.Recognize(context.Background(), "text")
	assert.ErrorIs(t, err, boom)
}
