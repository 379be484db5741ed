package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-ranker/internal/types"
)

func TestFormatScore(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0.87354, "87.35"},
		{0.5, "50.0"},
		{1, "100.0"},
		{0.123456, "12.35"},
		{0, "0.0"},
		{-0.00001, "0.0"},
		{-0.25, "-25.0"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatScore(tc.score), "score=%v", tc.score)
	}
}

func TestEntries_FallbacksAndRanks(t *testing.T) {
	results := []types.RankedResume{
		{Filename: "a.pdf", Score: 0.9, Details: types.ResumeDetails{Name: "Alice", Email: "alice@example.com"}},
		{Filename: "b.png", Score: 0.4},
	}

	entries := Entries(results)
	require.Len(t, entries, 2)

	assert.Equal(t, Entry{
		Rank: 1, Filename: "a.pdf", Name: "Alice", Score: "90.0",
		Email: "alice@example.com", Phone: NotAvailable, Education: NotAvailable, Experience: NotAvailable,
	}, entries[0])
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, UnknownName, entries[1].Name)
	assert.Equal(t, NotAvailable, entries[1].Email)
}

func TestWriteText(t *testing.T) {
	run := &types.RankingRun{
		Results: []types.RankedResume{
			{Filename: "a.pdf", Score: 0.8123, Details: types.ResumeDetails{Name: "Alice", Education: "MIT"}},
		},
		DiversityMessage: "✅ Ranking appears fair and unbiased.",
	}

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, run))
	assert.Equal(t, "Rank 1: Alice\n"+
		"Score: 81.23% match\n"+
		"Email: N/A\n"+
		"Phone: N/A\n"+
		"Education: MIT\n"+
		"Experience: N/A\n\n"+
		"✅ Ranking appears fair and unbiased.\n", buf.String())

	assert.Error(t, WriteText(&buf, nil))
}
