package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-ranker/internal/types"
)

func TestRankingRun_RoundTripKeepsOrder(t *testing.T) {
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	run := &types.RankingRun{
		ID:               "0190b9d4-8c2e-7a3b-9f00-000000000001",
		JobDescription:   "Go developer",
		DiversityMessage: "Fair ranking",
		CreatedAt:        created,
		Results: []types.RankedResume{
			{Filename: "b.pdf", Score: 0.9, Details: types.ResumeDetails{Name: "Bob", Email: "bob@example.com"}},
			{Filename: "a.pdf", Score: 0.4},
		},
	}

	row, err := NewRankingRun(run)
	require.NoError(t, err)
	assert.Equal(t, 2, row.ResumeCount)
	require.Len(t, row.Candidates, 2)
	assert.Equal(t, 1, row.Candidates[0].Position)
	assert.Equal(t, 2, row.Candidates[1].Position)
	assert.Equal(t, run.ID, row.Candidates[1].RunID)

	back, err := row.ToDomain()
	require.NoError(t, err)
	assert.Equal(t, run, back)
}
