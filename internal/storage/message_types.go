package storage

import (
	"time"

	"resume-ranker/internal/tracing"
	"resume-ranker/internal/types"
)

// topCandidateLimit 完成事件中携带的候选人数量上限
const topCandidateLimit = 5

// RunCompletedMessage 排序完成事件
type RunCompletedMessage struct {
	RunID            string          `json:"run_id"`
	JobDescription   string          `json:"job_description"` // 截断后的岗位描述
	ResumeCount      int             `json:"resume_count"`
	TopCandidates    []CandidateHint `json:"top_candidates"`
	DiversityMessage string          `json:"diversity_message"`
	CompletedAt      time.Time       `json:"completed_at"`
}

// CandidateHint 事件中的候选人摘要，不含联系方式
type CandidateHint struct {
	Rank     int     `json:"rank"`
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
}

// NewRunCompletedMessage 从排序结果生成完成事件
func NewRunCompletedMessage(run *types.RankingRun) RunCompletedMessage {
	msg := RunCompletedMessage{
		RunID:            run.ID,
		JobDescription:   tracing.SafeJobDescription(run.JobDescription),
		ResumeCount:      len(run.Results),
		DiversityMessage: run.DiversityMessage,
		CompletedAt:      run.CreatedAt,
	}
	n := len(run.Results)
	if n > topCandidateLimit {
		n = topCandidateLimit
	}
	msg.TopCandidates = make([]CandidateHint, 0, n)
	for i := 0; i < n; i++ {
		r := run.Results[i]
		msg.TopCandidates = append(msg.TopCandidates, CandidateHint{Rank: i + 1, Filename: r.Filename, Score: r.Score})
	}
	return msg
}
