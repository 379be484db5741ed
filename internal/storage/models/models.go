package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"resume-ranker/internal/types"
)

// RankingRun 一次排序请求
type RankingRun struct {
	RunID            string            `gorm:"type:char(36);primaryKey"`
	JobDescription   string            `gorm:"type:text;not null"`
	DiversityMessage string            `gorm:"type:varchar(255)"`
	ResumeCount      int               `gorm:"type:int;not null"`
	CreatedAt        time.Time         `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);index:idx_runs_created_at"`
	Candidates       []RankedCandidate `gorm:"foreignKey:RunID;references:RunID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (RankingRun) TableName() string {
	return "ranking_runs"
}

// RankedCandidate 排序结果中的一份简历
type RankedCandidate struct {
	ID          uint64         `gorm:"primaryKey;autoIncrement"`
	RunID       string         `gorm:"type:char(36);not null;uniqueIndex:idx_rc_run_position"`
	Position    int            `gorm:"not null;uniqueIndex:idx_rc_run_position"` // 从 1 开始的名次
	Filename    string         `gorm:"type:varchar(255)"`
	Score       float64        `gorm:"not null"`
	DetailsJSON datatypes.JSON `gorm:"type:json"`
	CreatedAt   time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
}

func (RankedCandidate) TableName() string {
	return "ranked_candidates"
}

// NewRankingRun 把领域对象转换为数据库行
func NewRankingRun(run *types.RankingRun) (*RankingRun, error) {
	row := &RankingRun{
		RunID:            run.ID,
		JobDescription:   run.JobDescription,
		DiversityMessage: run.DiversityMessage,
		ResumeCount:      len(run.Results),
		CreatedAt:        run.CreatedAt,
		Candidates:       make([]RankedCandidate, 0, len(run.Results)),
	}
	for i, r := range run.Results {
		details, err := json.Marshal(r.Details)
		if err != nil {
			return nil, err
		}
		row.Candidates = append(row.Candidates, RankedCandidate{
			RunID:       run.ID,
			Position:    i + 1,
			Filename:    r.Filename,
			Score:       r.Score,
			DetailsJSON: datatypes.JSON(details),
		})
	}
	return row, nil
}

// ToDomain 转换回领域对象，候选人须已按名次排序
func (r *RankingRun) ToDomain() (*types.RankingRun, error) {
	run := &types.RankingRun{
		ID:               r.RunID,
		JobDescription:   r.JobDescription,
		DiversityMessage: r.DiversityMessage,
		CreatedAt:        r.CreatedAt.UTC(),
		Results:          make([]types.RankedResume, 0, len(r.Candidates)),
	}
	for _, c := range r.Candidates {
		var details types.ResumeDetails
		if len(c.DetailsJSON) > 0 {
			if err := json.Unmarshal(c.DetailsJSON, &details); err != nil {
				return nil, err
			}
		}
		run.Results = append(run.Results, types.RankedResume{
			Filename: c.Filename,
			Details:  details,
			Score:    c.Score,
		})
	}
	return run, nil
}
