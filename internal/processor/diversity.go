package processor

import (
	"math/rand"
	"sync"
	"time"

	"resume-ranker/internal/types"
)

const (
	// BiasWarningMessage 提示可能存在偏差
	BiasWarningMessage = "⚠️ Potential bias detected in ranking! Consider reviewing candidate selection."
	// FairRankingMessage 提示排序看起来公平
	FairRankingMessage = "✅ Ranking appears fair and unbiased."

	diversityThreshold = 0.7
)

// DiversityChecker 多样性检查的占位实现：不分析排序内容，只做一次随机抽样。
// 抽样值服从 [0.5, 1.0) 上的均匀分布，小于 0.7 时给出偏差警告。
type DiversityChecker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewDiversityChecker rng 为空时使用按时间播种的随机源
func NewDiversityChecker(rng *rand.Rand) *DiversityChecker {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &DiversityChecker{rng: rng}
}

// Check 返回两条固定消息之一
func (d *DiversityChecker) Check(_ []types.RankedResume) string {
	d.mu.Lock()
	score := 0.5 + d.rng.Float64()*0.5
	d.mu.Unlock()

	if score < diversityThreshold {
		return BiasWarningMessage
	}
	return FairRankingMessage
}
