// Package report 把排序结果整理成面向用户的展示条目，网页和命令行共用
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"resume-ranker/internal/types"
)

const (
	// UnknownName 未识别到姓名时的占位
	UnknownName = "Unknown"
	// NotAvailable 其他字段缺失时的占位
	NotAvailable = "N/A"
)

// Entry 排名列表中的一行
type Entry struct {
	Rank       int    `json:"rank"` // 从 1 开始
	Filename   string `json:"filename"`
	Name       string `json:"name"`
	Score      string `json:"score"` // 百分比，保留两位小数，不带 % 号
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Education  string `json:"education"`
	Experience string `json:"experience"`
}

// Entries 按排序顺序生成展示条目
func Entries(results []types.RankedResume) []Entry {
	entries := make([]Entry, 0, len(results))
	for i, r := range results {
		entries = append(entries, Entry{
			Rank:       i + 1,
			Filename:   r.Filename,
			Name:       orDefault(r.Details.Name, UnknownName),
			Score:      FormatScore(r.Score),
			Email:      orDefault(r.Details.Email, NotAvailable),
			Phone:      orDefault(r.Details.Phone, NotAvailable),
			Education:  orDefault(r.Details.Education, NotAvailable),
			Experience: orDefault(r.Details.Experience, NotAvailable),
		})
	}
	return entries
}

// FormatScore 把 [-1,1] 的相似度转成百分数，四舍五入到两位小数。
// 整数结果保留一位小数，例如 0.5 -> "50.0"。
func FormatScore(score float64) string {
	pct := math.Round(score*10000) / 100
	if pct == 0 {
		pct = 0 // 去掉 -0
	}
	s := strconv.FormatFloat(pct, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// WriteText 输出纯文本排名报告，最后一行是多样性检查结果
func WriteText(w io.Writer, run *types.RankingRun) error {
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}
	for _, e := range Entries(run.Results) {
		if _, err := fmt.Fprintf(w,
			"Rank %d: %s\nScore: %s%% match\nEmail: %s\nPhone: %s\nEducation: %s\nExperience: %s\n\n",
			e.Rank, e.Name, e.Score, e.Email, e.Phone, e.Education, e.Experience); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, run.DiversityMessage)
	return err
}
