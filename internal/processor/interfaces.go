package processor

import (
	"context"

	"github.com/cloudwego/eino/components/embedding"

	"resume-ranker/internal/types"
)

//
// 排序流水线的能力接口，具体实现位于 parser 与 storage 包
//

// TextExtractor 从上传文件中提取纯文本
type TextExtractor interface {
	// Extract 根据文件名选择解析方式，返回纯文本
	Extract(ctx context.Context, filename string, data []byte) (string, error)
}

// Embedder 把一段文本映射为定长向量。同一模型对同一输入的结果必须确定。
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// EntityRecognizer 命名实体识别
type EntityRecognizer interface {
	// Recognize 返回按原文顺序排列的实体
	Recognize(ctx context.Context, text string) ([]types.Entity, error)
}

// TextEmbedder 是 eino 的批量向量接口
type TextEmbedder interface {
	EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error)
}

//
// 旁路组件：失败只记日志，不影响排序结果
//

// VectorCache 向量缓存
type VectorCache interface {
	GetVector(ctx context.Context, model, text string) ([]float64, bool, error)
	SetVector(ctx context.Context, model, text string, vector []float64) error
}

// ResumeArchiver 归档原始上传文件
type ResumeArchiver interface {
	ArchiveResume(ctx context.Context, runID string, index int, upload types.ResumeUpload) error
}

// RunRecorder 持久化一次排序的结果
type RunRecorder interface {
	SaveRun(ctx context.Context, run *types.RankingRun) error
}

// RunPublisher 对外发布排序完成事件
type RunPublisher interface {
	PublishRunCompleted(ctx context.Context, run *types.RankingRun) error
}
