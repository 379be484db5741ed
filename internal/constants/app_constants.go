package constants

import "time"

const (
	// ServiceName 服务名称，用于日志与链路追踪
	ServiceName = "resume-ranker"
	// Version 当前版本
	Version = "1.0.0"

	// DefaultEmbeddingModel 默认句向量模型
	DefaultEmbeddingModel = "all-MiniLM-L6-v2"
	// DefaultEmbeddingCacheTTL 向量缓存默认过期时间
	DefaultEmbeddingCacheTTL = 7 * 24 * time.Hour

	// ResumesFormField 上传简历的表单字段名
	ResumesFormField = "resumes"
	// JobDescriptionFormField 岗位描述的表单字段名
	JobDescriptionFormField = "job_description"

	// RankingCompletedRoutingKey 排序完成事件的路由键
	RankingCompletedRoutingKey = "ranking.completed"
)
