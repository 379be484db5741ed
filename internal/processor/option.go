package processor

import (
	"math/rand"

	"github.com/rs/zerolog"
)

// Components 排序流水线依赖的组件
type Components struct {
	Extractor  TextExtractor
	Embedder   Embedder
	Recognizer EntityRecognizer
}

// SideChannels 排序完成后的旁路组件，均可为空
type SideChannels struct {
	Archiver  ResumeArchiver
	Recorder  RunRecorder
	Publisher RunPublisher
}

// Settings 服务设置
type Settings struct {
	Logger zerolog.Logger
	Rand   *rand.Rand // 多样性检查使用的随机源，为空时按时间播种
}

// ComponentOpt 组件选项类型，仅改变 Components 结构体内的字段
type ComponentOpt func(*Components)

// SideChannelOpt 旁路组件选项
type SideChannelOpt func(*SideChannels)

// SettingOpt 设置选项类型，仅改变 Settings 结构体内的字段
type SettingOpt func(*Settings)

// NewComponents 依次应用组件选项
func NewComponents(opts ...ComponentOpt) *Components {
	c := &Components{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithExtractor 设置文本提取器
func WithExtractor(e TextExtractor) ComponentOpt {
	return func(c *Components) {
		c.Extractor = e
	}
}

// WithEmbedder 设置向量生成器
func WithEmbedder(e Embedder) ComponentOpt {
	return func(c *Components) {
		c.Embedder = e
	}
}

// WithRecognizer 设置实体识别器
func WithRecognizer(r EntityRecognizer) ComponentOpt {
	return func(c *Components) {
		c.Recognizer = r
	}
}

// WithArchiver 设置简历归档
func WithArchiver(a ResumeArchiver) SideChannelOpt {
	return func(s *SideChannels) {
		s.Archiver = a
	}
}

// WithRecorder 设置结果持久化
func WithRecorder(r RunRecorder) SideChannelOpt {
	return func(s *SideChannels) {
		s.Recorder = r
	}
}

// WithPublisher 设置事件发布
func WithPublisher(p RunPublisher) SideChannelOpt {
	return func(s *SideChannels) {
		s.Publisher = p
	}
}

// WithLogger 设置日志记录器
func WithLogger(l zerolog.Logger) SettingOpt {
	return func(s *Settings) {
		s.Logger = l
	}
}

// WithRand 设置随机源，测试时用于固定多样性检查结果
func WithRand(r *rand.Rand) SettingOpt {
	return func(s *Settings) {
		s.Rand = r
	}
}
