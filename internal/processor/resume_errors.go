package processor

import (
	"errors"
	"fmt"
)

// MissingInputMessage 缺少简历或岗位描述时展示给用户的固定提示
const MissingInputMessage = "Please upload resumes and enter a job description!"

// 定义基础错误类型
var (
	ErrMissingInput      = errors.New(MissingInputMessage)
	ErrDimensionMismatch = errors.New("向量维度不一致")
	ErrExtractFailed     = errors.New("提取简历文本失败")
	ErrEmbedFailed       = errors.New("生成文本向量失败")
	ErrRecognizeFailed   = errors.New("实体识别失败")
)

// 流水线阶段名
const (
	StageExtract   = "extract"
	StageEmbed     = "embed"
	StageScore     = "score"
	StageRecognize = "recognize"
)

// RankError 排序过程中某一份简历的失败，整批排序随之终止
type RankError struct {
	Filename string
	Stage    string
	BaseErr  error
	Err      error
}

func (e *RankError) Error() string {
	if e.Filename == "" {
		return fmt.Sprintf("%s (阶段:%s): %v", e.BaseErr, e.Stage, e.Err)
	}
	return fmt.Sprintf("%s (阶段:%s, 文件:%s): %v", e.BaseErr, e.Stage, e.Filename, e.Err)
}

// Unwrap 同时暴露阶段错误和底层错误
func (e *RankError) Unwrap() []error {
	return []error{e.BaseErr, e.Err}
}

// 错误构造函数

func newExtractError(filename string, err error) error {
	return &RankError{Filename: filename, Stage: StageExtract, BaseErr: ErrExtractFailed, Err: err}
}

func newEmbedError(filename string, err error) error {
	return &RankError{Filename: filename, Stage: StageEmbed, BaseErr: ErrEmbedFailed, Err: err}
}

func newScoreError(filename string, err error) error {
	return &RankError{Filename: filename, Stage: StageScore, BaseErr: ErrEmbedFailed, Err: err}
}

func newRecognizeError(filename string, err error) error {
	return &RankError{Filename: filename, Stage: StageRecognize, BaseErr: ErrRecognizeFailed, Err: err}
}
