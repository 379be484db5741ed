package processor

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-ranker/internal/logger"
	"resume-ranker/internal/tracing"
	"resume-ranker/internal/types"
)

var tracer = otel.Tracer("processor")

// Ranker 按岗位描述对一批简历打分排序。组件在启动时注入，可被多个请求共享。
type Ranker struct {
	extractor  TextExtractor
	embedder   Embedder
	recognizer EntityRecognizer
	logger     zerolog.Logger
}

// NewRanker 三个组件缺一不可
func NewRanker(components *Components, opts ...SettingOpt) (*Ranker, error) {
	if components == nil || components.Extractor == nil || components.Embedder == nil || components.Recognizer == nil {
		return nil, errors.New("ranker requires extractor, embedder and recognizer")
	}
	settings := &Settings{Logger: logger.Logger}
	for _, opt := range opts {
		opt(settings)
	}
	return &Ranker{
		extractor:  components.Extractor,
		embedder:   components.Embedder,
		recognizer: components.Recognizer,
		logger:     settings.Logger.With().Str("component", "ranker").Logger(),
	}, nil
}

// Rank 岗位描述只向量化一次；简历按上传顺序逐份处理：
// 提取文本、向量化、计算相似度、识别实体、抽取字段。
// 结果按分数降序稳定排序，分数相同的保持上传顺序。任一简历失败则整批失败。
func (r *Ranker) Rank(ctx context.Context, uploads []types.ResumeUpload, jobDescription string) ([]types.RankedResume, error) {
	if len(uploads) == 0 || jobDescription == "" {
		return nil, ErrMissingInput
	}

	ctx, span := tracer.Start(ctx, "RankResumes",
		trace.WithAttributes(
			attribute.Int("ranking.resume_count", len(uploads)),
			attribute.String("ranking.job_description", tracing.SafeJobDescription(jobDescription)),
		))
	defer span.End()
	startTime := time.Now()

	// 空白岗位描述不送去向量化，所有简历记 0 分
	var jdVector []float64
	if strings.TrimSpace(jobDescription) != "" {
		var err error
		jdVector, err = r.embedder.Embed(ctx, jobDescription)
		if err != nil {
			rankErr := newEmbedError("", err)
			tracing.RecordError(span, rankErr, tracing.ErrorTypeEmbedding)
			return nil, rankErr
		}
	}

	results := make([]types.RankedResume, 0, len(uploads))
	for _, upload := range uploads {
		if err := ctx.Err(); err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeInternal)
			return nil, err
		}
		ranked, err := r.rankOne(ctx, upload, jdVector)
		if err != nil {
			r.logger.Error().Err(err).Str("filename", upload.Filename).Msg("简历处理失败，终止本次排序")
			return nil, err
		}
		results = append(results, ranked)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	r.logger.Info().
		Int("resumes", len(results)).
		Dur("duration", time.Since(startTime)).
		Msg("排序完成")
	return results, nil
}

func (r *Ranker) rankOne(ctx context.Context, upload types.ResumeUpload, jdVector []float64) (types.RankedResume, error) {
	ctx, span := tracer.Start(ctx, "RankResume",
		trace.WithAttributes(
			attribute.String("resume.filename", tracing.SafeFilename(upload.Filename)),
			attribute.Int("resume.size_bytes", len(upload.Data)),
		))
	defer span.End()

	text, err := r.extractor.Extract(ctx, upload.Filename, upload.Data)
	if err != nil {
		rankErr := newExtractError(upload.Filename, err)
		tracing.RecordError(span, rankErr, tracing.ErrorTypeExtraction)
		return types.RankedResume{}, rankErr
	}
	span.SetAttributes(attribute.Int("resume.text_length", len(text)))

	score, err := r.score(ctx, span, upload.Filename, text, jdVector)
	if err != nil {
		return types.RankedResume{}, err
	}
	span.SetAttributes(attribute.Float64("resume.score", score))

	entities, err := r.recognizer.Recognize(ctx, text)
	if err != nil {
		rankErr := newRecognizeError(upload.Filename, err)
		tracing.RecordError(span, rankErr, tracing.ErrorTypeRecognition)
		return types.RankedResume{}, rankErr
	}

	r.logger.Debug().
		Str("filename", upload.Filename).
		Int("text_length", len(text)).
		Int("entities", len(entities)).
		Float64("score", score).
		Msg("简历处理完成")

	details := ExtractResumeDetails(entities)
	span.SetAttributes(
		attribute.Int("resume.entity_count", len(entities)),
		attribute.String("resume.candidate_name", tracing.SafeAttributeValue("name", details.Name, tracing.DefaultMaxLength)),
	)

	return types.RankedResume{
		Filename: upload.Filename,
		Details:  details,
		Score:    score,
	}, nil
}

// score 没有文本层的扫描件会提取出空文本，OpenAI 兼容接口拒绝空输入，
// 这类简历不向量化，直接记 0 分，字段照常抽取
func (r *Ranker) score(ctx context.Context, span trace.Span, filename, text string, jdVector []float64) (float64, error) {
	if jdVector == nil || strings.TrimSpace(text) == "" {
		r.logger.Warn().Str("filename", filename).Msg("简历或岗位描述没有文本，相似度记为 0")
		span.SetAttributes(attribute.Bool("resume.blank_text", true))
		return 0, nil
	}

	vec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		rankErr := newEmbedError(filename, err)
		tracing.RecordError(span, rankErr, tracing.ErrorTypeEmbedding)
		return 0, rankErr
	}

	score, err := CosineSimilarity(vec, jdVector)
	if err != nil {
		rankErr := newScoreError(filename, err)
		tracing.RecordError(span, rankErr, tracing.ErrorTypeEmbedding)
		return 0, rankErr
	}
	return score, nil
}
