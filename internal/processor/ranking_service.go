package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-ranker/internal/logger"
	"resume-ranker/internal/tracing"
	"resume-ranker/internal/types"
)

var (
	// ErrRunNotFound 历史记录中没有该排序
	ErrRunNotFound = errors.New("排序记录不存在")
	// ErrHistoryDisabled 未配置历史记录存储
	ErrHistoryDisabled = errors.New("未启用排序历史记录")
)

// RunReader 读取已保存的排序结果
type RunReader interface {
	GetRun(ctx context.Context, runID string) (*types.RankingRun, error)
}

// RankingService 一次"分析"请求的完整流程：校验输入、排序、多样性检查，
// 以及归档、持久化、事件发布等旁路动作。
type RankingService struct {
	ranker    *Ranker
	diversity *DiversityChecker
	side      SideChannels
	reader    RunReader
	logger    zerolog.Logger
	now       func() time.Time
}

// NewRankingService 创建服务。reader 为空时不支持查询历史。
func NewRankingService(ranker *Ranker, reader RunReader, sideOpts []SideChannelOpt, opts ...SettingOpt) (*RankingService, error) {
	if ranker == nil {
		return nil, errors.New("ranker cannot be nil")
	}
	settings := &Settings{Logger: logger.Logger}
	for _, opt := range opts {
		opt(settings)
	}
	var side SideChannels
	for _, opt := range sideOpts {
		opt(&side)
	}
	return &RankingService{
		ranker:    ranker,
		diversity: NewDiversityChecker(settings.Rand),
		side:      side,
		reader:    reader,
		logger:    settings.Logger.With().Str("component", "ranking_service").Logger(),
		now:       time.Now,
	}, nil
}

// ValidateInput 没有简历或岗位描述为空时返回 ErrMissingInput
func ValidateInput(uploads []types.ResumeUpload, jobDescription string) error {
	if len(uploads) == 0 || jobDescription == "" {
		return ErrMissingInput
	}
	return nil
}

// Analyze 执行一次完整排序。输入不完整时不做任何计算。
func (s *RankingService) Analyze(ctx context.Context, uploads []types.ResumeUpload, jobDescription string) (*types.RankingRun, error) {
	if err := ValidateInput(uploads, jobDescription); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成排序ID失败: %w", err)
	}
	runID := id.String()

	ctx, span := tracer.Start(ctx, "AnalyzeResumes", trace.WithAttributes(attribute.String("ranking.run_id", runID)))
	defer span.End()

	log := s.logger.With().Str("run_id", runID).Logger()
	log.Info().Int("resumes", len(uploads)).Msg("开始排序")

	s.archive(ctx, log, runID, uploads)

	results, err := s.ranker.Rank(ctx, uploads, jobDescription)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return nil, err
	}

	run := &types.RankingRun{
		ID:               runID,
		JobDescription:   jobDescription,
		Results:          results,
		DiversityMessage: s.diversity.Check(results),
		CreatedAt:        s.now().UTC(),
	}

	if s.side.Recorder != nil {
		if err := s.side.Recorder.SaveRun(ctx, run); err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeDB)
			log.Warn().Err(err).Msg("保存排序结果失败")
		}
	}
	if s.side.Publisher != nil {
		if err := s.side.Publisher.PublishRunCompleted(ctx, run); err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeRabbitMQ)
			log.Warn().Err(err).Msg("发布排序完成事件失败")
		}
	}

	log.Info().Str("diversity", run.DiversityMessage).Msg("排序流程结束")
	return run, nil
}

func (s *RankingService) archive(ctx context.Context, log zerolog.Logger, runID string, uploads []types.ResumeUpload) {
	if s.side.Archiver == nil {
		return
	}
	for i, upload := range uploads {
		if err := s.side.Archiver.ArchiveResume(ctx, runID, i, upload); err != nil {
			log.Warn().Err(err).Str("filename", upload.Filename).Msg("归档简历失败")
		}
	}
}

// GetRun 查询已保存的排序
func (s *RankingService) GetRun(ctx context.Context, runID string) (*types.RankingRun, error) {
	if s.reader == nil {
		return nil, ErrHistoryDisabled
	}
	if _, err := uuid.FromString(runID); err != nil {
		return nil, ErrRunNotFound
	}
	return s.reader.GetRun(ctx, runID)
}

// HistoryEnabled 是否可以查询历史
func (s *RankingService) HistoryEnabled() bool {
	return s.reader != nil
}
