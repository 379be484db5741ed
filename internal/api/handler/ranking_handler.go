package handler

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.opentelemetry.io/otel/trace"

	"resume-ranker/internal/constants"
	"resume-ranker/internal/logger"
	"resume-ranker/internal/processor"
	"resume-ranker/internal/report"
	"resume-ranker/internal/tracing"
	"resume-ranker/internal/types"
)

//go:embed templates/*.html
var templateFS embed.FS

// IndexTemplate 上传表单与结果页共用的模板名
const IndexTemplate = "index.html"

// Templates 解析内嵌的页面模板
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// RankingService 处理器依赖的排序能力，由 processor.RankingService 实现
type RankingService interface {
	Analyze(ctx context.Context, uploads []types.ResumeUpload, jobDescription string) (*types.RankingRun, error)
	GetRun(ctx context.Context, runID string) (*types.RankingRun, error)
}

var _ RankingService = (*processor.RankingService)(nil)

// RankingHandler 网页和 JSON 接口的处理器
type RankingHandler struct {
	service RankingService
}

// NewRankingHandler 创建处理器
func NewRankingHandler(service RankingService) *RankingHandler {
	return &RankingHandler{service: service}
}

// pageData 模板数据
type pageData struct {
	JobDescription   string
	Entries          []report.Entry
	DiversityMessage string
	Error            string
}

// RankResponse JSON 接口的返回结构
type RankResponse struct {
	RunID            string               `json:"run_id"`
	Results          []types.RankedResume `json:"results"`
	Entries          []report.Entry       `json:"entries"`
	DiversityMessage string               `json:"diversity_message"`
}

func newRankResponse(run *types.RankingRun) RankResponse {
	return RankResponse{
		RunID:            run.ID,
		Results:          run.Results,
		Entries:          report.Entries(run.Results),
		DiversityMessage: run.DiversityMessage,
	}
}

// HandleIndex GET / 渲染空表单
func (h *RankingHandler) HandleIndex(ctx context.Context, c *app.RequestContext) {
	c.HTML(consts.StatusOK, IndexTemplate, pageData{})
}

// HandleAnalyze POST /analyze 排序并渲染结果页
func (h *RankingHandler) HandleAnalyze(ctx context.Context, c *app.RequestContext) {
	uploads, jd, err := readRankingForm(c)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("读取上传表单失败")
		c.HTML(consts.StatusBadRequest, IndexTemplate, pageData{JobDescription: jd, Error: "读取上传文件失败"})
		return
	}

	run, err := h.service.Analyze(ctx, uploads, jd)
	if err != nil {
		status := statusForRankError(err)
		recordRankError(ctx, err, status)
		c.HTML(status, IndexTemplate, pageData{JobDescription: jd, Error: userMessage(err)})
		return
	}

	c.HTML(consts.StatusOK, IndexTemplate, pageData{
		JobDescription:   jd,
		Entries:          report.Entries(run.Results),
		DiversityMessage: run.DiversityMessage,
	})
}

// HandleRank POST /api/v1/rank 返回 JSON 结果
func (h *RankingHandler) HandleRank(ctx context.Context, c *app.RequestContext) {
	uploads, jd, err := readRankingForm(c)
	if err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "读取上传文件失败"})
		return
	}

	run, err := h.service.Analyze(ctx, uploads, jd)
	if err != nil {
		status := statusForRankError(err)
		recordRankError(ctx, err, status)
		c.JSON(status, utils.H{"error": userMessage(err)})
		return
	}
	c.JSON(consts.StatusOK, newRankResponse(run))
}

// HandleGetRun GET /api/v1/runs/:id 查询历史排序
func (h *RankingHandler) HandleGetRun(ctx context.Context, c *app.RequestContext) {
	runID := c.Param("id")
	run, err := h.service.GetRun(ctx, runID)
	switch {
	case err == nil:
		c.JSON(consts.StatusOK, newRankResponse(run))
	case errors.Is(err, processor.ErrHistoryDisabled):
		c.JSON(consts.StatusNotImplemented, utils.H{"error": err.Error()})
	case errors.Is(err, processor.ErrRunNotFound):
		c.JSON(consts.StatusNotFound, utils.H{"error": fmt.Sprintf("未找到排序 %s", runID)})
	default:
		logger.Ctx(ctx).Error().Err(err).Str("run_id", runID).Msg("查询排序失败")
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "查询排序失败"})
	}
}

// HandleHealth GET /api/v1/health
func (h *RankingHandler) HandleHealth(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, utils.H{"status": "ok", "service": constants.ServiceName, "version": constants.Version})
}

// recordRankError 缺少输入只标记在 span 上，其余失败同时写错误日志
func recordRankError(ctx context.Context, err error, status int) {
	tracing.RecordHTTPError(trace.SpanFromContext(ctx), err, status)
	if !errors.Is(err, processor.ErrMissingInput) {
		logger.Ctx(ctx).Error().Err(err).Msg("排序失败")
	}
}

func statusForRankError(err error) int {
	if errors.Is(err, processor.ErrMissingInput) {
		return consts.StatusBadRequest
	}
	return consts.StatusInternalServerError
}

func userMessage(err error) string {
	if errors.Is(err, processor.ErrMissingInput) {
		return processor.MissingInputMessage
	}
	return err.Error()
}

// readRankingForm 读取上传的简历和岗位描述。非 multipart 请求视为没有简历。
func readRankingForm(c *app.RequestContext) ([]types.ResumeUpload, string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, c.PostForm(constants.JobDescriptionFormField), nil
	}

	var jd string
	if values := form.Value[constants.JobDescriptionFormField]; len(values) > 0 {
		jd = values[0]
	}

	var uploads []types.ResumeUpload
	for _, fh := range form.File[constants.ResumesFormField] {
		// 浏览器在未选择文件时会提交一个空的文件段
		if fh.Filename == "" && fh.Size == 0 {
			continue
		}
		data, err := readFileHeader(fh)
		if err != nil {
			return nil, jd, fmt.Errorf("读取文件 %s 失败: %w", fh.Filename, err)
		}
		uploads = append(uploads, types.ResumeUpload{Filename: fh.Filename, Data: data})
	}
	return uploads, jd, nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
