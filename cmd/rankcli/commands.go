package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"resume-ranker/internal/bootstrap"
	"resume-ranker/internal/config"
	appCoreLogger "resume-ranker/internal/logger"
	"resume-ranker/internal/processor"
	"resume-ranker/internal/report"
	"resume-ranker/internal/types"
)

// 排序命令：不接入任何存储，结果只输出到标准输出
func handleRankCommand(ctx context.Context, cfg *config.Config, files []string) error {
	jd, err := readJobDescription(*jdText, *jdFile)
	if err != nil {
		return err
	}
	uploads, err := readUploads(files)
	if err != nil {
		return err
	}

	svc, err := bootstrap.NewRankingService(ctx, cfg, nil, appCoreLogger.Logger)
	if err != nil {
		return fmt.Errorf("初始化排序服务失败: %w", err)
	}
	run, err := svc.Analyze(ctx, uploads, jd)
	if err != nil {
		return err
	}
	return writeRun(os.Stdout, run, *asJSON)
}

func writeRun(w io.Writer, run *types.RankingRun, asJSON bool) error {
	if !asJSON {
		return report.WriteText(w, run)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		RunID            string         `json:"run_id"`
		Entries          []report.Entry `json:"entries"`
		DiversityMessage string         `json:"diversity_message"`
	}{run.ID, report.Entries(run.Results), run.DiversityMessage})
}

// 仅提取文本
func handleExtractCommand(ctx context.Context, cfg *config.Config, files []string) error {
	extractor, err := bootstrap.NewExtractor(ctx, cfg, appCoreLogger.Logger)
	if err != nil {
		return err
	}
	uploads, err := readUploads(files)
	if err != nil {
		return err
	}
	for _, upload := range uploads {
		text, err := extractor.Extract(ctx, upload.Filename, upload.Data)
		if err != nil {
			return fmt.Errorf("提取 %s 失败: %w", upload.Filename, err)
		}
		fmt.Printf("===== %s (%d 字符) =====\n%s\n\n", upload.Filename, len([]rune(text)), clip(text, *maxLen))
	}
	return nil
}

// 提取文本后输出识别到的实体和字段
func handleEntitiesCommand(ctx context.Context, cfg *config.Config, files []string) error {
	extractor, err := bootstrap.NewExtractor(ctx, cfg, appCoreLogger.Logger)
	if err != nil {
		return err
	}
	recognizer, err := bootstrap.NewRecognizer(cfg, appCoreLogger.Logger)
	if err != nil {
		return err
	}

	uploads, err := readUploads(files)
	if err != nil {
		return err
	}
	for _, upload := range uploads {
		text, err := extractor.Extract(ctx, upload.Filename, upload.Data)
		if err != nil {
			return fmt.Errorf("提取 %s 失败: %w", upload.Filename, err)
		}
		entities, err := recognizer.Recognize(ctx, text)
		if err != nil {
			return fmt.Errorf("识别 %s 失败: %w", upload.Filename, err)
		}
		out := struct {
			Filename string              `json:"filename"`
			Entities []types.Entity      `json:"entities"`
			Details  types.ResumeDetails `json:"details"`
		}{upload.Filename, entities, processor.ExtractResumeDetails(entities)}

		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	}
	return nil
}

func readJobDescription(text, path string) (string, error) {
	if text != "" {
		return text, nil
	}
	if path == "" {
		return "", fmt.Errorf("需要 --jd 或 --jd-text 提供岗位描述")
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("读取岗位描述失败: %w", err)
	}
	return string(data), nil
}

// readUploads 按参数顺序读取文件，文件名只保留最后一段
func readUploads(files []string) ([]types.ResumeUpload, error) {
	uploads := make([]types.ResumeUpload, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(filepath.Clean(f))
		if err != nil {
			return nil, fmt.Errorf("读取简历失败: %w", err)
		}
		uploads = append(uploads, types.ResumeUpload{Filename: filepath.Base(f), Data: data})
	}
	return uploads, nil
}

func clip(text string, n int) string {
	runes := []rune(text)
	if n < 0 || len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "\n...(已截断)"
}
