package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"resume-ranker/internal/config"
	appCoreLogger "resume-ranker/internal/logger"
)

// 命令行参数定义
var (
	configPath = pflag.StringP("config", "c", "", "配置文件路径，为空时使用默认配置")
	command    = pflag.String("cmd", "rank", "执行的命令: rank=排序并输出报告, extract=仅提取文本, entities=输出识别到的实体")
	jdFile     = pflag.String("jd", "", "岗位描述文件路径 (rank 必填)")
	jdText     = pflag.String("jd-text", "", "直接给出岗位描述文本，优先于 --jd")
	asJSON     = pflag.Bool("json", false, "以JSON输出")
	maxLen     = pflag.Int("maxlen", 1000, "extract 显示的文本最大长度，设为-1显示全部")
	timeout    = pflag.Duration("timeout", 5*time.Minute, "整个命令的超时时间")
	logLevel   = pflag.String("log-level", "warn", "日志级别，日志写到标准错误")
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "用法: rankcli [flags] resume1.pdf resume2.png ...\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	_ = godotenv.Load()
	appCoreLogger.Init(appCoreLogger.Config{Level: *logLevel, Format: "pretty", Output: os.Stderr})

	cfg, err := loadConfig(*configPath)
	if err != nil {
		exitf("加载配置失败: %v", err)
	}

	files := pflag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "错误: 至少需要一个简历文件")
		pflag.Usage()
		os.Exit(1)
	}

	if err := runCommand(*command, cfg, files); err != nil {
		exitf("%v", err)
	}
}

// runCommand 在带超时的 ctx 中执行子命令，返回前释放 ctx
func runCommand(name string, cfg *config.Config, files []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch name {
	case "rank":
		return handleRankCommand(ctx, cfg, files)
	case "extract":
		return handleExtractCommand(ctx, cfg, files)
	case "entities":
		return handleEntitiesCommand(ctx, cfg, files)
	default:
		return fmt.Errorf("未知命令 '%s'。支持的命令: rank, extract, entities", name)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfig(path)
	}
	return config.ApplyEnv(config.Default()), nil
}

func exitf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "错误: "+format+"\n", args...)
	os.Exit(1)
}
