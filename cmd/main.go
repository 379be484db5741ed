package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"resume-ranker/internal/api/handler"
	"resume-ranker/internal/api/router"
	"resume-ranker/internal/bootstrap"
	"resume-ranker/internal/config"
	"resume-ranker/internal/constants"
	appCoreLogger "resume-ranker/internal/logger"
	"resume-ranker/internal/storage"
	"resume-ranker/internal/tracing"
)

func main() {
	var configPath, envFile string
	pflag.StringVarP(&configPath, "config", "c", "internal/config/config.yaml", "Path to config file")
	pflag.StringVar(&envFile, "env-file", ".env", "Optional dotenv file with secrets")
	pflag.Parse()

	// .env 不存在时忽略，环境变量优先于文件
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		glog.Warnf("加载 %s 失败: %v", envFile, err)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}

	appCoreLogger.Init(appCoreLogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	log := appCoreLogger.Logger.With().Str("service", constants.ServiceName).Logger()
	glog.Infof("配置加载成功: %s", configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.InitProvider(ctx, cfg.Tracing)
	if err != nil {
		glog.Fatalf("初始化链路追踪失败: %v", err)
	}

	storageManager, err := storage.NewStorage(ctx, cfg, log)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close(log)

	rankingService, err := bootstrap.NewRankingService(ctx, cfg, storageManager, log)
	if err != nil {
		glog.Fatalf("初始化排序服务失败: %v", err)
	}
	glog.Infof("排序服务初始化成功, 历史记录: %v", rankingService.HistoryEnabled())

	serverTracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize(cfg.Server.MaxRequestBodyMB<<20),
		serverTracer,
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))

	if err := router.RegisterRoutes(h, handler.NewRankingHandler(rankingService), cfg.Server.APIKeys); err != nil {
		glog.Fatalf("注册路由失败: %v", err)
	}
	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)

	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Errorf("服务器关闭失败: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		glog.Errorf("关闭链路追踪失败: %v", err)
	}
	glog.Info("优雅退出完成")
}
