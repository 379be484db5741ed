package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"resume-ranker/internal/config"
	"resume-ranker/internal/constants"
)

// Storage 存储管理器，聚合排序服务的旁路依赖。所有组件都是可选的。
type Storage struct {
	// 归档原始简历
	MinIO *MinIO

	// 发布排序完成事件
	RabbitMQ *RabbitMQ

	// 排序历史
	MySQL *MySQL

	// 向量缓存
	Redis *Redis
}

// NewStorage 按配置初始化各组件。单个组件失败只记录警告，
// 只有在配置了组件却全部失败时才返回错误。
func NewStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	s := &Storage{}
	var err error
	var initErrors []string
	configured := 0

	if cfg.MinIO.Endpoint != "" {
		configured++
		s.MinIO, err = NewMinIO(&cfg.MinIO, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化MinIO失败")
			initErrors = append(initErrors, fmt.Sprintf("MinIO: %v", err))
		}
	}

	if cfg.RabbitMQ.URL != "" {
		configured++
		s.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化RabbitMQ失败")
			initErrors = append(initErrors, fmt.Sprintf("RabbitMQ: %v", err))
		}
	}

	if cfg.MySQL.Host != "" {
		configured++
		s.MySQL, err = NewMySQL(&cfg.MySQL)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化MySQL失败")
			initErrors = append(initErrors, fmt.Sprintf("MySQL: %v", err))
		} else {
			logger.Info().Str("database", cfg.MySQL.Database).Msg("已连接MySQL并完成表结构迁移")
		}
	}

	if cfg.Redis.Address != "" {
		configured++
		ttl := config.GetDuration(cfg.Embedding.CacheTTL, constants.DefaultEmbeddingCacheTTL)
		s.Redis, err = NewRedisAdapter(&cfg.Redis, ttl)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化Redis失败")
			initErrors = append(initErrors, fmt.Sprintf("Redis: %v", err))
		} else {
			logger.Info().Str("address", cfg.Redis.Address).Dur("vector_ttl", ttl).Msg("已连接Redis")
		}
	}

	if configured > 0 && len(initErrors) == configured {
		return nil, fmt.Errorf("所有存储组件初始化失败: %s", strings.Join(initErrors, "; "))
	}
	if len(initErrors) > 0 {
		logger.Warn().Str("errors", strings.Join(initErrors, "; ")).Msg("部分存储组件不可用")
	}
	if configured == 0 {
		logger.Info().Msg("未配置任何存储组件，排序结果不做持久化")
	}
	return s, nil
}

// Close 关闭所有连接
func (s *Storage) Close(logger zerolog.Logger) {
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭MySQL连接失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭Redis连接失败")
		}
	}
}
