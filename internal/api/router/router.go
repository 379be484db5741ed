package router

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"

	"resume-ranker/internal/api/handler"
)

// RegisterRoutes 注册页面与 API 路由。apiKeys 非空时 /api/v1 下的排序接口需要 Bearer 密钥。
func RegisterRoutes(h *server.Hertz, rankingHandler *handler.RankingHandler, apiKeys []string) error {
	tmpl, err := handler.Templates()
	if err != nil {
		return fmt.Errorf("解析页面模板失败: %w", err)
	}
	h.SetHTMLTemplate(tmpl)

	h.Use(handler.RequestID(), handler.AccessLog())

	h.GET("/", rankingHandler.HandleIndex)
	h.POST("/analyze", rankingHandler.HandleAnalyze)

	api := h.Group("/api/v1")
	// 健康检查不需要密钥
	api.GET("/health", rankingHandler.HandleHealth)

	secured := api.Group("")
	if len(apiKeys) > 0 {
		secured.Use(APIKeyAuth(apiKeys))
	}
	secured.POST("/rank", rankingHandler.HandleRank)
	secured.GET("/runs/:id", rankingHandler.HandleGetRun)
	return nil
}

var errInvalidAPIKey = errors.New("invalid api key")

// APIKeyAuth 校验 Authorization: Bearer <key>
func APIKeyAuth(apiKeys []string) app.HandlerFunc {
	return keyauth.New(
		keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
			for _, allowed := range apiKeys {
				if allowed != "" && subtle.ConstantTimeCompare([]byte(key), []byte(allowed)) == 1 {
					return true, nil
				}
			}
			return false, errInvalidAPIKey
		}),
		keyauth.WithErrorHandler(func(ctx context.Context, c *app.RequestContext, err error) {
			c.AbortWithStatusJSON(consts.StatusUnauthorized, utils.H{"error": "无效或缺失的 API 密钥"})
		}),
	)
}
