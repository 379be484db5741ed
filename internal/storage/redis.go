package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"resume-ranker/internal/config"
	"resume-ranker/internal/constants"
	"resume-ranker/internal/tracing"
)

// 为Redis操作定义专用tracer
var redisTracer = otel.Tracer("resume-ranker/storage/redis")

// Redis wraps the Redis client
type Redis struct {
	Client    *redis.Client
	config    *config.RedisConfig
	vectorTTL time.Duration
}

// NewRedisAdapter creates a new Redis client connection
func NewRedisAdapter(cfg *config.RedisConfig, vectorTTL time.Duration) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		// 连接池设置
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		// 超时设置，0 表示使用 go-redis 默认值
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	}

	client := redis.NewClient(opt)

	// 添加OpenTelemetry钩子, 记录所有Redis操作
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return newRedisFromClient(client, cfg, vectorTTL), nil
}

func newRedisFromClient(client *redis.Client, cfg *config.RedisConfig, vectorTTL time.Duration) *Redis {
	if vectorTTL <= 0 {
		vectorTTL = constants.DefaultEmbeddingCacheTTL
	}
	return &Redis{Client: client, config: cfg, vectorTTL: vectorTTL}
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// VectorKey 文本向量缓存的键：模型名加文本的 SHA-256
func VectorKey(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf(constants.KeyEmbeddingVector, model, hex.EncodeToString(sum[:]))
}

// GetVector 实现 processor.VectorCache。未命中时返回 ok=false 且无错误。
func (r *Redis) GetVector(ctx context.Context, model, text string) ([]float64, bool, error) {
	key := VectorKey(model, text)
	ctx, span := r.startSpan(ctx, "Redis.GetVector", "GET", key)
	defer span.End()

	if r.Client == nil {
		err := fmt.Errorf("redis client is not initialized")
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return nil, false, err
	}

	raw, err := r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return nil, false, nil
	}
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return nil, false, fmt.Errorf("读取向量缓存失败: %w", err)
	}

	var vec []float64
	if err := json.Unmarshal(raw, &vec); err != nil {
		// 损坏的缓存当作未命中，稍后会被覆盖
		span.SetAttributes(attribute.Bool("cache.corrupt", true))
		return nil, false, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", true))
	span.SetStatus(codes.Ok, "")
	return vec, true, nil
}

// SetVector 实现 processor.VectorCache
func (r *Redis) SetVector(ctx context.Context, model, text string, vector []float64) error {
	key := VectorKey(model, text)
	ctx, span := r.startSpan(ctx, "Redis.SetVector", "SET", key)
	defer span.End()

	if r.Client == nil {
		err := fmt.Errorf("redis client is not initialized")
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return err
	}

	payload, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("序列化向量失败: %w", err)
	}
	if err := r.Client.Set(ctx, key, payload, r.vectorTTL).Err(); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return fmt.Errorf("写入向量缓存失败: %w", err)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (r *Redis) startSpan(ctx context.Context, name, op, key string) (context.Context, trace.Span) {
	ctx, span := redisTracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	attrs := []attribute.KeyValue{
		semconv.DBSystemRedis,
		attribute.String("db.operation", op),
		attribute.String("db.redis.key", tracing.TruncateString(key, tracing.DefaultMaxLength)),
	}
	if r.config != nil {
		attrs = append(attrs,
			attribute.String("db.redis.database", fmt.Sprintf("%d", r.config.DB)),
			attribute.String("net.peer.name", r.config.Address),
		)
	}
	span.SetAttributes(attrs...)
	return ctx, span
}
