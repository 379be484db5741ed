package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"resume-ranker/internal/config"
	"resume-ranker/internal/processor"
	"resume-ranker/internal/storage/models"
	"resume-ranker/internal/types"
)

var mysqlTracer = otel.Tracer("resume-ranker/storage/mysql")

type spanContextKey struct{}

// GormTracingPlugin 是一个GORM插件，为每条SQL创建追踪span
type GormTracingPlugin struct {
	tracer trace.Tracer
	dbName string
}

// NewGormTracingPlugin 创建一个新的GORM追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{tracer: mysqlTracer, dbName: dbName}
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册GORM回调以启用追踪
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	steps := []struct {
		op       string
		gormName string
		before   func(string) error
		after    func(string) error
	}{
		{"CREATE", "gorm:create",
			func(n string) error { return cb.Create().Before("gorm:create").Register(n, p.before("CREATE")) },
			func(n string) error { return cb.Create().After("gorm:create").Register(n, p.after()) }},
		{"SELECT", "gorm:query",
			func(n string) error { return cb.Query().Before("gorm:query").Register(n, p.before("SELECT")) },
			func(n string) error { return cb.Query().After("gorm:query").Register(n, p.after()) }},
		{"UPDATE", "gorm:update",
			func(n string) error { return cb.Update().Before("gorm:update").Register(n, p.before("UPDATE")) },
			func(n string) error { return cb.Update().After("gorm:update").Register(n, p.after()) }},
		{"DELETE", "gorm:delete",
			func(n string) error { return cb.Delete().Before("gorm:delete").Register(n, p.before("DELETE")) },
			func(n string) error { return cb.Delete().After("gorm:delete").Register(n, p.after()) }},
	}
	for _, s := range steps {
		if err := s.before("otel:before_" + s.op); err != nil {
			return err
		}
		if err := s.after("otel:after_" + s.op); err != nil {
			return err
		}
	}
	return nil
}

func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		newCtx, span := p.tracer.Start(ctx, fmt.Sprintf("%s %s", operation, table),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", table),
			),
		)
		db.Statement.Context = context.WithValue(newCtx, spanContextKey{}, span)
	}
}

func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value(spanContextKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
		if sql := db.Statement.SQL.String(); sql != "" {
			span.SetAttributes(attribute.String("db.statement", sql))
		}
		switch {
		case db.Error == nil:
			span.SetStatus(codes.Ok, "")
		case errors.Is(db.Error, gorm.ErrRecordNotFound):
			// 未找到记录属于正常业务结果
			span.SetAttributes(attribute.String("error.type", "record_not_found"))
			span.SetStatus(codes.Ok, "record not found")
		default:
			span.SetAttributes(attribute.String("error.type", "database_error"))
			span.RecordError(db.Error)
			span.SetStatus(codes.Error, db.Error.Error())
		}
	}
}

// MySQL 保存排序历史
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// NewMySQL 创建MySQL客户端并迁移表结构
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC&timeout=10s",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		PrepareStmt:                              true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}
	return newMySQLFromDB(db, cfg)
}

func newMySQLFromDB(db *gorm.DB, cfg *config.MySQLConfig) (*MySQL, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	if err := db.Use(NewGormTracingPlugin(cfg.Database)); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	m := &MySQL{db: db, cfg: cfg}
	if err := m.autoMigrateSchema(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}
	return m, nil
}

func gormLogLevel(level int) logger.LogLevel {
	switch level {
	case 1:
		return logger.Silent
	case 2:
		return logger.Error
	case 3:
		return logger.Warn
	case 4:
		return logger.Info
	default:
		return logger.Warn
	}
}

// autoMigrateSchema 迁移表结构，期间关闭SQL日志
func (m *MySQL) autoMigrateSchema() error {
	silent := m.db.Session(&gorm.Session{Logger: logger.New(
		log.New(log.Writer(), "", log.LstdFlags),
		logger.Config{LogLevel: logger.Silent, IgnoreRecordNotFoundError: true},
	)})
	if err := silent.AutoMigrate(&models.RankingRun{}, &models.RankedCandidate{}); err != nil {
		return fmt.Errorf("GORM自动迁移失败: %w", err)
	}
	return nil
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveRun 实现 processor.RunRecorder，排序和候选人在同一事务中写入
func (m *MySQL) SaveRun(ctx context.Context, run *types.RankingRun) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	row, err := models.NewRankingRun(run)
	if err != nil {
		return fmt.Errorf("序列化排序结果失败: %w", err)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Create 会一并写入关联的 Candidates
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("保存排序 %s 失败: %w", run.ID, err)
		}
		return nil
	})
}

// GetRun 实现 processor.RunReader
func (m *MySQL) GetRun(ctx context.Context, runID string) (*types.RankingRun, error) {
	if _, err := uuid.FromString(runID); err != nil {
		return nil, processor.ErrRunNotFound
	}

	var row models.RankingRun
	err := m.db.WithContext(ctx).
		Preload("Candidates", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("run_id = ?", runID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, processor.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询排序 %s 失败: %w", runID, err)
	}
	return row.ToDomain()
}
