package database

import (
	"context"
	"fmt"
	"time"

	"remark-go/internal/config"
	"remark-go/internal/model"
	"remark-go/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

var DB *gorm.DB

// zapWriter routes gorm's slow query and error lines into the zap global.
type zapWriter struct {
	log *zap.Logger
}

func (w zapWriter) Printf(format string, args ...interface{}) {
	w.log.Warn(fmt.Sprintf(format, args...))
}

// Init opens the PostgreSQL pool. Missing rows are expected on most lookups,
// so gorm does not log them.
func Init(cfg *config.DatabaseConfig) error {
	gormLog := gormlogger.New(zapWriter{log: logger.With(zap.String("component", "gorm"))}, gormlogger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{Logger: gormLog})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("ping database %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	DB = db

	logger.Info("Database connected",
		zap.String("host", cfg.Host),
		zap.String("dbname", cfg.DBName),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
	)
	return nil
}

// AutoMigrate creates or updates the users, comments and reactions tables.
// Users come first since the others reference them.
func AutoMigrate() error {
	if err := DB.AutoMigrate(&model.User{}, &model.Comment{}, &model.Reaction{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logger.Info("Database schema migrated")
	return nil
}

func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	DB = nil
	logger.Info("Database connection closed")
	return sqlDB.Close()
}

func Get() *gorm.DB {
	return DB
}
