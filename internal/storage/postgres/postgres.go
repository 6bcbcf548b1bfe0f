// internal/storage/postgres/postgres.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/yoinknow/curve-engine/internal/storage"
	"github.com/yoinknow/curve-engine/internal/storage/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// gormLogger реализует интерфейс logger.Interface для GORM
type gormLogger struct {
	zapLogger     *zap.Logger
	logLevel      logger.LogLevel
	slowThreshold time.Duration
}

// newGormLogger создает новый логгер для GORM
func newGormLogger(zapLogger *zap.Logger) logger.Interface {
	return &gormLogger{
		zapLogger:     zapLogger,
		logLevel:      logger.Warn,
		slowThreshold: 200 * time.Millisecond,
	}
}

// LogMode реализация интерфейса logger.Interface
func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.logLevel = level
	return &newLogger
}

// Info реализация интерфейса logger.Interface
func (l *gormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Info {
		l.zapLogger.Sugar().Infof(msg, data...)
	}
}

// Warn реализация интерфейса logger.Interface
func (l *gormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Warn {
		l.zapLogger.Sugar().Warnf(msg, data...)
	}
}

// Error реализация интерфейса logger.Interface
func (l *gormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Error {
		l.zapLogger.Sugar().Errorf(msg, data...)
	}
}

// Trace реализация интерфейса logger.Interface
func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.String("sql", sql),
		zap.Int64("rows", rows),
	}

	switch {
	case err != nil && l.logLevel >= logger.Error:
		l.zapLogger.Error("trace", append(fields, zap.Error(err))...)
	case elapsed > l.slowThreshold && l.logLevel >= logger.Warn:
		l.zapLogger.Warn("slow query", fields...)
	case l.logLevel >= logger.Info:
		l.zapLogger.Debug("trace", fields...)
	}
}

// recordStorage реализует интерфейс RecordStore
type recordStorage struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ storage.RecordStore = (*recordStorage)(nil)

// NewStorage подключается к PostgreSQL
func NewStorage(dsn string, zapLogger *zap.Logger) (storage.RecordStore, error) {
	store, err := open(postgres.Open(dsn), zapLogger)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// NewSQLiteStorage открывает встроенную базу SQLite (dev и тесты)
func NewSQLiteStorage(dsn string, zapLogger *zap.Logger) (storage.RecordStore, error) {
	store, err := open(sqlite.Open(dsn), zapLogger)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Open выбирает драйвер по имени: postgres или sqlite
func Open(driver, dsn string, zapLogger *zap.Logger) (storage.RecordStore, error) {
	switch driver {
	case "postgres":
		return NewStorage(dsn, zapLogger)
	case "sqlite":
		return NewSQLiteStorage(dsn, zapLogger)
	default:
		return nil, fmt.Errorf("unsupported records driver: %s", driver)
	}
}

func open(dialector gorm.Dialector, zapLogger *zap.Logger) (*recordStorage, error) {
	gormLogger := newGormLogger(zapLogger.Named("gorm"))

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Настройка пула соединений
	if dialector.Name() == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	return &recordStorage{
		db:     db,
		logger: zapLogger,
	}, nil
}

// RunMigrations использует GORM AutoMigrate; на PostgreSQL под advisory lock
func (p *recordStorage) RunMigrations() error {
	if p.db.Dialector.Name() == "postgres" {
		var lockObtained bool
		err := p.db.Raw("SELECT pg_try_advisory_lock(101)").Scan(&lockObtained).Error
		if err != nil {
			return fmt.Errorf("failed to acquire migration lock: %w", err)
		}
		if !lockObtained {
			return fmt.Errorf("another migration is in progress")
		}
		defer p.db.Exec("SELECT pg_advisory_unlock(101)")
	}

	err := p.db.AutoMigrate(
		&models.TradeRecord{},
		&models.CurveSnapshot{},
		&models.ClaimRecord{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Реализация методов интерфейса RecordStore
func (p *recordStorage) SaveTrade(ctx context.Context, trade *models.TradeRecord) error {
	return p.db.WithContext(ctx).Create(trade).Error
}

func (p *recordStorage) ListTrades(ctx context.Context, filter storage.TradeFilter) ([]*models.TradeRecord, error) {
	q := p.db.WithContext(ctx).Model(&models.TradeRecord{})
	if filter.Mint != "" {
		q = q.Where("mint = ?", filter.Mint)
	}
	if filter.Trader != "" {
		q = q.Where("trader = ?", filter.Trader)
	}
	if filter.Side != "" {
		q = q.Where("side = ?", filter.Side)
	}
	if !filter.Start.IsZero() {
		q = q.Where("traded_at >= ?", filter.Start)
	}
	if !filter.End.IsZero() {
		q = q.Where("traded_at <= ?", filter.End)
	}
	if filter.OnlyBuybacks {
		q = q.Where("is_buyback = ?", true)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var trades []*models.TradeRecord
	err := q.Order("traded_at asc, id asc").Find(&trades).Error
	return trades, err
}

func (p *recordStorage) SaveCurveSnapshot(ctx context.Context, snapshot *models.CurveSnapshot) error {
	return p.db.WithContext(ctx).Create(snapshot).Error
}

func (p *recordStorage) SaveClaim(ctx context.Context, claim *models.ClaimRecord) error {
	return p.db.WithContext(ctx).Create(claim).Error
}

func (p *recordStorage) ListClaims(ctx context.Context, mint string) ([]*models.ClaimRecord, error) {
	var claims []*models.ClaimRecord
	q := p.db.WithContext(ctx)
	if mint != "" {
		q = q.Where("mint = ?", mint)
	}
	err := q.Order("claimed_at asc, id asc").Find(&claims).Error
	return claims, err
}

func (p *recordStorage) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
