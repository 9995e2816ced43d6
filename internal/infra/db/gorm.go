package db

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/NasaVasa/mira/internal/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type gormZapWriter struct {
	logger *zap.Logger
}

func (w gormZapWriter) Printf(format string, args ...interface{}) {
	w.logger.Sugar().Infof(format, args...)
}

const sqliteBusyTimeoutMS = 5000

type poolConfig struct {
	maxIdle     int
	maxOpen     int
	maxLifetime time.Duration
}

func Open(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverPostgres:
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
			cfg.DBHost,
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBName,
			cfg.DBPort,
			cfg.DBSSLMode,
		)
		dialector = postgres.Open(dsn)
	case config.DriverSQLite:
		dialector = sqlite.Open(sqliteDSN(cfg.DBSQLitePath))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	pool := poolConfig{
		maxIdle:     cfg.DBMaxIdleConns,
		maxOpen:     cfg.DBMaxOpenConns,
		maxLifetime: cfg.DBConnMaxLifetime,
	}
	if cfg.DBDriver == config.DriverSQLite {
		// sqlite allows a single writer; more connections only produce SQLITE_BUSY.
		pool.maxOpen = 1
	}

	return open(dialector, pool, log)
}

// sqliteDSN makes every transaction BEGIN IMMEDIATE, so a transaction takes
// the database write lock before reading. sqlite has no row locks; this is
// what serializes FirePriceAlert across processes sharing one file.
func sqliteDSN(path string) string {
	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}
	return path + separator + "_txlock=immediate&_busy_timeout=" + strconv.Itoa(sqliteBusyTimeoutMS)
}

func open(dialector gorm.Dialector, pool poolConfig, log *zap.Logger) (*gorm.DB, error) {
	gormLogger := logger.New(
		gormZapWriter{logger: log},
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger, TranslateError: true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(pool.maxIdle)
	sqlDB.SetMaxOpenConns(pool.maxOpen)
	sqlDB.SetConnMaxLifetime(pool.maxLifetime)

	if err := db.AutoMigrate(&userModel{}, &priceAlertModel{}, &newListingAlertModel{}, &trackedWalletModel{}); err != nil {
		return nil, err
	}

	return db, nil
}
