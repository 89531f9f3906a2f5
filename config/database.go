package config

import (
	"fmt"
	"time"

	"github.com/ArpaAP/soulbin/models"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialector 는 DB_DRIVER 에 맞는 gorm 드라이버를 고른다
func Dialector(config Config) (gorm.Dialector, error) {
	dsn := config.GetDBConnString()
	switch config.DBDriver {
	case "", "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("지원하지 않는 DB_DRIVER: %s", config.DBDriver)
	}
}

// InitDB 는 데이터베이스 연결과 커넥션 풀을 준비한다
func InitDB(config Config) (*gorm.DB, error) {
	dialector, err := Dialector(config)
	if err != nil {
		return nil, err
	}

	logMode := logger.Info
	if config.IsProduction() {
		logMode = logger.Warn
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 커넥션 풀
	if config.DBDriver == "sqlite" {
		// SQLite 는 단일 writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	return db, nil
}

// MigrateDB 는 테이블 구조를 마이그레이션한다
func MigrateDB(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Diary{},
		&models.DiaryAnalysis{},
		&models.Chat{},
		&models.Message{},
	)
	if err != nil {
		return fmt.Errorf("데이터베이스 마이그레이션 실패: %w", err)
	}
	return nil
}
