package db

import (
	"fmt"
	"time"

	"tablechat/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 支持的数据库驱动。
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverSQLite:
		return sqlite.Open(dsn), nil
	case DriverPostgres:
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// Connect 按驱动建立连接；Postgres 带有简单的重试来等待容器就绪。
func Connect(driver, dsn string) (*gorm.DB, error) {
	d, err := dialector(driver, dsn)
	if err != nil {
		return nil, err
	}
	attempts := 1
	if driver == DriverPostgres {
		attempts = 10
	}

	var gdb *gorm.DB
	for i := 0; i < attempts; i++ {
		gdb, err = gorm.Open(d, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		if err == nil {
			sqlDB, err2 := gdb.DB()
			if err2 == nil {
				if driver == DriverSQLite {
					// SQLite 只允许单写者
					sqlDB.SetMaxOpenConns(1)
				} else {
					sqlDB.SetMaxIdleConns(5)
					sqlDB.SetMaxOpenConns(20)
				}
				sqlDB.SetConnMaxLifetime(time.Hour)
				return gdb, nil
			}
			err = err2
		}
		if i+1 < attempts {
			time.Sleep(time.Duration(500+i*200) * time.Millisecond)
		}
	}
	return nil, fmt.Errorf("connect %s: %w", driver, err)
}

// Migrate 自动迁移角色卡表。
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(&models.Sheet{})
}
