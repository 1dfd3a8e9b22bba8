// Package testdb 为测试提供迁移好的内存 SQLite 数据库
package testdb

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/anoixa/imagebank/database"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var counter atomic.Int64

// New 创建独立的内存数据库并完成迁移
func New(t testing.TB) *database.GormProvider {
	t.Helper()

	name := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, counter.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// 共享缓存模式下单连接避免表锁冲突
	sqlDB.SetMaxOpenConns(1)

	provider := database.NewProviderFromDB(db, "sqlite")
	if err := provider.AutoMigrate(database.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() { _ = provider.Close() })
	return provider
}
