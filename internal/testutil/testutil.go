// Package testutil 提供整合測試共用的資料庫與 Redis 連線。
// 無法連線時測試會被 Skip，而不是失敗。
package testutil

import (
	"context"
	"sync"
	"testing"

	"raffle-platform/config"
	"raffle-platform/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

var (
	dbOnce  sync.Once
	testDB  *pgxpool.Pool
	dbErr   error
	rdbOnce sync.Once
	testRdb *redis.Client
	rdbErr  error
)

// RequireDatabase 回傳已套用 schema 的測試資料庫
func RequireDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbOnce.Do(func() {
		cfg := config.LoadTestConfig()
		testDB, dbErr = database.InitDatabase(&cfg.Database)
		if dbErr != nil {
			return
		}
		dbErr = database.Migrate(context.Background(), testDB)
	})

	if dbErr != nil {
		t.Skipf("test database unavailable: %v", dbErr)
	}
	return testDB
}

// RequireRedis 回傳測試用 Redis
func RequireRedis(t *testing.T) *redis.Client {
	t.Helper()

	rdbOnce.Do(func() {
		cfg := config.LoadTestConfig()
		testRdb, rdbErr = database.InitRedis(&cfg.Redis)
	})

	if rdbErr != nil {
		t.Skipf("test redis unavailable: %v", rdbErr)
	}
	return testRdb
}

// Truncate 清空所有資料表
func Truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		"TRUNCATE winners, purchase_tickets, purchases, tickets, campaigns, roulette_spin_plays, roulette_prizes RESTART IDENTITY CASCADE")
	if err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
	_, err = pool.Exec(context.Background(), "UPDATE roulette_settings SET rtp = 0 WHERE id = 1")
	if err != nil {
		t.Fatalf("Failed to reset settings: %v", err)
	}
}
