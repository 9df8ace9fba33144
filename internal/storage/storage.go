package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/LJTian/NewsDesk/internal/config"
	"github.com/LJTian/NewsDesk/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
)

// Entry 单个分区的缓存，带自己的写入时间
type Entry struct {
	Articles  []model.Article `json:"articles"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Snapshot 整个缓存的只读快照；LastUpdate 为 nil 表示从未成功写入过
type Snapshot struct {
	LastUpdate *time.Time               `json:"lastUpdate"`
	Data       map[model.Category]Entry `json:"data"`
}

// Store 分区缓存。每个分区独立存放，不同分区并发写入互不覆盖；
// 全局 lastUpdate 取所有分区里最新的写入时间
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Get(ctx context.Context, category model.Category) (Entry, bool, error)
	Put(ctx context.Context, category model.Category, articles []model.Article, at time.Time) error
	Clear(ctx context.Context) error
	// LastUpdate 从未写入时返回零值
	LastUpdate(ctx context.Context) (time.Time, error)
	Close() error
}

// IsStale lastUpdate 为零值或距 now 超过 ttl 即视为过期
func IsStale(lastUpdate, now time.Time, ttl time.Duration) bool {
	if lastUpdate.IsZero() {
		return true
	}
	return now.Sub(lastUpdate) > ttl
}

// Open 按配置选择缓存后端
func Open(cfg *config.Config) (Store, error) {
	switch cfg.CacheBackend {
	case config.BackendRedis:
		return NewRedisStore(cfg.RedisAddr), nil
	case config.BackendPostgres:
		return NewSQLStore(postgres.Open(cfg.PostgresDSN))
	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("creating cache dir: %w", err)
		}
		return NewSQLStore(sqlite.Open(cfg.SQLitePath))
	case config.BackendMemory:
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
}

func snapshotOf(entries map[model.Category]Entry) Snapshot {
	snap := Snapshot{Data: entries}
	for _, e := range entries {
		if snap.LastUpdate == nil || e.UpdatedAt.After(*snap.LastUpdate) {
			at := e.UpdatedAt
			snap.LastUpdate = &at
		}
	}
	return snap
}

func cloneArticles(in []model.Article) []model.Article {
	out := make([]model.Article, len(in))
	copy(out, in)
	return out
}
