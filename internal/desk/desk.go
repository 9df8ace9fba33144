// Package desk 是渲染层唯一需要接触的入口：八个分区各一个方法，外加批量刷新和缓存管理
package desk

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/LJTian/NewsDesk/internal/aggregator"
	"github.com/LJTian/NewsDesk/internal/model"
	"github.com/LJTian/NewsDesk/internal/storage"
)

// ErrUnknownCategory 按名字取分区时名字不在八个分区里
var ErrUnknownCategory = errors.New("unknown category")

type Desk struct {
	agg   *aggregator.Aggregator
	store storage.Store
	ttl   time.Duration
	now   func() time.Time
}

func New(agg *aggregator.Aggregator, store storage.Store, ttl time.Duration) *Desk {
	return &Desk{
		agg:   agg,
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

func (d *Desk) FetchTopStories(ctx context.Context) []model.Article {
	return d.agg.FetchCategory(ctx, model.TopStories)
}

func (d *Desk) FetchNYNews(ctx context.Context) []model.Article {
	return d.agg.FetchCategory(ctx, model.NYNews)
}

func (d *Desk) FetchUSNews(ctx context.Context) []model.Article {
	return d.agg.FetchCategory(ctx, model.USNews)
}

func (d *Desk) FetchGlobalNews(ctx context.Context) []model.Article {
	return d.agg.FetchCategory(ctx, model.GlobalNews)
}

func (d *Desk) FetchOpinion(ctx context.Context) []model.Article {
	return d.agg.FetchCategory(ctx, model.Opinion)
}

func (d *Desk) FetchArtsCulture(ctx context.Context) []model.Article {
	return d.agg.FetchCategory(ctx, model.ArtsCulture)
}

func (d *Desk) FetchFashionTrends(ctx context.Context) []model.Article {
	return d.agg.FetchCategory(ctx, model.FashionTrends)
}

func (d *Desk) FetchNYEvents(ctx context.Context) []model.Article {
	return d.agg.FetchCategory(ctx, model.NYEvents)
}

// Fetch 按名字取分区，给 HTTP 和命令行用
func (d *Desk) Fetch(ctx context.Context, name string) ([]model.Article, error) {
	c := model.Category(name)
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
	}
	return d.agg.FetchCategory(ctx, c), nil
}

func (d *Desk) FetchAll(ctx context.Context) []aggregator.Outcome {
	return d.agg.FetchAll(ctx)
}

func (d *Desk) ForceRefreshAll(ctx context.Context) []aggregator.Outcome {
	log.Println("desk: force refresh all categories")
	return d.agg.ForceRefreshAll(ctx)
}

func (d *Desk) ClearCache(ctx context.Context) error {
	if err := d.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	log.Println("desk: cache cleared")
	return nil
}

// IsStale 看全局 lastUpdate；读缓存失败按过期处理
func (d *Desk) IsStale(ctx context.Context) bool {
	last, err := d.store.LastUpdate(ctx)
	if err != nil {
		log.Printf("desk: read last update error: %v", err)
		return true
	}
	return storage.IsStale(last, d.now(), d.ttl)
}

// LastUpdate 从未写入过时返回零值
func (d *Desk) LastUpdate(ctx context.Context) (time.Time, error) {
	return d.store.LastUpdate(ctx)
}

// Warm 启动时读一遍持久化缓存，确认后端可用并打印各分区状态
func (d *Desk) Warm(ctx context.Context) (storage.Snapshot, error) {
	snap, err := d.store.Load(ctx)
	if err != nil {
		return storage.Snapshot{}, fmt.Errorf("warm cache: %w", err)
	}

	now := d.now()
	for _, c := range model.Categories() {
		e, ok := snap.Data[c]
		if !ok {
			log.Printf("desk: %s cold", c)
			continue
		}
		log.Printf("desk: %s cached articles=%d stale=%t", c, len(e.Articles), storage.IsStale(e.UpdatedAt, now, d.ttl))
	}
	return snap, nil
}
