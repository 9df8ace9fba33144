package aggregator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/LJTian/NewsDesk/internal/collector"
	"github.com/LJTian/NewsDesk/internal/config"
	"github.com/LJTian/NewsDesk/internal/metrics"
	"github.com/LJTian/NewsDesk/internal/model"
	"github.com/LJTian/NewsDesk/internal/processor"
	"github.com/LJTian/NewsDesk/internal/storage"
	"golang.org/x/sync/singleflight"
)

// 单次聚合的结果标签，同时作为 metrics 的 state
const (
	StateCacheHit = "cache_hit"
	StateFresh    = "fresh"
	StateStale    = "stale"
	StateMock     = "mock"
	StateEmpty    = "empty"
)

type Status string

const (
	StatusFulfilled Status = "fulfilled"
	StatusRejected  Status = "rejected"
)

// Outcome 批量聚合里单个分区的结果
type Outcome struct {
	Category model.Category  `json:"category"`
	Status   Status          `json:"status"`
	Articles []model.Article `json:"articles"`
	Error    string          `json:"error,omitempty"`
}

// Enricher 可选的后处理，目前只有补配图
type Enricher interface {
	Enrich(ctx context.Context, articles []model.Article) []model.Article
}

type Options struct {
	Categories config.Categories
	Adapters   map[model.Provider]collector.Adapter
	Normalizer *processor.Normalizer
	Ranker     *processor.Ranker
	Store      storage.Store
	Enricher   Enricher
	Metrics    *metrics.Metrics

	// TTL 分区缓存多久算过期
	TTL          time.Duration
	MockFallback bool
	Now          func() time.Time
}

// Aggregator 负责一个分区从缓存判断、并发拉取、归一化排序到落库兜底的完整流程
type Aggregator struct {
	categories   config.Categories
	adapters     map[model.Provider]collector.Adapter
	normalizer   *processor.Normalizer
	ranker       *processor.Ranker
	store        storage.Store
	enricher     Enricher
	metrics      *metrics.Metrics
	ttl          time.Duration
	mockFallback bool
	now          func() time.Time

	group singleflight.Group
}

func New(opts Options) *Aggregator {
	a := &Aggregator{
		categories:   opts.Categories,
		adapters:     opts.Adapters,
		normalizer:   opts.Normalizer,
		ranker:       opts.Ranker,
		store:        opts.Store,
		enricher:     opts.Enricher,
		metrics:      opts.Metrics,
		ttl:          opts.TTL,
		mockFallback: opts.MockFallback,
		now:          opts.Now,
	}
	if a.normalizer == nil {
		a.normalizer = processor.NewNormalizer()
	}
	if a.ranker == nil {
		a.ranker = processor.NewRanker(processor.DefaultLimit)
	}
	if a.store == nil {
		a.store = storage.NewMemoryStore()
	}
	if a.ttl <= 0 {
		a.ttl = 24 * time.Hour
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// FetchCategory 不会返回错误：未知分区、所有数据源失败都落到空列表或兜底内容。
// 同一分区的并发调用合并成一次流程，各自拿到结果的副本
func (a *Aggregator) FetchCategory(ctx context.Context, name model.Category) []model.Article {
	spec, ok := a.categories.Lookup(name)
	if !ok {
		log.Printf("aggregator: unknown category %q", name)
		return []model.Article{}
	}

	v, _, _ := a.group.Do(string(name), func() (interface{}, error) {
		return a.run(ctx, spec), nil
	})
	articles := v.([]model.Article)
	out := make([]model.Article, len(articles))
	copy(out, articles)
	return out
}

func (a *Aggregator) run(ctx context.Context, spec config.CategorySpec) []model.Article {
	began := time.Now()
	now := a.now()

	cached, hasCached, err := a.store.Get(ctx, spec.Name)
	if err != nil {
		log.Printf("aggregator: read %s cache error, treat as cold: %v", spec.Name, err)
		a.metrics.StoreError("get")
		hasCached = false
	}

	if !spec.BypassCache && hasCached && len(cached.Articles) > 0 && !storage.IsStale(cached.UpdatedAt, now, a.ttl) {
		a.metrics.CategoryResult(string(spec.Name), StateCacheHit, time.Since(began))
		return cached.Articles
	}

	articles := a.merge(spec, a.fetch(ctx, spec), now)
	if len(articles) > 0 {
		if a.enricher != nil {
			articles = a.enricher.Enrich(ctx, articles)
		}
		if err := a.store.Put(ctx, spec.Name, articles, now); err != nil {
			log.Printf("aggregator: save %s cache error: %v", spec.Name, err)
			a.metrics.StoreError("put")
		}
		log.Printf("aggregator: %s done, sources=%d articles=%d", spec.Name, len(spec.Sources), len(articles))
		a.metrics.CategoryResult(string(spec.Name), StateFresh, time.Since(began))
		return articles
	}

	articles, state := a.fallback(spec, cached, hasCached, now)
	log.Printf("aggregator: %s got 0 fresh articles, fallback=%s", spec.Name, state)
	a.metrics.CategoryResult(string(spec.Name), state, time.Since(began))
	return articles
}

// fetch 并发请求分区的所有数据源，等全部结束；结果按配置顺序放在对应下标，失败的位置为 nil
func (a *Aggregator) fetch(ctx context.Context, spec config.CategorySpec) [][]byte {
	payloads := make([][]byte, len(spec.Sources))

	var wg sync.WaitGroup
	for i, src := range spec.Sources {
		adapter, ok := a.adapters[src.Provider]
		if !ok {
			log.Printf("aggregator: %s has no adapter for %s", spec.Name, src.Provider)
			continue
		}
		wg.Add(1)
		go func(i int, src config.SourceSpec, adapter collector.Adapter) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("aggregator: %s fetch from %s panicked: %v", spec.Name, src.Provider, r)
				}
			}()
			payloads[i] = adapter.Fetch(ctx, src.Endpoint, src.Params)
		}(i, src, adapter)
	}
	wg.Wait()

	return payloads
}

func (a *Aggregator) merge(spec config.CategorySpec, payloads [][]byte, now time.Time) []model.Article {
	var all []model.Article
	for i, raw := range payloads {
		if raw == nil {
			continue
		}
		all = append(all, a.normalizer.Normalize(spec.Sources[i].Provider, raw, now)...)
	}
	return a.ranker.Rank(processor.Dedupe(all), now)
}

// fallback 顺序：上一次的缓存（哪怕已过期）> 分区自带的 mock（需开启 MOCK_FALLBACK）> 空列表
func (a *Aggregator) fallback(spec config.CategorySpec, cached storage.Entry, hasCached bool, now time.Time) ([]model.Article, string) {
	if hasCached {
		if cached.Articles == nil {
			return []model.Article{}, StateStale
		}
		return cached.Articles, StateStale
	}
	if a.mockFallback && spec.Mock != nil {
		return []model.Article{spec.Mock.Article(now)}, StateMock
	}
	return []model.Article{}, StateEmpty
}

// FetchAll 八个分区同时聚合，全部结束后按固定顺序返回；单个分区出错不影响其他分区
func (a *Aggregator) FetchAll(ctx context.Context) []Outcome {
	categories := model.Categories()
	out := make([]Outcome, len(categories))

	var wg sync.WaitGroup
	for i, c := range categories {
		wg.Add(1)
		go func(i int, c model.Category) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("aggregator: %s panicked: %v", c, r)
					out[i] = Outcome{
						Category: c,
						Status:   StatusRejected,
						Articles: []model.Article{},
						Error:    fmt.Sprint(r),
					}
				}
			}()
			out[i] = Outcome{
				Category: c,
				Status:   StatusFulfilled,
				Articles: a.FetchCategory(ctx, c),
			}
		}(i, c)
	}
	wg.Wait()

	return out
}

// ForceRefreshAll 先清空缓存再全量聚合
func (a *Aggregator) ForceRefreshAll(ctx context.Context) []Outcome {
	if err := a.store.Clear(ctx); err != nil {
		log.Printf("aggregator: clear cache before refresh error: %v", err)
		a.metrics.StoreError("clear")
	}
	return a.FetchAll(ctx)
}
