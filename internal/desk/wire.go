package desk

import (
	"fmt"
	"log"

	"github.com/LJTian/NewsDesk/internal/aggregator"
	"github.com/LJTian/NewsDesk/internal/collector"
	"github.com/LJTian/NewsDesk/internal/config"
	"github.com/LJTian/NewsDesk/internal/metrics"
	"github.com/LJTian/NewsDesk/internal/processor"
	"github.com/LJTian/NewsDesk/internal/storage"
)

// FromConfig 按配置组装完整的 Desk：分区表、数据源、缓存后端、排序，以及可选的补图。
// 用完需要 Close 释放缓存连接
func FromConfig(cfg *config.Config, m *metrics.Metrics) (*Desk, error) {
	cats, err := config.LoadCategories(cfg.CategoriesFile)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	store, err := storage.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", cfg.CacheBackend, err)
	}

	opts := aggregator.Options{
		Categories:   cats,
		Adapters:     collector.FromConfig(cfg, m),
		Normalizer:   processor.NewNormalizer(),
		Ranker:       processor.NewRanker(cfg.MaxArticles),
		Store:        store,
		Metrics:      m,
		TTL:          cfg.RefreshInterval,
		MockFallback: cfg.MockFallback,
	}
	if cfg.EnrichImages {
		opts.Enricher = collector.NewImageEnricher(cfg.HTTPTimeout)
	}

	log.Printf("desk: ready, cache=%s categories=%d enrich=%t", cfg.CacheBackend, len(cats), cfg.EnrichImages)
	return New(aggregator.New(opts), store, cfg.RefreshInterval), nil
}

func (d *Desk) Close() error {
	return d.store.Close()
}
