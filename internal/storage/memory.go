package storage

import (
	"context"
	"sync"
	"time"

	"github.com/LJTian/NewsDesk/internal/model"
)

// MemoryStore 进程内缓存，重启即丢，主要给测试和 CACHE_BACKEND=memory 用
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[model.Category]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[model.Category]Entry)}
}

func (m *MemoryStore) Load(ctx context.Context) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[model.Category]Entry, len(m.entries))
	for k, e := range m.entries {
		out[k] = Entry{Articles: cloneArticles(e.Articles), UpdatedAt: e.UpdatedAt}
	}
	return snapshotOf(out), nil
}

func (m *MemoryStore) Get(ctx context.Context, category model.Category) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[category]
	if !ok {
		return Entry{}, false, nil
	}
	return Entry{Articles: cloneArticles(e.Articles), UpdatedAt: e.UpdatedAt}, true, nil
}

func (m *MemoryStore) Put(ctx context.Context, category model.Category, articles []model.Article, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[category] = Entry{Articles: cloneArticles(articles), UpdatedAt: at}
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[model.Category]Entry)
	return nil
}

func (m *MemoryStore) LastUpdate(ctx context.Context) (time.Time, error) {
	snap, _ := m.Load(ctx)
	if snap.LastUpdate == nil {
		return time.Time{}, nil
	}
	return *snap.LastUpdate, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
