package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/LJTian/NewsDesk/internal/config"
	"github.com/LJTian/NewsDesk/internal/model"
	"github.com/alicebob/miniredis/v2"
	"gorm.io/driver/sqlite"
)

var t0 = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

func sampleArticles(urls ...string) []model.Article {
	out := make([]model.Article, 0, len(urls))
	for _, u := range urls {
		out = append(out, model.Article{
			Headline:       "headline " + u,
			Summary:        "summary",
			ImageURL:       model.PlaceholderImage,
			SourceName:     "The Guardian",
			PublishedAt:    t0.Add(-time.Hour),
			DisplayTime:    "1h ago",
			URL:            u,
			OriginProvider: model.ProviderGuardian,
		})
	}
	return out
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewRedisStore(mr.Addr())
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := NewSQLStore(sqlite.Open(filepath.Join(t.TempDir(), "cache.db")))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// 各后端共用的行为
func backends(t *testing.T) map[string]Store {
	redisStore, _ := newRedisStore(t)
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  redisStore,
		"sqlite": newSQLiteStore(t),
	}
}

func TestStoreEmpty(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		snap, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("%s: load: %v", name, err)
		}
		if snap.LastUpdate != nil || len(snap.Data) != 0 {
			t.Fatalf("%s: expected empty snapshot, got %+v", name, snap)
		}
		if _, ok, err := s.Get(ctx, model.TopStories); ok || err != nil {
			t.Fatalf("%s: expected miss, got ok=%v err=%v", name, ok, err)
		}
		last, err := s.LastUpdate(ctx)
		if err != nil || !last.IsZero() {
			t.Fatalf("%s: expected zero last update, got %v err=%v", name, last, err)
		}
	}
}

func TestStorePutGet(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		in := sampleArticles("https://a", "https://b")
		if err := s.Put(ctx, model.USNews, in, t0); err != nil {
			t.Fatalf("%s: put: %v", name, err)
		}

		e, ok, err := s.Get(ctx, model.USNews)
		if err != nil || !ok {
			t.Fatalf("%s: get: ok=%v err=%v", name, ok, err)
		}
		if !e.UpdatedAt.Equal(t0) {
			t.Fatalf("%s: updatedAt = %v, want %v", name, e.UpdatedAt, t0)
		}
		if len(e.Articles) != 2 || e.Articles[0].URL != "https://a" || e.Articles[1].URL != "https://b" {
			t.Fatalf("%s: unexpected articles %+v", name, e.Articles)
		}
		if e.Articles[0].OriginProvider != model.ProviderGuardian || !e.Articles[0].PublishedAt.Equal(t0.Add(-time.Hour)) {
			t.Fatalf("%s: article fields lost: %+v", name, e.Articles[0])
		}

		// 覆盖写
		if err := s.Put(ctx, model.USNews, sampleArticles("https://c"), t0.Add(time.Minute)); err != nil {
			t.Fatalf("%s: overwrite: %v", name, err)
		}
		e, _, _ = s.Get(ctx, model.USNews)
		if len(e.Articles) != 1 || e.Articles[0].URL != "https://c" {
			t.Fatalf("%s: overwrite not applied: %+v", name, e.Articles)
		}
	}
}

func TestStoreCategoriesIndependent(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		older := t0.Add(-48 * time.Hour)
		if err := s.Put(ctx, model.Opinion, sampleArticles("https://op"), older); err != nil {
			t.Fatalf("%s: put opinion: %v", name, err)
		}
		if err := s.Put(ctx, model.NYNews, sampleArticles("https://ny"), t0); err != nil {
			t.Fatalf("%s: put nyNews: %v", name, err)
		}

		snap, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("%s: load: %v", name, err)
		}
		if len(snap.Data) != 2 {
			t.Fatalf("%s: expected 2 entries, got %d", name, len(snap.Data))
		}
		if !snap.Data[model.Opinion].UpdatedAt.Equal(older) {
			t.Fatalf("%s: opinion lost its own timestamp: %v", name, snap.Data[model.Opinion].UpdatedAt)
		}
		if snap.LastUpdate == nil || !snap.LastUpdate.Equal(t0) {
			t.Fatalf("%s: lastUpdate = %v, want %v", name, snap.LastUpdate, t0)
		}

		// 旧时间写入不会让 lastUpdate 倒退
		if err := s.Put(ctx, model.Opinion, sampleArticles("https://op2"), older.Add(time.Hour)); err != nil {
			t.Fatalf("%s: put opinion again: %v", name, err)
		}
		last, err := s.LastUpdate(ctx)
		if err != nil || !last.Equal(t0) {
			t.Fatalf("%s: lastUpdate = %v err=%v, want %v", name, last, err, t0)
		}
	}
}

func TestStoreClear(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		for _, c := range []model.Category{model.TopStories, model.NYEvents} {
			if err := s.Put(ctx, c, sampleArticles("https://"+string(c)), t0); err != nil {
				t.Fatalf("%s: put: %v", name, err)
			}
		}
		if err := s.Clear(ctx); err != nil {
			t.Fatalf("%s: clear: %v", name, err)
		}
		snap, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("%s: load: %v", name, err)
		}
		if len(snap.Data) != 0 || snap.LastUpdate != nil {
			t.Fatalf("%s: expected empty after clear, got %+v", name, snap)
		}
		// 空缓存再清一次也没问题
		if err := s.Clear(ctx); err != nil {
			t.Fatalf("%s: second clear: %v", name, err)
		}
	}
}

func TestStoreConcurrentPuts(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		var wg sync.WaitGroup
		for i, c := range model.Categories() {
			wg.Add(1)
			go func(i int, c model.Category) {
				defer wg.Done()
				if err := s.Put(ctx, c, sampleArticles("https://"+string(c)), t0.Add(time.Duration(i)*time.Second)); err != nil {
					t.Errorf("%s: put %s: %v", name, c, err)
				}
			}(i, c)
		}
		wg.Wait()

		snap, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("%s: load: %v", name, err)
		}
		if len(snap.Data) != len(model.Categories()) {
			t.Fatalf("%s: expected %d entries, got %d", name, len(model.Categories()), len(snap.Data))
		}
	}
}

func TestRedisCorruptedEntry(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)

	if err := s.Put(ctx, model.TopStories, sampleArticles("https://ok"), t0); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := mr.Set(entryKey(model.GlobalNews), "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, _, err := s.Get(ctx, model.GlobalNews); err == nil {
		t.Fatalf("expected decode error for corrupted entry")
	}
	snap, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Data) != 1 {
		t.Fatalf("expected corrupted entry to be skipped, got %d entries", len(snap.Data))
	}
}

func TestRedisKeyLayout(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)

	if err := s.Put(ctx, model.ArtsCulture, sampleArticles("https://x"), t0); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !mr.Exists("newsdesk:cache:category:artsCulture") {
		t.Fatalf("expected per-category key, have %v", mr.Keys())
	}
	if ttl := mr.TTL("newsdesk:cache:category:artsCulture"); ttl != 0 {
		t.Fatalf("entry must not expire on its own, ttl=%v", ttl)
	}
}

func TestSQLCorruptedEntry(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	if err := s.Put(ctx, model.FashionTrends, sampleArticles("https://f"), t0); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.DB.Exec("UPDATE category_caches SET articles = ? WHERE category = ?", "oops", "fashionTrends").Error; err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	if _, _, err := s.Get(ctx, model.FashionTrends); err == nil {
		t.Fatalf("expected decode error for corrupted row")
	}
	snap, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Data) != 0 {
		t.Fatalf("expected corrupted row to be skipped, got %+v", snap.Data)
	}
}

func TestIsStale(t *testing.T) {
	ttl := 24 * time.Hour
	cases := []struct {
		name string
		last time.Time
		want bool
	}{
		{"absent", time.Time{}, true},
		{"25h", t0.Add(-25 * time.Hour), true},
		{"1h", t0.Add(-time.Hour), false},
		{"exactly ttl", t0.Add(-ttl), false},
		{"future", t0.Add(time.Hour), false},
	}
	for _, c := range cases {
		if got := IsStale(c.last, t0, ttl); got != c.want {
			t.Fatalf("%s: IsStale = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(&config.Config{CacheBackend: config.BackendMemory})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Fatalf("expected MemoryStore, got %T", s)
	}

	path := filepath.Join(t.TempDir(), "nested", "dir", "newsdesk.db")
	s, err = Open(&config.Config{CacheBackend: config.BackendSQLite, SQLitePath: path})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer s.Close()
	if err := s.Put(context.Background(), model.NYEvents, sampleArticles("https://e"), t0); err != nil {
		t.Fatalf("put: %v", err)
	}

	if _, err := Open(&config.Config{CacheBackend: "cassandra"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
