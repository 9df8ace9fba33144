package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/LJTian/NewsDesk/internal/model"
)

func TestGetEnvWithDefault(t *testing.T) {
	const key = "TEST_APP_PORT"

	// 环境变量未设置时，应该返回默认值
	_ = os.Unsetenv(key)
	if got := getEnv(key, "9000"); got != "9000" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "9000")
	}

	// 环境变量设置后，应优先返回环境变量
	t.Setenv(key, "8080")
	if got := getEnv(key, "9000"); got != "8080" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "8080")
	}
}

func TestLoadReadsIntervalsAndFlags(t *testing.T) {
	t.Setenv("APP_PORT", "1234")
	t.Setenv("REFRESH_INTERVAL_MS", "3600000")
	t.Setenv("MOCK_FALLBACK", "true")
	t.Setenv("MAX_ARTICLES", "-3")
	t.Setenv("CACHE_BACKEND", "Redis")
	t.Setenv("HTTP_TIMEOUT", "bogus")

	cfg := Load()
	if cfg.AppPort != "1234" {
		t.Fatalf("AppPort = %q, want %q", cfg.AppPort, "1234")
	}
	if cfg.RefreshInterval != time.Hour {
		t.Fatalf("RefreshInterval = %s, want 1h", cfg.RefreshInterval)
	}
	if !cfg.MockFallback {
		t.Fatalf("MockFallback should be true")
	}
	if cfg.MaxArticles != 10 {
		t.Fatalf("MaxArticles = %d, want fallback 10", cfg.MaxArticles)
	}
	if cfg.CacheBackend != BackendRedis {
		t.Fatalf("CacheBackend = %q, want %q", cfg.CacheBackend, BackendRedis)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Fatalf("HTTPTimeout = %s, want default 10s", cfg.HTTPTimeout)
	}
}

func TestLoadDefaultRefreshIsOneDay(t *testing.T) {
	_ = os.Unsetenv("REFRESH_INTERVAL_MS")
	cfg := Load()
	if cfg.RefreshInterval != 24*time.Hour {
		t.Fatalf("RefreshInterval = %s, want 24h", cfg.RefreshInterval)
	}
}

func TestLoadCategoriesDefaults(t *testing.T) {
	cats, err := LoadCategories("")
	if err != nil {
		t.Fatalf("LoadCategories: %v", err)
	}
	if len(cats) != len(model.Categories()) {
		t.Fatalf("expected %d categories, got %d", len(model.Categories()), len(cats))
	}

	top := cats[model.TopStories]
	if top.BypassCache {
		t.Fatalf("topStories should use the cache")
	}
	if len(top.Sources) != 3 || top.Sources[0].Provider != model.ProviderNewsAPI {
		t.Fatalf("unexpected topStories sources: %+v", top.Sources)
	}
	if top.Mock == nil {
		t.Fatalf("topStories should define a mock article")
	}

	// 低流量分区绕过缓存，且没有 mock
	for _, name := range []model.Category{model.Opinion, model.ArtsCulture, model.FashionTrends, model.NYEvents} {
		spec := cats[name]
		if !spec.BypassCache {
			t.Fatalf("%s should bypass cache", name)
		}
		if spec.Mock != nil {
			t.Fatalf("%s should not define a mock article", name)
		}
	}
}

func TestLoadCategoriesOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	body := `
categories:
  - name: opinion
    bypassCache: false
    sources:
      - provider: newsapi
        endpoint: /everything
        params:
          q: editorial
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cats, err := LoadCategories(path)
	if err != nil {
		t.Fatalf("LoadCategories: %v", err)
	}
	op := cats[model.Opinion]
	if op.BypassCache || len(op.Sources) != 1 || op.Sources[0].Params["q"] != "editorial" {
		t.Fatalf("override not applied: %+v", op)
	}
	// 未覆盖的分区保持默认
	if len(cats[model.TopStories].Sources) != 3 {
		t.Fatalf("topStories should keep defaults")
	}
}

func TestLoadCategoriesRejectsUnknownProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	body := `
categories:
  - name: topStories
    sources:
      - provider: bbc
        endpoint: /search
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadCategories(path); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestCategoriesLookup(t *testing.T) {
	cats := Categories{}
	if _, ok := cats.Lookup("sports"); ok {
		t.Fatalf("unknown category should not be found")
	}
	spec, ok := cats.Lookup(model.NYEvents)
	if !ok || spec.Name != model.NYEvents || len(spec.Sources) != 0 {
		t.Fatalf("known but unconfigured category should resolve to empty spec, got %+v", spec)
	}
}

func TestMockArticleDefaultsImage(t *testing.T) {
	now := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)
	a := MockArticle{Headline: "h", URL: "https://example.com"}.Article(now)
	if a.ImageURL != model.PlaceholderImage || a.OriginProvider != model.ProviderMock || !a.PublishedAt.Equal(now) {
		t.Fatalf("unexpected mock article: %+v", a)
	}
}
