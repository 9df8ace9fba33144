package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// 缓存后端
const (
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// RankingWeights 排序权重。目前打分只用到时效和来源可信度，
// relevance / engagement 仅保留配置位，打分函数不读取
type RankingWeights struct {
	Recency    float64
	Relevance  float64
	Source     float64
	Engagement float64
}

type Config struct {
	AppPort string

	NewsAPIKey  string
	GuardianKey string
	NYTimesKey  string

	NewsAPIBaseURL  string
	GuardianBaseURL string
	NYTimesBaseURL  string

	CacheBackend string
	SQLitePath   string
	RedisAddr    string
	PostgresDSN  string

	// RefreshInterval 缓存多久算过期
	RefreshInterval time.Duration
	// CheckCron 定时检查新内容的 cron 表达式
	CheckCron string

	MaxArticles    int
	MockFallback   bool
	HTTPTimeout    time.Duration
	ProviderRate   float64
	EnrichImages   bool
	CategoriesFile string

	// 可选的全站 Basic Auth，两个都配置了才启用
	BasicAuthUser string
	BasicAuthPass string

	RankingWeights RankingWeights
}

func Load() *Config {
	cfg := &Config{
		AppPort: getEnv("APP_PORT", "9000"),

		NewsAPIKey:  getEnv("NEWSAPI_KEY", ""),
		GuardianKey: getEnv("GUARDIAN_KEY", ""),
		NYTimesKey:  getEnv("NYTIMES_KEY", ""),

		NewsAPIBaseURL:  getEnv("NEWSAPI_BASE_URL", "https://newsapi.org/v2"),
		GuardianBaseURL: getEnv("GUARDIAN_BASE_URL", "https://content.guardianapis.com"),
		NYTimesBaseURL:  getEnv("NYTIMES_BASE_URL", "https://api.nytimes.com/svc"),

		CacheBackend: strings.ToLower(getEnv("CACHE_BACKEND", BackendSQLite)),
		SQLitePath:   getEnv("SQLITE_PATH", DefaultSQLitePath()),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6380"),
		PostgresDSN:  getEnv("POSTGRES_DSN", "host=localhost user=newsdesk password=newsdesk dbname=newsdesk port=5432 sslmode=disable TimeZone=UTC"),

		RefreshInterval: getEnvMillis("REFRESH_INTERVAL_MS", 24*time.Hour),
		CheckCron:       getEnv("CHECK_CRON", "0 */6 * * *"),

		MaxArticles:    getEnvInt("MAX_ARTICLES", 10),
		MockFallback:   getEnvBool("MOCK_FALLBACK", false),
		HTTPTimeout:    getEnvDuration("HTTP_TIMEOUT", 10*time.Second),
		ProviderRate:   getEnvFloat("PROVIDER_RATE_PER_SEC", 0),
		EnrichImages:   getEnvBool("ENRICH_IMAGES", false),
		CategoriesFile: getEnv("CATEGORIES_FILE", ""),

		BasicAuthUser: getEnv("APP_BASIC_USER", ""),
		BasicAuthPass: getEnv("APP_BASIC_PASS", ""),

		RankingWeights: RankingWeights{
			Recency:    0.3,
			Relevance:  0.4,
			Source:     0.2,
			Engagement: 0.1,
		},
	}

	if cfg.MaxArticles <= 0 {
		cfg.MaxArticles = 10
	}

	log.Printf("config loaded: port=%s cache=%s refresh=%s cron=%s max=%d mock=%t weights=%+v",
		cfg.AppPort, cfg.CacheBackend, cfg.RefreshInterval, cfg.CheckCron, cfg.MaxArticles, cfg.MockFallback, cfg.RankingWeights)
	return cfg
}

// DefaultSQLitePath 本地缓存文件默认放在 XDG cache 目录下
func DefaultSQLitePath() string {
	return filepath.Join(xdg.CacheHome, "newsdesk", "newsdesk.db")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func getEnvFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

// getEnvMillis 读取毫秒数，和前端配置里 updateIntervals 的单位保持一致
func getEnvMillis(key string, def time.Duration) time.Duration {
	ms, err := strconv.ParseInt(getEnv(key, ""), 10, 64)
	if err != nil || ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
