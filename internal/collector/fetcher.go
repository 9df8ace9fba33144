package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/LJTian/NewsDesk/internal/config"
	"github.com/LJTian/NewsDesk/internal/metrics"
	"github.com/LJTian/NewsDesk/internal/model"
	"golang.org/x/time/rate"
)

const (
	maxResponseBytes     = 4 << 20 // 4MB
	defaultClientTimeout = 10 * time.Second
	userAgent            = "NewsDeskBot/1.0"
)

// Adapter 抽象每一个新闻数据源：拼请求、发请求、返回原始 JSON。
// 任何失败都返回 nil 并打日志，调用方不需要处理错误
type Adapter interface {
	Provider() model.Provider
	Fetch(ctx context.Context, endpoint string, params map[string]string) []byte
}

// Options 各数据源共用的可选项
type Options struct {
	Client     *http.Client
	RatePerSec float64
	Metrics    *metrics.Metrics
}

// HTTPAdapter 三个数据源都是 GET + query 参数里带密钥的 JSON 接口，差别只在地址和密钥参数名
type HTTPAdapter struct {
	provider model.Provider
	name     string
	baseURL  string
	keyParam string
	apiKey   string

	client  *http.Client
	limiter *rate.Limiter
	metrics *metrics.Metrics
}

func newHTTPAdapter(provider model.Provider, name, baseURL, keyParam, apiKey string, opts Options) *HTTPAdapter {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: defaultClientTimeout}
	}
	var limiter *rate.Limiter
	if opts.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), 1)
	}
	return &HTTPAdapter{
		provider: provider,
		name:     name,
		baseURL:  strings.TrimRight(baseURL, "/"),
		keyParam: keyParam,
		apiKey:   apiKey,
		client:   client,
		limiter:  limiter,
		metrics:  opts.Metrics,
	}
}

func (a *HTTPAdapter) Provider() model.Provider {
	return a.provider
}

func (a *HTTPAdapter) Fetch(ctx context.Context, endpoint string, params map[string]string) []byte {
	if !keyConfigured(a.apiKey) {
		log.Printf("%s: api key not configured, skipping", a.name)
		a.metrics.ProviderRequest(string(a.provider), "no_key")
		return nil
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			log.Printf("%s: rate limit wait: %v", a.name, err)
			a.metrics.ProviderRequest(string(a.provider), "rate_limited")
			return nil
		}
	}

	reqURL, err := a.buildURL(endpoint, params)
	if err != nil {
		log.Printf("%s: build url: %v", a.name, err)
		a.metrics.ProviderRequest(string(a.provider), "bad_request")
		return nil
	}

	body, err := a.get(ctx, reqURL)
	if err != nil {
		log.Printf("%s: fetch %s: %v", a.name, endpoint, err)
		a.metrics.ProviderRequest(string(a.provider), "error")
		return nil
	}

	a.metrics.ProviderRequest(string(a.provider), "ok")
	return body
}

func (a *HTTPAdapter) buildURL(endpoint string, params map[string]string) (string, error) {
	u, err := url.Parse(a.baseURL + endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(a.keyParam, a.apiKey)
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (a *HTTPAdapter) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		// url.Error 会带上完整地址（含密钥），日志里只保留底层错误
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return nil, uerr.Err
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if !json.Valid(body) {
		return nil, errors.New("response is not valid json")
	}
	return body, nil
}

// keyConfigured 空密钥和 "your-xxx-key-here" 这类占位符都视为未配置
func keyConfigured(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	if strings.HasPrefix(key, "your-") && strings.HasSuffix(key, "-key-here") {
		return false
	}
	return true
}

// FromConfig 按配置创建全部数据源
func FromConfig(cfg *config.Config, m *metrics.Metrics) map[model.Provider]Adapter {
	opts := Options{
		Client:     &http.Client{Timeout: cfg.HTTPTimeout},
		RatePerSec: cfg.ProviderRate,
		Metrics:    m,
	}
	return map[model.Provider]Adapter{
		model.ProviderNewsAPI:  NewNewsAPI(cfg.NewsAPIBaseURL, cfg.NewsAPIKey, opts),
		model.ProviderGuardian: NewGuardian(cfg.GuardianBaseURL, cfg.GuardianKey, opts),
		model.ProviderNYTimes:  NewNYTimes(cfg.NYTimesBaseURL, cfg.NYTimesKey, opts),
	}
}
