package collector

import (
	"context"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/LJTian/NewsDesk/internal/model"
	"github.com/gocolly/colly/v2"
)

const (
	enrichConcurrency   = 4
	enrichClientTimeout = 5 * time.Second
)

// ImageEnricher 给仍是占位图的文章补上原文页面里的 og:image
type ImageEnricher struct {
	timeout     time.Duration
	concurrency int
}

func NewImageEnricher(timeout time.Duration) *ImageEnricher {
	if timeout <= 0 {
		timeout = enrichClientTimeout
	}
	return &ImageEnricher{timeout: timeout, concurrency: enrichConcurrency}
}

// Enrich 返回新的切片，只改 ImageURL，不改顺序和其它字段
func (e *ImageEnricher) Enrich(ctx context.Context, articles []model.Article) []model.Article {
	out := make([]model.Article, len(articles))
	copy(out, articles)

	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, e.concurrency)
	)

	for i := range out {
		if out[i].ImageURL != model.PlaceholderImage && out[i].ImageURL != "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			if img := e.lookup(out[idx].URL); img != "" {
				out[idx].ImageURL = img
			}
		}(i)
	}
	wg.Wait()

	return out
}

// isFetchableURL 只访问 http(s) 的原文链接，上游给的 javascript:、file: 等一律跳过
func isFetchableURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

func (e *ImageEnricher) lookup(pageURL string) string {
	if !isFetchableURL(pageURL) {
		return ""
	}
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.MaxBodySize(maxResponseBytes),
	)
	c.SetRequestTimeout(e.timeout)

	var image string
	c.OnHTML(`meta[property="og:image"], meta[name="twitter:image"]`, func(el *colly.HTMLElement) {
		if image != "" {
			return
		}
		content := strings.TrimSpace(el.Attr("content"))
		if content == "" {
			return
		}
		image = el.Request.AbsoluteURL(content)
	})

	if err := c.Visit(pageURL); err != nil {
		log.Printf("enrich: visit %s: %v", pageURL, err)
		return ""
	}
	if !strings.HasPrefix(image, "http://") && !strings.HasPrefix(image, "https://") {
		return ""
	}
	return image
}
