package processor

import (
	"encoding/json"
	"html"
	"log"
	"strings"
	"time"

	"github.com/LJTian/NewsDesk/internal/model"
	"github.com/microcosm-cc/bluemonday"
)

const (
	guardianSourceName = "The Guardian"
	nytSourceName      = "The New York Times"
	nytMediaHost       = "https://static01.nyt.com/"
)

type normalizeFunc func(raw []byte, now time.Time) []model.Article

// Normalizer 把各数据源的原始 JSON 转成统一的 Article。
// 按数据源身份查表分发，单条记录解析失败直接跳过
type Normalizer struct {
	table  map[model.Provider]normalizeFunc
	policy *bluemonday.Policy
}

func NewNormalizer() *Normalizer {
	n := &Normalizer{policy: bluemonday.StrictPolicy()}
	n.table = map[model.Provider]normalizeFunc{
		model.ProviderNewsAPI:  n.newsAPI,
		model.ProviderGuardian: n.guardian,
		model.ProviderNYTimes:  n.nytimes,
	}
	return n
}

func (n *Normalizer) Normalize(provider model.Provider, raw []byte, now time.Time) []model.Article {
	if len(raw) == 0 {
		return nil
	}
	fn, ok := n.table[provider]
	if !ok {
		log.Printf("normalizer: no normalizer for provider %q", provider)
		return nil
	}
	out := fn(raw, now)
	log.Printf("normalizer: %s produced %d articles", provider, len(out))
	return out
}

type newsAPIArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URLToImage  string `json:"urlToImage"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
	PublishedAt string `json:"publishedAt"`
	URL         string `json:"url"`
}

func (n *Normalizer) newsAPI(raw []byte, now time.Time) []model.Article {
	var env struct {
		Articles []json.RawMessage `json:"articles"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("normalizer: newsapi envelope: %v", err)
		return nil
	}

	out := make([]model.Article, 0, len(env.Articles))
	for _, rec := range env.Articles {
		var it newsAPIArticle
		if err := json.Unmarshal(rec, &it); err != nil {
			continue
		}
		if a, ok := n.build(model.ProviderNewsAPI, it.Title, it.Description, it.URLToImage, it.Source.Name, it.PublishedAt, it.URL, now); ok {
			out = append(out, a)
		}
	}
	return out
}

type guardianResult struct {
	WebTitle           string `json:"webTitle"`
	WebURL             string `json:"webUrl"`
	WebPublicationDate string `json:"webPublicationDate"`
	Fields             struct {
		TrailText string `json:"trailText"`
		Thumbnail string `json:"thumbnail"`
	} `json:"fields"`
}

func (n *Normalizer) guardian(raw []byte, now time.Time) []model.Article {
	var env struct {
		Response struct {
			Results []json.RawMessage `json:"results"`
		} `json:"response"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("normalizer: guardian envelope: %v", err)
		return nil
	}

	out := make([]model.Article, 0, len(env.Response.Results))
	for _, rec := range env.Response.Results {
		var it guardianResult
		if err := json.Unmarshal(rec, &it); err != nil {
			continue
		}
		summary := it.Fields.TrailText
		if strings.TrimSpace(summary) == "" {
			summary = it.WebTitle
		}
		if a, ok := n.build(model.ProviderGuardian, it.WebTitle, summary, it.Fields.Thumbnail, guardianSourceName, it.WebPublicationDate, it.WebURL, now); ok {
			out = append(out, a)
		}
	}
	return out
}

// nytDoc 同时覆盖 articlesearch 的 docs 和其它接口的 results 两种记录
type nytDoc struct {
	Headline struct {
		Main string `json:"main"`
	} `json:"headline"`
	Title         string          `json:"title"`
	Abstract      string          `json:"abstract"`
	Snippet       string          `json:"snippet"`
	Multimedia    json.RawMessage `json:"multimedia"`
	PubDate       string          `json:"pub_date"`
	PublishedDate string          `json:"published_date"`
	WebURL        string          `json:"web_url"`
	URL           string          `json:"url"`
}

func (n *Normalizer) nytimes(raw []byte, now time.Time) []model.Article {
	var env struct {
		Response *struct {
			Docs []json.RawMessage `json:"docs"`
		} `json:"response"`
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("normalizer: nytimes envelope: %v", err)
		return nil
	}

	records := env.Results
	if env.Response != nil && env.Response.Docs != nil {
		records = env.Response.Docs
	}

	out := make([]model.Article, 0, len(records))
	for _, rec := range records {
		var it nytDoc
		if err := json.Unmarshal(rec, &it); err != nil {
			continue
		}
		headline := firstNonEmpty(it.Headline.Main, it.Title)
		summary := firstNonEmpty(it.Abstract, it.Snippet)
		published := firstNonEmpty(it.PubDate, it.PublishedDate)
		link := firstNonEmpty(it.WebURL, it.URL)
		if a, ok := n.build(model.ProviderNYTimes, headline, summary, nytImage(it.Multimedia), nytSourceName, published, link, now); ok {
			out = append(out, a)
		}
	}
	return out
}

// nytImage multimedia 可能是数组（旧接口）也可能是 {default:{url}} 对象；相对路径补上媒体域名
func nytImage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var img string
	var list []struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) > 0 {
			img = list[0].URL
		}
	} else {
		var obj struct {
			Default struct {
				URL string `json:"url"`
			} `json:"default"`
			URL string `json:"url"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil {
			img = firstNonEmpty(obj.Default.URL, obj.URL)
		}
	}

	img = strings.TrimSpace(img)
	if img == "" {
		return ""
	}
	if strings.HasPrefix(img, "http://") || strings.HasPrefix(img, "https://") {
		return img
	}
	return nytMediaHost + strings.TrimLeft(img, "/")
}

// build 统一做字段清洗；标题、链接为空或时间无法解析的记录丢弃
func (n *Normalizer) build(provider model.Provider, headline, summary, image, source, published, link string, now time.Time) (model.Article, bool) {
	headline = strings.TrimSpace(headline)
	link = strings.TrimSpace(link)
	if headline == "" || link == "" {
		return model.Article{}, false
	}

	publishedAt, ok := parseTime(strings.TrimSpace(published))
	if !ok {
		return model.Article{}, false
	}

	image = strings.TrimSpace(image)
	if image == "" {
		image = model.PlaceholderImage
	}

	return model.Article{
		Headline:       headline,
		Summary:        n.plainText(summary),
		ImageURL:       image,
		SourceName:     strings.TrimSpace(source),
		PublishedAt:    publishedAt,
		DisplayTime:    DisplayTime(publishedAt, now),
		URL:            link,
		OriginProvider: provider,
	}, true
}

// plainText 去掉摘要里的 HTML 标签（Guardian 的 trailText 常带 <strong> 等）
func (n *Normalizer) plainText(s string) string {
	s = html.UnescapeString(n.policy.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
