package processor

import (
	"sort"
	"time"

	"github.com/LJTian/NewsDesk/internal/model"
)

const (
	DefaultLimit = 10

	maxRecencyScore    = 100.0
	defaultSourceScore = 5.0
)

// sourceCredibility 来源可信度加分，未列出的来源统一 5 分
var sourceCredibility = map[string]float64{
	"The New York Times": 10,
	"The Guardian":       9,
	"BBC News":           8,
	"Reuters":            8,
	"Associated Press":   8,
	"CNN":                7,
}

// Ranker 按 时效 + 来源可信度 打分排序。
// 同一批输入、同一个 now 下结果确定，可重复排序
type Ranker struct {
	limit int
}

func NewRanker(limit int) *Ranker {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Ranker{limit: limit}
}

// Score 时效分 = 100 - 发布天数（可带小数），限制在 [0, 100]；
// 时间戳在未来时不会超过 100
func (r *Ranker) Score(a model.Article, now time.Time) float64 {
	ageDays := now.Sub(a.PublishedAt).Hours() / 24
	recency := maxRecencyScore - ageDays
	if recency < 0 {
		recency = 0
	}
	if recency > maxRecencyScore {
		recency = maxRecencyScore
	}
	return recency + credibility(a.SourceName)
}

func credibility(source string) float64 {
	if v, ok := sourceCredibility[source]; ok {
		return v
	}
	return defaultSourceScore
}

// Rank 过滤缺标题/链接的文章，稳定排序后截断到 limit 条
func (r *Ranker) Rank(articles []model.Article, now time.Time) []model.Article {
	type scored struct {
		article model.Article
		score   float64
	}

	items := make([]scored, 0, len(articles))
	for _, a := range articles {
		if !a.Displayable() {
			continue
		}
		items = append(items, scored{article: a, score: r.Score(a, now)})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})

	if len(items) > r.limit {
		items = items[:r.limit]
	}

	out := make([]model.Article, 0, len(items))
	for _, it := range items {
		out = append(out, it.article)
	}
	return out
}
