package model

import "time"

// Provider 标识文章来自哪个上游数据源
type Provider string

const (
	ProviderNewsAPI  Provider = "newsapi"
	ProviderGuardian Provider = "guardian"
	ProviderNYTimes  Provider = "nytimes"
	ProviderMock     Provider = "mock"
)

// Valid 仅认可三个真实数据源；mock 只能由兜底逻辑产生，不能出现在分类配置里
func (p Provider) Valid() bool {
	switch p {
	case ProviderNewsAPI, ProviderGuardian, ProviderNYTimes:
		return true
	}
	return false
}

// Category 页面上固定的 8 个内容分区
type Category string

const (
	TopStories    Category = "topStories"
	NYNews        Category = "nyNews"
	USNews        Category = "usNews"
	GlobalNews    Category = "globalNews"
	Opinion       Category = "opinion"
	ArtsCulture   Category = "artsCulture"
	FashionTrends Category = "fashionTrends"
	NYEvents      Category = "nyEvents"
)

// Categories 返回全部分区，顺序即页面展示顺序
func Categories() []Category {
	return []Category{
		TopStories,
		NYNews,
		USNews,
		GlobalNews,
		Opinion,
		ArtsCulture,
		FashionTrends,
		NYEvents,
	}
}

func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// PlaceholderImage 上游没有配图时使用的占位图（600x400）
const PlaceholderImage = "https://via.placeholder.com/600x400/1a1a1a/ffffff?text=No+Image"

// Article 归一化之后交给渲染层的文章结构
type Article struct {
	Headline       string    `json:"headline"`
	Summary        string    `json:"summary"`
	ImageURL       string    `json:"imageUrl"`
	SourceName     string    `json:"sourceName"`
	PublishedAt    time.Time `json:"publishedAt"`
	DisplayTime    string    `json:"displayTime"`
	URL            string    `json:"url"`
	OriginProvider Provider  `json:"originProvider"`
}

// Displayable 标题和链接都不为空的文章才允许展示
func (a Article) Displayable() bool {
	return a.Headline != "" && a.URL != ""
}
