package config

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/LJTian/NewsDesk/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed default_categories.yaml
var defaultCategoriesFS embed.FS

// SourceSpec 某个分区对单个数据源的一次请求
type SourceSpec struct {
	Provider model.Provider    `yaml:"provider"`
	Endpoint string            `yaml:"endpoint"`
	Params   map[string]string `yaml:"params"`
}

// MockArticle 分区级的静态兜底文章，只有部分分区配置了
type MockArticle struct {
	Headline    string `yaml:"headline"`
	Summary     string `yaml:"summary"`
	ImageURL    string `yaml:"imageUrl"`
	URL         string `yaml:"url"`
	DisplayTime string `yaml:"displayTime"`
}

// Article 生成兜底文章，发布时间取调用时刻
func (m MockArticle) Article(now time.Time) model.Article {
	img := m.ImageURL
	if img == "" {
		img = model.PlaceholderImage
	}
	return model.Article{
		Headline:       m.Headline,
		Summary:        m.Summary,
		ImageURL:       img,
		SourceName:     "Mock News",
		PublishedAt:    now,
		DisplayTime:    m.DisplayTime,
		URL:            m.URL,
		OriginProvider: model.ProviderMock,
	}
}

type CategorySpec struct {
	Name        model.Category `yaml:"name"`
	BypassCache bool           `yaml:"bypassCache"`
	Sources     []SourceSpec   `yaml:"sources"`
	Mock        *MockArticle   `yaml:"mock,omitempty"`
}

type categoryFile struct {
	Categories []CategorySpec `yaml:"categories"`
}

// Categories 分区配置表，启动时加载一次，之后只读
type Categories map[model.Category]CategorySpec

// Lookup 未知分区返回 false；已知但未配置数据源的分区返回空配置
func (c Categories) Lookup(name model.Category) (CategorySpec, bool) {
	if !name.Valid() {
		return CategorySpec{}, false
	}
	spec, ok := c[name]
	if !ok {
		return CategorySpec{Name: name}, true
	}
	return spec, true
}

// LoadCategories 先读内置默认表，再用 path 指向的文件按分区名整体覆盖
func LoadCategories(path string) (Categories, error) {
	data, err := defaultCategoriesFS.ReadFile("default_categories.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded categories: %w", err)
	}
	cats, err := parseCategories(data)
	if err != nil {
		return nil, fmt.Errorf("parsing embedded categories: %w", err)
	}

	if path == "" {
		return cats, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading categories %s: %w", path, err)
	}
	overrides, err := parseCategories(data)
	if err != nil {
		return nil, fmt.Errorf("parsing categories %s: %w", path, err)
	}
	for name, spec := range overrides {
		cats[name] = spec
	}
	return cats, nil
}

func parseCategories(data []byte) (Categories, error) {
	var f categoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	out := make(Categories, len(f.Categories))
	for i, spec := range f.Categories {
		if err := validateCategory(spec); err != nil {
			return nil, fmt.Errorf("category %d: %w", i, err)
		}
		out[spec.Name] = spec
	}
	return out, nil
}

func validateCategory(spec CategorySpec) error {
	if !spec.Name.Valid() {
		return fmt.Errorf("unknown category %q", spec.Name)
	}
	for _, src := range spec.Sources {
		if !src.Provider.Valid() {
			return fmt.Errorf("%s: unknown provider %q", spec.Name, src.Provider)
		}
		if !strings.HasPrefix(src.Endpoint, "/") {
			return fmt.Errorf("%s: endpoint %q must start with /", spec.Name, src.Endpoint)
		}
	}
	if spec.Mock != nil && (spec.Mock.Headline == "" || spec.Mock.URL == "") {
		return fmt.Errorf("%s: mock article needs headline and url", spec.Name)
	}
	return nil
}
