package processor

import (
	"crypto/sha1"
	"encoding/hex"

	"github.com/LJTian/NewsDesk/internal/model"
)

// Dedupe 多个数据源合并后按 URL 去重，保留第一次出现的那条
func Dedupe(articles []model.Article) []model.Article {
	out := make([]model.Article, 0, len(articles))
	seen := make(map[string]struct{}, len(articles))

	for _, a := range articles {
		id := hashURL(a.URL)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, a)
	}
	return out
}

func hashURL(url string) string {
	h := sha1.New()
	h.Write([]byte(url))
	return hex.EncodeToString(h.Sum(nil))
}
