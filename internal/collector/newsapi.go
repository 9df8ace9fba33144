package collector

import "github.com/LJTian/NewsDesk/internal/model"

const (
	newsAPIBaseURL  = "https://newsapi.org/v2"
	newsAPIKeyParam = "apiKey"
)

// NewNewsAPI newsapi.org，响应信封为 {articles:[...]}
func NewNewsAPI(baseURL, apiKey string, opts Options) *HTTPAdapter {
	if baseURL == "" {
		baseURL = newsAPIBaseURL
	}
	return newHTTPAdapter(model.ProviderNewsAPI, "newsapi", baseURL, newsAPIKeyParam, apiKey, opts)
}
