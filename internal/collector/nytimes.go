package collector

import "github.com/LJTian/NewsDesk/internal/model"

const (
	nytBaseURL  = "https://api.nytimes.com/svc"
	nytKeyParam = "api-key"
)

// NewNYTimes NYT Article Search，响应信封为 {response:{docs:[...]}}，部分接口是 {results:[...]}
func NewNYTimes(baseURL, apiKey string, opts Options) *HTTPAdapter {
	if baseURL == "" {
		baseURL = nytBaseURL
	}
	return newHTTPAdapter(model.ProviderNYTimes, "nytimes", baseURL, nytKeyParam, apiKey, opts)
}
