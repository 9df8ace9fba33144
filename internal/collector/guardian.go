package collector

import "github.com/LJTian/NewsDesk/internal/model"

const (
	guardianBaseURL  = "https://content.guardianapis.com"
	guardianKeyParam = "api-key"
)

// NewGuardian The Guardian Open Platform，响应信封为 {response:{results:[...]}}
func NewGuardian(baseURL, apiKey string, opts Options) *HTTPAdapter {
	if baseURL == "" {
		baseURL = guardianBaseURL
	}
	return newHTTPAdapter(model.ProviderGuardian, "guardian", baseURL, guardianKeyParam, apiKey, opts)
}
