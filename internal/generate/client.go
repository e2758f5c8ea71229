package generate

import (
	"fmt"
	"os"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// NewClient builds an API client from the environment. RELENS_API_KEY takes
// precedence over OPENAI_API_KEY; RELENS_BASE_URL optionally points at an
// OpenAI-compatible endpoint.
func NewClient() (*openai.Client, error) {
	apiKey := os.Getenv("RELENS_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no API key configured: set RELENS_API_KEY or OPENAI_API_KEY")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(2),
	}
	if baseURL := os.Getenv("RELENS_BASE_URL"); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(opts...)
	return &client, nil
}
