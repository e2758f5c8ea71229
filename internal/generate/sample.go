package generate

import (
	"log/slog"

	"github.com/pkoukk/tiktoken-go"
)

// sampleEncoding is the tokenizer used to budget sample text in prompts.
const sampleEncoding = "cl100k_base"

// TruncateSample caps sample text at maxTokens so oversized inputs do not
// blow the prompt budget. A non-positive limit means no truncation. Tokenizer
// initialization failure falls back to returning the text unchanged; a long
// prompt beats a lost sample.
func TruncateSample(text string, maxTokens int) string {
	if text == "" || maxTokens <= 0 {
		return text
	}

	encoding, err := tiktoken.GetEncoding(sampleEncoding)
	if err != nil {
		slog.Debug("tokenizer unavailable, sending sample untruncated", "error", err)
		return text
	}

	tokens := encoding.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}

	truncated := encoding.Decode(tokens[:maxTokens])
	slog.Debug("sample truncated", "originalTokens", len(tokens), "maxTokens", maxTokens)
	return truncated
}
