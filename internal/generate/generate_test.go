package generate_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pcorbett/relens/internal/generate"
)

func TestParseModelOutput(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		expectError bool
		expected    generate.Result
	}{
		{
			name: "clean JSON object",
			raw:  `{"pattern": "\\d+", "flags": "g", "explanation": "one or more digits"}`,
			expected: generate.Result{
				Pattern:     `\d+`,
				Flags:       "g",
				Explanation: "one or more digits",
			},
		},
		{
			name: "fenced JSON",
			raw:  "```json\n{\"pattern\": \"[a-z]+\", \"flags\": \"gi\", \"explanation\": \"letters\"}\n```",
			expected: generate.Result{
				Pattern:     "[a-z]+",
				Flags:       "gi",
				Explanation: "letters",
			},
		},
		{
			name: "JSON surrounded by prose",
			raw:  `Sure! Here you go: {"pattern": "^x", "flags": "gm", "explanation": "lines starting with x"} Let me know if that helps.`,
			expected: generate.Result{
				Pattern:     "^x",
				Flags:       "gm",
				Explanation: "lines starting with x",
			},
		},
		{
			name: "missing flags falls back to default",
			raw:  `{"pattern": "cat"}`,
			expected: generate.Result{
				Pattern: "cat",
				Flags:   "gm",
			},
		},
		{
			name:        "missing pattern field",
			raw:         `{"flags": "g", "explanation": "no pattern here"}`,
			expectError: true,
		},
		{
			name:        "no JSON at all",
			raw:         "I cannot help with that.",
			expectError: true,
		},
		{
			name:        "empty output",
			raw:         "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := generate.ParseModelOutput(tt.raw)
			if tt.expectError {
				if err == nil {
					t.Errorf("ParseModelOutput(%q) expected error but got none", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseModelOutput(%q) error = %v, expected no error", tt.raw, err)
			}
			if result != tt.expected {
				t.Errorf("ParseModelOutput(%q) = %+v, expected %+v", tt.raw, result, tt.expected)
			}
		})
	}
}

func TestTruncateSample(t *testing.T) {
	long := strings.Repeat("the quick brown fox jumps over the lazy dog ", 200)

	tests := []struct {
		name      string
		text      string
		maxTokens int
		shortened bool
	}{
		{name: "short text untouched", text: "hello world", maxTokens: 100},
		{name: "zero limit means no truncation", text: long, maxTokens: 0},
		{name: "long text truncated", text: long, maxTokens: 50, shortened: true},
		{name: "empty text", text: "", maxTokens: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := generate.TruncateSample(tt.text, tt.maxTokens)
			if tt.shortened {
				if len(got) >= len(tt.text) {
					t.Errorf("TruncateSample() did not shorten text: %d >= %d bytes", len(got), len(tt.text))
				}
				if !strings.HasPrefix(tt.text, got) {
					t.Errorf("TruncateSample() result is not a prefix of the input")
				}
				return
			}
			if got != tt.text {
				t.Errorf("TruncateSample() = %q, expected unchanged input", got)
			}
		})
	}
}

func TestNewClient(t *testing.T) {
	t.Run("no key configured", func(t *testing.T) {
		t.Setenv("RELENS_API_KEY", "")
		t.Setenv("OPENAI_API_KEY", "")
		if _, err := generate.NewClient(); err == nil {
			t.Error("NewClient() expected error when no API key is set")
		}
	})

	t.Run("key from environment", func(t *testing.T) {
		t.Setenv("RELENS_API_KEY", "test-key")
		client, err := generate.NewClient()
		if err != nil {
			t.Fatalf("NewClient() error = %v, expected no error", err)
		}
		if client == nil {
			t.Error("NewClient() returned a nil client")
		}
	})
}

// chatCompletionJSON builds a minimal chat completion response whose
// assistant message carries the given content.
func chatCompletionJSON(content string) string {
	return fmt.Sprintf(`{
		"id": "chatcmpl-test",
		"object": "chat.completion",
		"created": 1700000000,
		"model": "gpt-4o-mini",
		"choices": [{
			"index": 0,
			"message": {"role": "assistant", "content": %q},
			"finish_reason": "stop"
		}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30}
	}`, content)
}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatCompletionJSON(`{"pattern": "\\[\\w+\\]", "flags": "gm", "explanation": "bracketed levels"}`))
	}))
	defer server.Close()

	t.Setenv("RELENS_API_KEY", "test-key")
	t.Setenv("RELENS_BASE_URL", server.URL)

	client, err := generate.NewClient()
	if err != nil {
		t.Fatalf("NewClient() error = %v, expected no error", err)
	}

	result, err := generate.Generate(context.Background(), client, generate.Request{
		Instruction: "match bracketed log levels",
		Sample:      "2023-10-27 [INFO] started",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v, expected no error", err)
	}

	expected := generate.Result{
		Pattern:     `\[\w+\]`,
		Flags:       "gm",
		Explanation: "bracketed levels",
	}
	if result != expected {
		t.Errorf("Generate() = %+v, expected %+v", result, expected)
	}
}

func TestGenerateErrors(t *testing.T) {
	t.Run("nil client", func(t *testing.T) {
		_, err := generate.Generate(context.Background(), nil, generate.Request{Instruction: "anything"})
		if err == nil || !strings.Contains(err.Error(), "generation failed") {
			t.Errorf("Generate() with nil client should return a generation failed error, got %v", err)
		}
	})

	t.Run("empty instruction", func(t *testing.T) {
		t.Setenv("RELENS_API_KEY", "test-key")
		client, err := generate.NewClient()
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}
		if _, err := generate.Generate(context.Background(), client, generate.Request{}); err == nil {
			t.Error("Generate() with empty instruction expected error but got none")
		}
	})

	t.Run("server error is wrapped generically", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error": {"message": "boom"}}`, http.StatusInternalServerError)
		}))
		defer server.Close()

		t.Setenv("RELENS_API_KEY", "test-key")
		t.Setenv("RELENS_BASE_URL", server.URL)
		client, err := generate.NewClient()
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}

		_, err = generate.Generate(context.Background(), client, generate.Request{Instruction: "anything"})
		if err == nil || !strings.Contains(err.Error(), "generation failed") {
			t.Errorf("Generate() should wrap transport errors as generation failed, got %v", err)
		}
	})

	t.Run("unparseable model output", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, chatCompletionJSON("no json here, sorry"))
		}))
		defer server.Close()

		t.Setenv("RELENS_API_KEY", "test-key")
		t.Setenv("RELENS_BASE_URL", server.URL)
		client, err := generate.NewClient()
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}

		_, err = generate.Generate(context.Background(), client, generate.Request{Instruction: "anything"})
		if err == nil || !strings.Contains(err.Error(), "generation failed") {
			t.Errorf("Generate() should wrap parse errors as generation failed, got %v", err)
		}
	})
}
