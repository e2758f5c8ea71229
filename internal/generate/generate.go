// Package generate turns a natural-language description into a regular
// expression by calling an OpenAI-compatible chat completion API.
//
// The model's output is untrusted input: it is parsed tolerantly (markdown
// fences and surrounding prose are stripped) and the resulting pattern and
// flags are handed back as plain strings for the caller to treat exactly
// like user-typed values. Any failure along the way surfaces as a generic
// "generation failed" error.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/tidwall/gjson"
)

// DefaultModel is used when a request does not name one.
const DefaultModel = "gpt-4o-mini"

// defaultFlags is assumed when the model omits a flags field; it mirrors the
// multiline + match-all combination the CLI defaults to.
const defaultFlags = "gm"

// Request describes one generation call.
type Request struct {
	Instruction string // natural-language description of what to match
	Sample      string // optional sample text the pattern will run against
	Model       string // model ID; DefaultModel when empty
}

// Result is the model's answer: a pattern and flags in ECMA-262 dialect plus
// a short human-readable explanation.
type Result struct {
	Pattern     string
	Flags       string
	Explanation string
}

const systemPrompt = `You translate natural-language descriptions into ECMAScript (JavaScript dialect) regular expressions.
Respond with a single JSON object and nothing else, in this exact shape:
{"pattern": "<regex source without enclosing slashes>", "flags": "<flag letters from gimsu>", "explanation": "<one or two sentences>"}
Do not wrap the JSON in markdown fences.`

// Generate asks the model for a pattern matching the request's instruction.
// ctx bounds the underlying HTTP call.
func Generate(ctx context.Context, client *openai.Client, req Request) (Result, error) {
	if client == nil {
		return Result{}, fmt.Errorf("generation failed: no client configured")
	}
	if strings.TrimSpace(req.Instruction) == "" {
		return Result{}, fmt.Errorf("generation failed: empty instruction")
	}

	model := req.Model
	if model == "" {
		model = DefaultModel
	}

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(req)),
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("generation failed: response contained no choices")
	}

	slog.Debug("pattern generated",
		"model", resp.Model,
		"totalTokens", resp.Usage.TotalTokens)

	result, err := ParseModelOutput(resp.Choices[0].Message.Content)
	if err != nil {
		return Result{}, fmt.Errorf("generation failed: %w", err)
	}
	return result, nil
}

// ParseModelOutput extracts a Result from raw model text. Markdown fences
// and prose around the JSON object are tolerated; a missing pattern field is
// an error, a missing flags field falls back to the CLI default.
func ParseModelOutput(raw string) (Result, error) {
	payload := isolateJSON(raw)
	if payload == "" || !gjson.Valid(payload) {
		return Result{}, fmt.Errorf("model output is not valid JSON: %q", raw)
	}

	pattern := gjson.Get(payload, "pattern")
	if !pattern.Exists() {
		return Result{}, fmt.Errorf("model output has no pattern field: %q", raw)
	}

	flags := gjson.Get(payload, "flags").String()
	if flags == "" {
		flags = defaultFlags
	}

	return Result{
		Pattern:     pattern.String(),
		Flags:       flags,
		Explanation: gjson.Get(payload, "explanation").String(),
	}, nil
}

// userPrompt assembles the user message from the instruction and optional sample.
func userPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Description of what to match:\n")
	b.WriteString(req.Instruction)
	if req.Sample != "" {
		b.WriteString("\n\nSample text the expression will run against:\n")
		b.WriteString(req.Sample)
	}
	return b.String()
}

// isolateJSON strips code fences and surrounding prose, returning the
// outermost {...} object, or "" when none is present.
func isolateJSON(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end < start {
		return ""
	}
	return cleaned[start : end+1]
}
