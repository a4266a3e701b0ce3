package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lawdesk/matterflow/internal/llm"
)

// TextExtractor converts free conversation text into structured case
// information. Implementations may call out to a model backend; callers
// bound every call with a timeout and fall back to the deterministic pass
// on any error.
type TextExtractor interface {
	Extract(ctx context.Context, text string) (*PartialCaseInformation, error)
	Name() string
}

// LLMExtractor implements TextExtractor on top of an llm.Provider in JSON
// mode.
type LLMExtractor struct {
	provider llm.Provider
	model    string
}

// NewLLMExtractor creates an extractor backed by the given provider.
func NewLLMExtractor(provider llm.Provider, model string) *LLMExtractor {
	return &LLMExtractor{provider: provider, model: model}
}

func (e *LLMExtractor) Name() string {
	return "llm/" + e.provider.Name()
}

func (e *LLMExtractor) Extract(ctx context.Context, text string) (*PartialCaseInformation, error) {
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Model: e.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: extractionSystemPrompt},
			{Role: llm.RoleUser, Content: "## Conversation\n" + text + "\n\nExtract the case information from the client's statements only."},
		},
		MaxTokens:   2048,
		Temperature: 0.1,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("completion: %w", err)
	}

	info, err := parseExtractionResponse(resp.Content)
	if err != nil {
		return nil, err
	}
	info.applyCaps()
	return info, nil
}

const extractionSystemPrompt = `You are a legal intake extraction engine. Analyze the client conversation and extract structured case information.

You MUST respond with valid JSON matching this schema:
{
  "legal_issue_type": "Employment Law|Family Law|Personal Injury|Criminal Defense|Immigration|Landlord-Tenant|Contract Dispute|...",
  "key_facts": ["factual statements made by the client"],
  "evidence": ["evidence items the client mentions having"],
  "witnesses": ["people who witnessed events"],
  "timeline": [{"date": "when", "event": "what happened"}],
  "legal_issues": ["legal issues raised"],
  "communications": ["communications between the parties"],
  "damages": ["monetary or other harm claimed"]
}

Rules:
- Only extract statements made by the client, never questions asked by the intake assistant
- Use the client's own wording for facts
- Omit fields you have no information for`

// parseExtractionResponse tolerates JSON wrapped in markdown fences or
// surrounding prose, but fails on a response with no parsable object.
func parseExtractionResponse(content string) (*PartialCaseInformation, error) {
	jsonStr := content
	if idx := strings.Index(content, "{"); idx >= 0 {
		jsonStr = content[idx:]
	}
	if idx := strings.LastIndex(jsonStr, "}"); idx >= 0 {
		jsonStr = jsonStr[:idx+1]
	}

	var info PartialCaseInformation
	if err := json.Unmarshal([]byte(jsonStr), &info); err != nil {
		return nil, fmt.Errorf("unparsable extraction response: %w", err)
	}
	return &info, nil
}

// DefaultSmartTimeout bounds the smart pass. The actor holds a per-matter
// serialization point while extracting, so the bound is a hard requirement.
const DefaultSmartTimeout = 5 * time.Second
