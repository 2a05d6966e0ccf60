// Package triage asks OpenAI to classify a free-text report description into
// a disaster type and severity suggestion. It is advisory only: a failure
// degrades to an unknown suggestion and never blocks case submission.
package triage

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/apex/log"
	openai "github.com/sashabaranov/go-openai"
)

// Suggestion is the AI's read of a report description.
type Suggestion struct {
	DisasterType string `json:"disasterType"`
	Severity     string `json:"severity"`
	Reason       string `json:"reason"`
}

var unknown = Suggestion{DisasterType: "unknown", Severity: "unknown"}

const systemPrompt = `You are an assistant triaging emergency disaster reports.
Classify the report into a JSON object with fields:
"disasterType" (one of: Flood, Fire, Earthquake, Storm, Landslide, Other),
"severity" (one of: critical, high, monitor),
"reason" (one short sentence).
Reply with the JSON object only.`

type Classifier struct {
	client *openai.Client
}

// New returns a classifier, or nil when OPENAI_API_KEY is unset; a nil
// classifier always answers unknown.
func New() *Classifier {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil
	}
	return &Classifier{client: openai.NewClient(apiKey)}
}

// Classify suggests a type and severity for the description.
func (t *Classifier) Classify(ctx context.Context, description string) Suggestion {
	if t == nil || strings.TrimSpace(description) == "" {
		return unknown
	}

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: description},
		},
		MaxTokens: 150,
	})
	if err != nil {
		log.WithError(err).Warn("Triage classification failed")
		return unknown
	}

	var s Suggestion
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.Trim(content, "` \n")
	if err := json.Unmarshal([]byte(content), &s); err != nil {
		log.WithError(err).Warn("Triage reply was not valid JSON")
		return unknown
	}
	return s
}
