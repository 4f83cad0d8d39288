package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"frontdesk/models"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiResolver resolves inconclusive extractions with a constrained
// Gemini call: one field in, one JSON value out, never free commentary.
type GeminiResolver struct {
	model *genai.GenerativeModel
}

func NewGeminiResolver(apiKey, modelName string) *GeminiResolver {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		panic(fmt.Sprintf("failed to create Gemini client: %v", err))
	}

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	var temp float32 = 0.0
	model.Temperature = &temp
	return &GeminiResolver{model: model}
}

func (g *GeminiResolver) ResolveField(ctx context.Context, q Query) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(buildResolverPrompt(q)))
	if err != nil {
		return "", fmt.Errorf("gemini generate error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	return ParseResolverReply(q.Field, sb.String())
}

// buildResolverPrompt constrains the model to a strict single-field
// contract so a malformed or chatty reply is detectable and can be
// degraded to unknown.
func buildResolverPrompt(q Query) string {
	var sb strings.Builder
	sb.WriteString("You extract one field for a voice appointment-booking agent from a noisy speech transcript.\n")
	sb.WriteString("Reply with JSON only, exactly {\"value\": \"<extracted value>\"} or {\"value\": \"unknown\"}. No other keys, no commentary.\n")

	switch q.Field {
	case models.FieldEmail:
		sb.WriteString("Field: email address. Normalize spoken forms like 'john at gmail dot com' to 'john@gmail.com'; remove spaces; lowercase.\n")
	case models.FieldDateTime:
		sb.WriteString("Field: appointment date and time. Output 'YYYY-MM-DD HH:MM' in 24h time.\n")
		sb.WriteString("If only a date is stated output 'YYYY-MM-DD'; if only a time, output 'HH:MM'.\n")
		fmt.Fprintf(&sb, "TODAY is %s in timezone %s. Resolve 'tomorrow', 'this Friday', 'next Monday' to future dates.\n", q.Today, q.Timezone)
		sb.WriteString("Do not invent a date or time the caller did not mention.\n")
	case models.FieldCallerName:
		sb.WriteString("Field: the caller's full name, title-cased, without honorifics.\n")
	default:
		sb.WriteString("Field: the reason for the visit, as a short phrase.\n")
	}

	if q.LastPrompt != "" {
		fmt.Fprintf(&sb, "The agent just asked: %q\n", q.LastPrompt)
	}
	if len(q.Captured) > 0 {
		captured, _ := json.Marshal(q.Captured)
		fmt.Fprintf(&sb, "Already collected: %s\n", captured)
	}
	if len(q.Candidates) > 0 {
		fmt.Fprintf(&sb, "The rules found these competing readings: %s. Pick the one the caller meant, or 'unknown'.\n", strings.Join(q.Candidates, " | "))
	}
	fmt.Fprintf(&sb, "Caller said: %q\n", q.Transcript)
	return sb.String()
}

type resolverReply struct {
	Value string `json:"value"`
}

// ParseResolverReply validates the model's reply against the contract.
// Anything outside it degrades to unknown rather than to a guess.
func ParseResolverReply(field models.FieldName, raw string) (string, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var reply resolverReply
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return "", fmt.Errorf("malformed resolver reply: %w", err)
	}

	value := strings.TrimSpace(reply.Value)
	if value == "" || strings.EqualFold(value, "unknown") || strings.EqualFold(value, "null") {
		return "", nil
	}
	if field == models.FieldEmail {
		value = strings.ToLower(strings.ReplaceAll(value, " ", ""))
	}
	return value, nil
}
