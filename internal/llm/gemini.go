package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/davenisc/tally/internal/ledger"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

const batchTimeout = 8 * time.Second

// GeminiClassifier asks Gemini for category suggestions. One request
// covers a whole batch; the model returns a strict JSON array aligned
// with the input order.
type GeminiClassifier struct {
	apiKey string
	model  string
}

func NewGeminiClassifier(apiKey, model string) *GeminiClassifier {
	if model == "" {
		model = DefaultModel
	}
	return &GeminiClassifier{apiKey: apiKey, model: model}
}

func (g *GeminiClassifier) ClassifyBatch(ctx context.Context, req ClassifyRequest) (ClassifyResponse, error) {
	if len(req.Transactions) == 0 {
		return ClassifyResponse{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, batchTimeout)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      g.apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return ClassifyResponse{}, fmt.Errorf("create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: buildPrompt(req)}},
		},
	}
	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return ClassifyResponse{}, fmt.Errorf("generate content: %w", err)
	}
	raw := resp.Text()
	if raw == "" {
		return ClassifyResponse{}, fmt.Errorf("empty response from model")
	}

	var suggestions []Suggestion
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &suggestions); err != nil {
		return ClassifyResponse{}, fmt.Errorf("decode model response: %w", err)
	}

	return ClassifyResponse{Suggestions: clampSuggestions(suggestions, req)}, nil
}

func buildPrompt(req ClassifyRequest) string {
	var b strings.Builder
	b.WriteString("You are a personal finance categorizer for bank and credit card transactions.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- For each transaction below, suggest a category from the allowed lists.\n")
	b.WriteString("- For INFLOW transactions also suggest an income_class: EARNED, PASSIVE, REIMBURSEMENT, or WINDFALL.\n")
	b.WriteString("- If a transaction looks miscast (for example, a refund recorded as EXPENSE), you may suggest a corrected type: INFLOW, EXPENSE, or TRANSFER.\n")
	b.WriteString("- When unsure about a field, use an empty string for it. Never invent category names.\n\n")

	b.WriteString("Allowed expense categories:\n")
	for _, c := range req.ExpenseCategories {
		b.WriteString("  - " + c + "\n")
	}
	b.WriteString("\nAllowed income categories:\n")
	for _, c := range req.IncomeCategories {
		b.WriteString("  - " + c + "\n")
	}

	b.WriteString("\nTransactions (JSON):\n")
	payload, _ := json.Marshal(req.Transactions)
	b.Write(payload)

	b.WriteString("\n\nOutput:\n")
	b.WriteString("- STRICT JSON only: a JSON array with exactly one object per input transaction, same order.\n")
	b.WriteString("- Each object has string fields \"category\", \"type\", \"income_class\" (empty string when not applicable).\n")
	b.WriteString("- Do NOT wrap the response in code fences. No ```json, no Markdown, no extra text.\n")
	b.WriteString("- Output must begin with \"[\" and end with \"]\".\n")
	return b.String()
}

// clampSuggestions whitelists every field against the request
// vocabulary and pads or truncates to the input length, so a sloppy
// model response can never push an invalid value downstream.
func clampSuggestions(got []Suggestion, req ClassifyRequest) []Suggestion {
	allowed := make(map[string]bool, len(req.ExpenseCategories)+len(req.IncomeCategories))
	for _, c := range req.ExpenseCategories {
		allowed[c] = true
	}
	for _, c := range req.IncomeCategories {
		allowed[c] = true
	}

	out := make([]Suggestion, len(req.Transactions))
	for i := range out {
		if i >= len(got) {
			break
		}
		s := got[i]
		if !allowed[s.Category] {
			s.Category = ""
		}
		if !ledger.TransactionType(s.Type).Valid() {
			s.Type = ""
		}
		if !ledger.IncomeClass(s.IncomeClass).Valid() {
			s.IncomeClass = ""
		}
		out[i] = s
	}
	return out
}

func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// If the model still wrapped the array in prose, keep only the
	// first '[' through the last ']'.
	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
