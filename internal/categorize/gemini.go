package categorize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used for narration categorization.
const DefaultModelName = "gemini-2.5-flash"

// Gemini categorizes narrations with a Gemini model, constrained to the
// package taxonomy. Model output is validated: anything outside the taxonomy
// degrades to Uncategorized rather than inventing categories.
type Gemini struct {
	model string
}

// NewGemini creates a Gemini categorizer. model may be empty to use
// DefaultModelName. Credentials come from the environment, the same way the
// genai client resolves them everywhere else.
func NewGemini(model string) *Gemini {
	if model == "" {
		model = DefaultModelName
	}
	return &Gemini{model: model}
}

// CategorizeBatch implements Categorizer.
func (g *Gemini) CategorizeBatch(ctx context.Context, narrations []string) (map[string]string, error) {
	out := make(map[string]string, len(narrations))
	if len(narrations) == 0 {
		return out, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("Gemini.CategorizeBatch: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildPrompt(narrations)},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("Gemini.CategorizeBatch: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("Gemini.CategorizeBatch: empty response from model")
	}

	var assigned map[string]string
	if err := json.Unmarshal([]byte(cleanModelJSON(rawText)), &assigned); err != nil {
		return nil, fmt.Errorf("Gemini.CategorizeBatch: unmarshal JSON: %w\nraw response: %s", err, rawText)
	}

	for _, n := range narrations {
		category, ok := validCategory(assigned[n])
		if !ok {
			category = Uncategorized
		}
		out[n] = category
	}
	return out, nil
}

func buildPrompt(narrations []string) string {
	var b strings.Builder
	b.WriteString("You are a personal-finance transaction categorizer.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Assign each bank transaction narration below to exactly one category.\n")
	b.WriteString("- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n")
	b.WriteString("- Output a single JSON object mapping each narration string to its category string.\n\n")

	b.WriteString("Use ONLY the following categories:\n")
	for _, c := range Taxonomy() {
		b.WriteString("  - " + c + "\n")
	}
	b.WriteString("  - " + Uncategorized + "\n\n")

	b.WriteString("Rules:\n")
	b.WriteString("1. Category must be EXACTLY one of the names shown above (case-sensitive).\n")
	b.WriteString("2. If you are unsure, use \"" + Uncategorized + "\".\n")
	b.WriteString("3. Every narration must appear as a key in the output object.\n\n")

	b.WriteString("Return ONLY valid raw JSON.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Output must begin with \"{\" and end with \"}\".\n\n")

	b.WriteString("Narrations:\n")
	for _, n := range narrations {
		b.WriteString("  - ")
		b.WriteString(n)
		b.WriteByte('\n')
	}
	return b.String()
}

// cleanModelJSON strips Markdown fences and surrounding junk if the model
// ignored the raw-JSON instruction.
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

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
