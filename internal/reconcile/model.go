package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fundamentals-cli/pkg/anthropic"
)

const extractionSystemPrompt = `You extract financial figures from Chinese corporate filings.
Given filing text and a set of reference values, return ONLY a JSON object
mapping the requested field names to numbers in base currency units (yuan,
not 亿元). Use the filing text as the source of truth; the reference values
only indicate the expected magnitude. Omit a field if the filing does not
state it. No prose, no markdown.`

// ModelExtractor asks the Anthropic API to read the filing excerpt. The
// provider values ride along as calibration so the model resolves the 亿元
// unit correctly. Any failure is returned to the caller, which falls back
// to pattern extraction.
type ModelExtractor struct {
	client       anthropic.Client
	model        string
	maxTokens    int64
	excerptLimit int
	targets      []Target
}

// NewModelExtractor wires a ModelExtractor. excerptLimit bounds the filing
// text sent per request, in runes.
func NewModelExtractor(client anthropic.Client, model string, maxTokens int64, excerptLimit int, targets []Target) *ModelExtractor {
	return &ModelExtractor{
		client:       client,
		model:        model,
		maxTokens:    maxTokens,
		excerptLimit: excerptLimit,
		targets:      targets,
	}
}

// Extract sends a bounded excerpt plus the reference values and parses the
// JSON reply into base-unit values.
func (m *ModelExtractor) Extract(ctx context.Context, text string, refs map[string]float64) (map[string]float64, error) {
	resp, err := m.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     m.model,
		MaxTokens: m.maxTokens,
		System:    anthropic.BuildCachedSystemBlocks(extractionSystemPrompt),
		Messages: []anthropic.Message{
			{Role: "user", Content: m.buildPrompt(text, refs)},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: model extraction request")
	}
	resp.Usage.LogCost(m.model, "reconcile")

	values, err := parseExtraction(resp.Text())
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (m *ModelExtractor) buildPrompt(text string, refs map[string]float64) string {
	var b strings.Builder
	b.WriteString("Fields to extract: ")
	for i, t := range m.targets {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.Field)
	}
	b.WriteString("\n\nReference values (base units, for magnitude calibration only):\n")
	for _, k := range sortedKeys(refs) {
		fmt.Fprintf(&b, "  %s: %.0f\n", k, refs[k])
	}
	b.WriteString("\nFiling text:\n")
	b.WriteString(truncateRunes(text, m.excerptLimit))
	return b.String()
}

// parseExtraction decodes the model reply, tolerating a fenced code block
// around the JSON.
func parseExtraction(reply string) (map[string]float64, error) {
	s := strings.TrimSpace(reply)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	var values map[string]float64
	if err := json.Unmarshal([]byte(s), &values); err != nil {
		return nil, eris.Wrap(err, "reconcile: parse extraction reply")
	}
	return values, nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
