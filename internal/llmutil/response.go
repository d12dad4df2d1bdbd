package llmutil

import (
	"strings"

	adkmodel "google.golang.org/adk/model"
)

// ExtractText concatenates the text parts of an LLMResponse, skipping
// thought parts. Returns "" if the response or its content is nil.
func ExtractText(resp *adkmodel.LLMResponse) string {
	if resp == nil || resp.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}
