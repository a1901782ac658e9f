package flow

import (
	"context"
	"fmt"

	"github.com/smallnest/search4people/log"
)

// reportMaxTokens is the output-token limit handed to the generation
// capability for a report.
const reportMaxTokens = 900

// fallbackPromptLimit is how much of the prompt survives into a fallback
// report.
const fallbackPromptLimit = 4000

// BuildReportPrompt assembles the single prompt sent to the generation
// capability. It is deterministic for a given state.
func BuildReportPrompt(state *State) string {
	return fmt.Sprintf(
		"Create a concise, structured portfolio/report about the person based on inputs and collected details.\n"+
			"Include: Basic info (name, phone), links, inferred roles, and any notable summaries from sources.\n"+
			"If data is sparse, state limitations.\n\n"+
			"Inputs: %v\n\n"+
			"Selected candidate: %s\n\n"+
			"Collected details: %s\n\n"+
			"Return a markdown-like text.",
		state.Inputs,
		formatCandidate(state.Selected),
		formatCandidate(state.Details),
	)
}

// GenerateReport produces the report text for the accumulated state. A
// missing or failing generation capability degrades to the deterministic
// fallback; this function never returns an error.
func GenerateReport(ctx context.Context, generator Generator, state *State) string {
	prompt := BuildReportPrompt(state)
	if generator == nil {
		return FallbackReport(prompt)
	}
	text, err := generator.GenerateText(ctx, prompt, reportMaxTokens)
	if err != nil {
		log.Warn("report generation failed: %v", err)
		return FallbackReport(prompt)
	}
	return text
}

// FallbackReport is the deterministic degraded report used when no
// generation provider is reachable: a fixed prefix, the head of the prompt,
// and a fixed trailer.
func FallbackReport(prompt string) string {
	if len(prompt) > fallbackPromptLimit {
		prompt = prompt[:fallbackPromptLimit]
	}
	return "[FALLBACK REPORT]\n" + prompt + "\n-- End of fallback. Provide API keys for better results."
}

func formatCandidate(c *Candidate) string {
	if c == nil {
		return "{}"
	}
	return fmt.Sprintf("%+v", *c)
}
