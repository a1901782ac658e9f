// Package llm provides the text-generation capability for report writing.
// Provider selection is environment-driven (OpenAI, then Ollama), and every
// failure path degrades to a deterministic fallback report so the rest of
// the system can be exercised without credentials.
package llm
