// Search4People - Human-in-the-Loop Person Research in Go
//
// Search4People looks up a person on the public web from a handful of
// identity fields (first name, last name, an extra surname, a phone number),
// collects candidate profiles, pauses so a human can confirm which candidate
// is the right one, enriches the confirmed candidate and finally asks an LLM
// to write a short research report.
//
// # Packages
//
//   - flow: the resumable workflow engine. A run is a single traversal of a
//     fixed set of nodes; when the workflow needs a human decision it stops
//     with AwaitingUser set and the caller resumes it later with the
//     serialized state plus the user's answer.
//   - tools: DuckDuckGo search and page title fetching, implementing the
//     capability interfaces the engine is built against.
//   - llm: report generation through langchaingo, selecting OpenAI or Ollama
//     from the environment with a deterministic offline fallback.
//   - store: person records with memory, SQLite and Redis backends.
//   - server: JSON HTTP API, background task runner and HTML report
//     rendering.
//   - cmd/search4people: the CLI, with an interactive terminal mode and a
//     server mode.
//
// # Quick Start
//
//	go run ./cmd/search4people -first-name Jane -last-name Doe
//
// or start the HTTP server:
//
//	go run ./cmd/search4people -serve
//
// Set OPENAI_API_KEY (or OLLAMA_MODEL) to enable real report generation;
// without either the workflow still completes using a fallback report.
package search4people // import "github.com/smallnest/search4people"
