package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallnest/search4people/log"
)

// Terminal summaries for runs that resolve without a confirmed candidate.
const (
	SummaryNoCandidates = "No candidates found. Adjust search terms and try again."
	SummaryExhausted    = "Exhausted candidates without a match."
)

const (
	// initialMaxResults is the default per-query result cap for the first
	// search pass, overridable with WithMaxResults.
	initialMaxResults = 5
	// retryMaxResults is the per-query result cap for the broadened retry.
	retryMaxResults = 3
)

// planSteps is the fixed plan recorded by the planner node.
var planSteps = []string{
	"Create person search plan",
	"Execute search and prepare candidates",
	"Request user confirmation on best candidate",
	"Collect details on confirmed candidate",
	"Prepare report and store in DB",
}

// node identifies a step in the workflow. The topology is fixed, so nodes
// are a plain enum and routing is a switch over state predicates rather than
// a dynamic node table.
type node int

const (
	nodeIngest node = iota
	nodePlanner
	nodeSearcher
	nodeAsk
	nodeDecider
	nodeCollector
	nodeReporter
	nodeFinalize
	nodeFinish
	nodeEnd
)

func (n node) String() string {
	switch n {
	case nodeIngest:
		return "ingest"
	case nodePlanner:
		return "planner"
	case nodeSearcher:
		return "searcher"
	case nodeAsk:
		return "ask"
	case nodeDecider:
		return "decider"
	case nodeCollector:
		return "collector"
	case nodeReporter:
		return "reporter"
	case nodeFinalize:
		return "finalize"
	case nodeFinish:
		return "finish"
	case nodeEnd:
		return "end"
	default:
		return fmt.Sprintf("node(%d)", int(n))
	}
}

// Engine drives the person search/confirm/enrich/report workflow. The three
// external capabilities are injected at construction so tests can substitute
// deterministic fakes.
type Engine struct {
	searcher   Searcher
	fetcher    Fetcher
	generator  Generator
	logger     log.Logger
	maxResults int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxResults sets the per-query result cap for the initial search pass.
// Values below one are ignored. The broadened retry keeps its own lower cap.
func WithMaxResults(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxResults = n
		}
	}
}

// New creates a workflow engine over the given capabilities. Any capability
// may be nil; the corresponding step then degrades per the failure rules
// (empty search results, no enrichment, fallback report).
func New(searcher Searcher, fetcher Fetcher, generator Generator, opts ...Option) *Engine {
	e := &Engine{
		searcher:   searcher,
		fetcher:    fetcher,
		generator:  generator,
		logger:     log.GetDefaultLogger(),
		maxResults: initialMaxResults,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one traversal of the workflow. It overlays inputs and the
// user decision onto a copy of the prior state, walks the node graph from
// ingest to a terminal node, and returns the updated state plus any freshly
// generated report text. The caller's prior state is never mutated.
//
// The decision string is interpreted case-insensitively after trimming.
// Expected "no data" conditions (no inputs, no candidates, capability
// failures) never produce an error; only a structurally broken state does.
func (e *Engine) Run(ctx context.Context, inputs map[string]string, prior *State, decision string) (*State, string, error) {
	state := prior.Clone()
	decision = strings.ToLower(strings.TrimSpace(decision))

	report := ""
	current := nodeIngest
	for current != nodeEnd {
		e.logger.Debug("workflow node %s (awaiting_user=%v selected=%v)", current, state.AwaitingUser, state.Selected != nil)
		switch current {
		case nodeIngest:
			if inputs != nil {
				state.Inputs = inputs
			}
			current = nodePlanner

		case nodePlanner:
			if len(state.Plan) == 0 && len(state.Inputs) > 0 {
				state.Plan = append([]string(nil), planSteps...)
			}
			current = nodeSearcher

		case nodeSearcher:
			if len(state.Candidates) == 0 && len(state.Inputs) > 0 {
				state.Queries = BuildQueries(state.Inputs)
				state.Candidates = SearchCandidates(ctx, e.searcher, state.Queries, e.maxResults)
				state.CurrentIndex = 0
				e.logger.Info("search pass found %d candidates over %d queries", len(state.Candidates), len(state.Queries))
			}
			current = e.routeAfterSearcher(state, decision)

		case nodeAsk:
			state.AwaitingUser = true
			current = nodeEnd

		case nodeDecider:
			if err := e.decide(ctx, state, decision); err != nil {
				return nil, "", err
			}
			current = routeAfterDecider(state)

		case nodeCollector:
			if state.Selected != nil {
				details := CollectDetails(ctx, e.fetcher, *state.Selected)
				state.Details = &details
				if state.Summary == "" {
					state.Summary = state.Selected.Label()
				}
			}
			current = routeAfterCollector(decision)

		case nodeReporter:
			if state.Details == nil && state.Selected != nil {
				details := CollectDetails(ctx, e.fetcher, *state.Selected)
				state.Details = &details
			}
			report = GenerateReport(ctx, e.generator, state)
			state.Report = report
			state.AwaitingUser = false
			current = nodeEnd

		case nodeFinalize:
			state.AwaitingUser = false
			if state.Selected != nil && state.Summary == "" {
				state.Summary = state.Selected.Label()
			}
			current = nodeEnd

		case nodeFinish:
			state.AwaitingUser = false
			if state.Summary == "" && state.Selected == nil && len(state.Candidates) == 0 {
				state.Summary = SummaryNoCandidates
			}
			current = nodeEnd
		}
	}

	return state, report, nil
}

// routeAfterSearcher picks the node following the search pass. The checks
// run in priority order: an explicit collect/report instruction on an
// already-confirmed candidate wins, then the confirmation flow, then plain
// finalization.
func (e *Engine) routeAfterSearcher(state *State, decision string) node {
	if state.Selected != nil {
		switch decision {
		case "collect":
			return nodeCollector
		case "report":
			return nodeReporter
		}
		return nodeFinalize
	}
	if len(state.Candidates) == 0 {
		return nodeFinish
	}
	if decision == "" {
		return nodeAsk
	}
	return nodeDecider
}

// routeAfterDecider routes on the decision outcome: a confirmed selection
// proceeds to collection, a pending question goes back to ask, anything else
// is a terminal no-match.
func routeAfterDecider(state *State) node {
	if state.Selected != nil {
		return nodeCollector
	}
	if state.AwaitingUser {
		return nodeAsk
	}
	return nodeFinish
}

// routeAfterCollector sends an affirmative confirmation straight on to the
// reporter; an explicit "collect" instruction stops after enrichment.
func routeAfterCollector(decision string) node {
	if isAffirmative(decision) {
		return nodeReporter
	}
	return nodeFinalize
}

// decide interprets the user's decision about the candidate currently on
// offer. Unrecognized input re-enters the ask state rather than erroring.
func (e *Engine) decide(ctx context.Context, state *State, decision string) error {
	switch {
	case isAffirmative(decision):
		selected := state.CurrentCandidate()
		if selected == nil {
			return fmt.Errorf("decision %q confirms candidate %d but only %d candidates are present", decision, state.CurrentIndex, len(state.Candidates))
		}
		state.Selected = selected
		state.AwaitingUser = false
		state.Summary = selected.Label()
		e.logger.Info("candidate confirmed: %s", selected.URL)

	case isNegative(decision):
		// The index only moves while it stays in bounds; on exhaustion it
		// keeps pointing at the last offered candidate so a later
		// affirmative can still select it.
		if next := state.CurrentIndex + 1; next < len(state.Candidates) {
			state.CurrentIndex = next
			state.AwaitingUser = true
			return nil
		}
		e.broadenedRetry(ctx, state)

	default:
		state.AwaitingUser = true
	}
	return nil
}

// broadenedRetry performs the single extra search round after the first
// candidate list is exhausted. It is never repeated: a second exhaustion
// resolves to a terminal no-match summary.
func (e *Engine) broadenedRetry(ctx context.Context, state *State) {
	name := strings.TrimSpace(strings.TrimSpace(state.Inputs["first_name"]) + " " + strings.TrimSpace(state.Inputs["last_name"]))
	profileQuery, resumeQuery := name+" profile", name+" resume"

	if state.Summary == SummaryExhausted || containsQuery(state.Queries, profileQuery) {
		state.AwaitingUser = false
		state.Summary = SummaryExhausted
		return
	}
	broadened := append(append([]string(nil), state.Queries...), profileQuery, resumeQuery)

	candidates := SearchCandidates(ctx, e.searcher, broadened, retryMaxResults)
	e.logger.Info("broadened retry found %d candidates", len(candidates))
	if len(candidates) > 0 {
		state.Queries = broadened
		state.Candidates = candidates
		state.CurrentIndex = 0
		state.AwaitingUser = true
		return
	}
	state.AwaitingUser = false
	state.Summary = SummaryExhausted
}

func containsQuery(queries []string, query string) bool {
	for _, q := range queries {
		if q == query {
			return true
		}
	}
	return false
}

func isAffirmative(decision string) bool {
	switch decision {
	case "yes", "y", "match", "true":
		return true
	}
	return false
}

func isNegative(decision string) bool {
	switch decision {
	case "no", "n", "next", "false":
		return true
	}
	return false
}
