package flow

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCandidate() Candidate {
	return Candidate{
		Title:       "Test Candidate",
		URL:         "https://example.com/profile",
		Snippet:     "Profile snippet",
		SourceQuery: "John Doe linkedin",
	}
}

func newTestEngine(searcher *fakeSearcher) *Engine {
	if searcher == nil {
		searcher = &fakeSearcher{}
	}
	return New(searcher, &fakeFetcher{title: "Fetched Title"}, &fakeGenerator{text: "# Report"})
}

func TestRunConfirmYes(t *testing.T) {
	t.Parallel()

	prior := &State{
		Inputs:       map[string]string{"first_name": "John", "last_name": "Doe"},
		Candidates:   []Candidate{testCandidate()},
		CurrentIndex: 0,
	}

	state, report, err := newTestEngine(nil).Run(context.Background(), nil, prior, "yes")

	require.NoError(t, err)
	require.NotNil(t, state.Selected)
	assert.Equal(t, testCandidate(), *state.Selected)
	assert.False(t, state.AwaitingUser)
	assert.NotEmpty(t, state.Summary)
	assert.NotEmpty(t, state.Report)
	assert.Equal(t, state.Report, report)
	require.NotNil(t, state.Details)
	assert.Equal(t, "Test Candidate", state.Details.Title)
}

func TestRunNoCandidates(t *testing.T) {
	t.Parallel()

	inputs := map[string]string{"first_name": "John", "last_name": "Doe"}
	state, report, err := newTestEngine(&fakeSearcher{}).Run(context.Background(), inputs, nil, "")

	require.NoError(t, err)
	assert.Empty(t, report)
	assert.False(t, state.AwaitingUser)
	assert.Equal(t, SummaryNoCandidates, state.Summary)
	assert.Nil(t, state.Selected)
}

func TestRunExhaustion(t *testing.T) {
	t.Parallel()

	prior := &State{
		Inputs:       map[string]string{"first_name": "John", "last_name": "Doe"},
		Queries:      []string{"John Doe"},
		Candidates:   []Candidate{testCandidate()},
		CurrentIndex: 0,
	}
	searcher := &fakeSearcher{} // broadened retry also returns nothing

	state, _, err := newTestEngine(searcher).Run(context.Background(), nil, prior, "no")

	require.NoError(t, err)
	assert.False(t, state.AwaitingUser)
	assert.Equal(t, SummaryExhausted, state.Summary)
	// The broadened retry appended the profile/resume queries and used the
	// lower result cap.
	assert.Contains(t, searcher.queries, "John Doe profile")
	assert.Contains(t, searcher.queries, "John Doe resume")
	for _, max := range searcher.maxSeen {
		assert.Equal(t, retryMaxResults, max)
	}
}

func TestRunBroadenedRetryReplacesCandidates(t *testing.T) {
	t.Parallel()

	prior := &State{
		Inputs:       map[string]string{"first_name": "John", "last_name": "Doe"},
		Queries:      []string{"John Doe"},
		Candidates:   []Candidate{testCandidate()},
		CurrentIndex: 0,
	}
	searcher := &fakeSearcher{
		results: map[string][]SearchResult{
			"John Doe profile": {{Title: "Alt", URL: "https://alt.example"}},
		},
	}

	state, _, err := newTestEngine(searcher).Run(context.Background(), nil, prior, "no")

	require.NoError(t, err)
	assert.True(t, state.AwaitingUser)
	require.Len(t, state.Candidates, 1)
	assert.Equal(t, "https://alt.example", state.Candidates[0].URL)
	assert.Equal(t, 0, state.CurrentIndex)
	assert.Contains(t, state.Queries, "John Doe profile")
}

func TestRunBroadenedRetryHappensOnlyOnce(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{
		results: map[string][]SearchResult{
			"John Doe profile": {{Title: "Alt", URL: "https://alt.example"}},
		},
	}
	prior := &State{
		Inputs:       map[string]string{"first_name": "John", "last_name": "Doe"},
		Queries:      []string{"John Doe"},
		Candidates:   []Candidate{testCandidate()},
		CurrentIndex: 0,
	}
	engine := newTestEngine(searcher)

	state, _, err := engine.Run(context.Background(), nil, prior, "no")
	require.NoError(t, err)
	require.True(t, state.AwaitingUser)

	// Rejecting the broadened candidate too must not trigger another round.
	state, _, err = engine.Run(context.Background(), nil, state, "no")
	require.NoError(t, err)
	assert.False(t, state.AwaitingUser)
	assert.Equal(t, SummaryExhausted, state.Summary)
}

func TestRunAskThenResume(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{
		results: map[string][]SearchResult{
			"John Doe": {{Title: "Test Candidate", URL: "https://example.com/profile", Body: "Profile snippet"}},
		},
	}
	engine := newTestEngine(searcher)
	inputs := map[string]string{"first_name": "John", "last_name": "Doe"}

	// First call: search runs, then the workflow pauses for confirmation.
	state, report, err := engine.Run(context.Background(), inputs, nil, "")
	require.NoError(t, err)
	assert.Empty(t, report)
	assert.True(t, state.AwaitingUser)
	assert.Nil(t, state.Selected)
	require.NotEmpty(t, state.Candidates)
	assert.Len(t, state.Plan, 5)

	// Round-trip through JSON the way the persistence layer would.
	raw, err := json.Marshal(state)
	require.NoError(t, err)
	var restored State
	require.NoError(t, json.Unmarshal(raw, &restored))
	assert.Equal(t, state, &restored)

	// Second call resumes with the decision.
	state, report, err = engine.Run(context.Background(), nil, &restored, "yes")
	require.NoError(t, err)
	require.NotNil(t, state.Selected)
	assert.Equal(t, "https://example.com/profile", state.Selected.URL)
	assert.False(t, state.AwaitingUser)
	assert.NotEmpty(t, report)
}

func TestRunMaxResultsOption(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{
		results: map[string][]SearchResult{
			"John Doe": {{Title: "Test Candidate", URL: "https://example.com/profile"}},
		},
	}
	engine := New(searcher, &fakeFetcher{}, &fakeGenerator{}, WithMaxResults(2))

	_, _, err := engine.Run(context.Background(), map[string]string{"first_name": "John", "last_name": "Doe"}, nil, "")

	require.NoError(t, err)
	require.NotEmpty(t, searcher.maxSeen)
	for _, max := range searcher.maxSeen {
		assert.Equal(t, 2, max)
	}
}

func TestRunPlannerIdempotent(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(nil)
	inputs := map[string]string{"first_name": "John"}

	state, _, err := engine.Run(context.Background(), inputs, nil, "")
	require.NoError(t, err)
	plan := state.Plan
	require.Len(t, plan, 5)

	// A second traversal must not rewrite the existing plan.
	state.Plan[0] = "custom first step"
	again, _, err := engine.Run(context.Background(), inputs, state, "")
	require.NoError(t, err)
	assert.Equal(t, "custom first step", again.Plan[0])
	assert.Len(t, again.Plan, 5)
}

func TestRunUnrecognizedDecisionAsksAgain(t *testing.T) {
	t.Parallel()

	prior := &State{
		Inputs:     map[string]string{"first_name": "John"},
		Candidates: []Candidate{testCandidate()},
	}

	state, report, err := newTestEngine(nil).Run(context.Background(), nil, prior, "maybe?")

	require.NoError(t, err)
	assert.Empty(t, report)
	assert.True(t, state.AwaitingUser)
	assert.Nil(t, state.Selected)
	assert.Equal(t, 0, state.CurrentIndex)
}

func TestRunNegativeAdvancesToNextCandidate(t *testing.T) {
	t.Parallel()

	prior := &State{
		Inputs: map[string]string{"first_name": "John"},
		Candidates: []Candidate{
			testCandidate(),
			{Title: "Second", URL: "https://second.example"},
		},
		CurrentIndex: 0,
	}

	state, _, err := newTestEngine(nil).Run(context.Background(), nil, prior, "no")

	require.NoError(t, err)
	assert.True(t, state.AwaitingUser)
	assert.Equal(t, 1, state.CurrentIndex)
	require.NotNil(t, state.CurrentCandidate())
	assert.Equal(t, "https://second.example", state.CurrentCandidate().URL)
}

func TestRunDecisionTokensAreNormalized(t *testing.T) {
	t.Parallel()

	for _, decision := range []string{"YES", " Match ", "TRUE", "y"} {
		prior := &State{
			Inputs:     map[string]string{"first_name": "John"},
			Candidates: []Candidate{testCandidate()},
		}
		state, _, err := newTestEngine(nil).Run(context.Background(), nil, prior, decision)
		require.NoError(t, err, decision)
		assert.NotNil(t, state.Selected, decision)
	}
}

func TestRunCollectDecision(t *testing.T) {
	t.Parallel()

	selected := testCandidate()
	selected.Title = "" // force enrichment to supply the title
	prior := &State{
		Inputs:   map[string]string{"first_name": "John"},
		Selected: &selected,
	}

	state, report, err := newTestEngine(nil).Run(context.Background(), nil, prior, "collect")

	require.NoError(t, err)
	assert.Empty(t, report)
	assert.Empty(t, state.Report)
	assert.False(t, state.AwaitingUser)
	require.NotNil(t, state.Details)
	assert.Equal(t, "Fetched Title", state.Details.Title)
	assert.NotEmpty(t, state.Summary)
}

func TestRunReportDecision(t *testing.T) {
	t.Parallel()

	selected := testCandidate()
	prior := &State{
		Inputs:   map[string]string{"first_name": "John"},
		Selected: &selected,
	}

	state, report, err := newTestEngine(nil).Run(context.Background(), nil, prior, "report")

	require.NoError(t, err)
	assert.Equal(t, "# Report", report)
	assert.Equal(t, "# Report", state.Report)
	assert.False(t, state.AwaitingUser)
	// Reporter enriches on demand when details are missing.
	assert.NotNil(t, state.Details)
}

func TestRunSelectedWithoutInstructionFinalizes(t *testing.T) {
	t.Parallel()

	selected := testCandidate()
	prior := &State{
		Inputs:       map[string]string{"first_name": "John"},
		Selected:     &selected,
		AwaitingUser: true,
	}

	state, report, err := newTestEngine(nil).Run(context.Background(), nil, prior, "")

	require.NoError(t, err)
	assert.Empty(t, report)
	assert.False(t, state.AwaitingUser)
	assert.Equal(t, "Test Candidate", state.Summary)
	assert.Empty(t, state.Report)
}

func TestRunNothingActionable(t *testing.T) {
	t.Parallel()

	state, report, err := newTestEngine(nil).Run(context.Background(), nil, nil, "")

	require.NoError(t, err)
	assert.Empty(t, report)
	assert.False(t, state.AwaitingUser)
	assert.Empty(t, state.Plan)
	assert.Empty(t, state.Candidates)
}

func TestRunDoesNotMutatePrior(t *testing.T) {
	t.Parallel()

	prior := &State{
		Inputs:     map[string]string{"first_name": "John"},
		Candidates: []Candidate{testCandidate()},
	}
	snapshot := prior.Clone()

	_, _, err := newTestEngine(nil).Run(context.Background(), nil, prior, "yes")
	require.NoError(t, err)
	assert.Equal(t, snapshot, prior)
}

func TestRunConfirmAfterExhaustionSelectsLastOffered(t *testing.T) {
	t.Parallel()

	prior := &State{
		Inputs:       map[string]string{"first_name": "John", "last_name": "Doe"},
		Queries:      []string{"John Doe"},
		Candidates:   []Candidate{testCandidate()},
		CurrentIndex: 0,
	}
	engine := newTestEngine(&fakeSearcher{}) // broadened retry finds nothing

	state, _, err := engine.Run(context.Background(), nil, prior, "no")
	require.NoError(t, err)
	require.False(t, state.AwaitingUser)
	assert.Equal(t, SummaryExhausted, state.Summary)
	// The index still points at the last candidate that was offered.
	assert.Equal(t, 0, state.CurrentIndex)

	// Changing their mind after exhaustion selects that candidate.
	state, report, err := engine.Run(context.Background(), nil, state, "yes")
	require.NoError(t, err)
	require.NotNil(t, state.Selected)
	assert.Equal(t, testCandidate(), *state.Selected)
	assert.NotEmpty(t, report)
}

func TestRunConfirmWithCorruptIndexErrors(t *testing.T) {
	t.Parallel()

	for _, index := range []int{-1, 7} {
		prior := &State{
			Inputs:       map[string]string{"first_name": "John"},
			Candidates:   []Candidate{testCandidate()},
			CurrentIndex: index,
		}

		_, _, err := newTestEngine(nil).Run(context.Background(), nil, prior, "yes")
		assert.Error(t, err, "index %d", index)
	}
}
