package flow

import "maps"

// Candidate is a single search hit that can be offered to the user for
// confirmation. URL is the identity of a candidate: the search adapter
// guarantees it is non-empty and unique within a candidate list.
type Candidate struct {
	Title       string `json:"title,omitempty"`
	URL         string `json:"url"`
	Snippet     string `json:"snippet,omitempty"`
	SourceQuery string `json:"source_query,omitempty"`
}

// Label returns the human-readable label for the candidate: the title when
// present, the URL otherwise.
func (c Candidate) Label() string {
	if c.Title != "" {
		return c.Title
	}
	return c.URL
}

// State is the single record threaded through every traversal of the
// workflow. Absent fields (nil maps/slices, nil pointers, empty strings) are
// semantically distinct from populated ones: the routing logic keys entirely
// on which fields are present.
type State struct {
	// Inputs maps identity field names (first_name, last_name, surname,
	// phone) to the raw values supplied by the caller.
	Inputs map[string]string `json:"inputs,omitempty"`

	// Plan is a fixed human-readable description of the workflow steps,
	// set once by the planner node and never rewritten.
	Plan []string `json:"plan,omitempty"`

	// Queries holds the search query strings used in the most recent
	// search pass.
	Queries []string `json:"queries,omitempty"`

	// Candidates are the deduplicated search hits, in discovery order.
	Candidates []Candidate `json:"candidates,omitempty"`

	// CurrentIndex points at the candidate currently on offer to the user.
	CurrentIndex int `json:"current_index"`

	// Selected is the confirmed candidate. Once set it is never reverted
	// within a run.
	Selected *Candidate `json:"selected,omitempty"`

	// Details is the enrichment result for the selected candidate.
	Details *Candidate `json:"details,omitempty"`

	// Summary is a short label for the resolved outcome.
	Summary string `json:"summary,omitempty"`

	// Report is the generated report text.
	Report string `json:"report,omitempty"`

	// AwaitingUser is true exactly when the workflow stopped at a point
	// that requires a human decision before it can proceed.
	AwaitingUser bool `json:"awaiting_user"`
}

// Clone returns a deep copy of the state. The engine never mutates the
// caller's state; every traversal works on a clone and returns it.
func (s *State) Clone() *State {
	if s == nil {
		return &State{}
	}
	out := *s
	out.Inputs = maps.Clone(s.Inputs)
	if s.Plan != nil {
		out.Plan = append([]string(nil), s.Plan...)
	}
	if s.Queries != nil {
		out.Queries = append([]string(nil), s.Queries...)
	}
	if s.Candidates != nil {
		out.Candidates = append([]Candidate(nil), s.Candidates...)
	}
	if s.Selected != nil {
		sel := *s.Selected
		out.Selected = &sel
	}
	if s.Details != nil {
		det := *s.Details
		out.Details = &det
	}
	return &out
}

// CurrentCandidate returns the candidate currently on offer to the user, or
// nil when CurrentIndex is out of bounds.
func (s *State) CurrentCandidate() *Candidate {
	if s == nil || s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Candidates) {
		return nil
	}
	c := s.Candidates[s.CurrentIndex]
	return &c
}
