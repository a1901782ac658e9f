// Package flow implements the Search4People workflow: search the web for
// candidate profiles matching partial identity fields, pause for a human to
// confirm the right candidate, enrich the confirmed candidate with fetched
// page data, and generate a narrative report.
//
// The workflow is a fixed directed graph of nodes
// (ingest → planner → searcher → ask/decider/collector/reporter/finalize/finish)
// executed one traversal per Engine.Run call. A traversal always reaches a
// terminal node; "pausing" for human input is simply returning with
// State.AwaitingUser set, and resuming is a fresh Run with the persisted
// state and the user's decision. State is copy-on-write: Run never mutates
// the prior state it was given.
package flow
