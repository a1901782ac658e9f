package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/smallnest/search4people/flow"
	"github.com/smallnest/search4people/log"
	"github.com/smallnest/search4people/store"
)

// Task statuses reported to the UI.
const (
	TaskIdle     = "idle"
	TaskRunning  = "running"
	TaskAwaiting = "awaiting_user"
	TaskDone     = "done"
	TaskError    = "error"
)

// TaskStatus is the progress of the most recent workflow run for a person.
type TaskStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Runner executes workflow traversals in the background, one at a time per
// person. The per-person mutex is what serializes overlapping requests for
// the same record; the workflow core itself makes no such guarantee.
type Runner struct {
	store  store.Store
	engine *flow.Engine
	logger log.Logger

	mu       sync.Mutex
	statuses map[int64]TaskStatus
	locks    map[int64]*sync.Mutex

	wg sync.WaitGroup
}

// NewRunner creates a task runner over the given store and engine.
func NewRunner(st store.Store, engine *flow.Engine, logger log.Logger) *Runner {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &Runner{
		store:    st,
		engine:   engine,
		logger:   logger,
		statuses: make(map[int64]TaskStatus),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// Start schedules one workflow traversal for the person in the background.
// When inputs is nil, the prior state is loaded from the store; otherwise a
// fresh run starts from the supplied inputs.
func (r *Runner) Start(personID int64, inputs map[string]string, decision string) {
	r.setStatus(personID, TaskRunning, "Searching and preparing candidates…")
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(personID, inputs, decision)
	}()
}

// Wait blocks until all scheduled runs have finished. Used by tests and
// graceful shutdown.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) run(personID int64, inputs map[string]string, decision string) {
	runID := uuid.NewString()
	ctx := context.Background()

	lock := r.personLock(personID)
	lock.Lock()
	defer lock.Unlock()

	r.logger.Info("run %s: person %d decision=%q", runID, personID, decision)

	prior, err := r.loadPrior(ctx, personID, inputs)
	if err != nil {
		r.logger.Error("run %s: %v", runID, err)
		r.setStatus(personID, TaskError, err.Error())
		return
	}

	state, report, err := r.engine.Run(ctx, inputs, prior, decision)
	if err != nil {
		// Hard failure: keep the last good persisted state untouched.
		r.logger.Error("run %s: workflow failed: %v", runID, err)
		r.setStatus(personID, TaskError, err.Error())
		return
	}

	if err := r.persist(ctx, personID, state); err != nil {
		r.logger.Error("run %s: %v", runID, err)
		r.setStatus(personID, TaskError, err.Error())
		return
	}

	if state.AwaitingUser {
		r.setStatus(personID, TaskAwaiting, "Waiting for user confirmation…")
	} else {
		r.setStatus(personID, TaskDone, "Completed")
	}
	r.logger.Info("run %s: done (awaiting_user=%v, report=%d bytes)", runID, state.AwaitingUser, len(report))
}

// loadPrior reconstitutes the prior workflow state from the store. A fresh
// search (inputs supplied) starts from an empty state, matching a brand-new
// record.
func (r *Runner) loadPrior(ctx context.Context, personID int64, inputs map[string]string) (*flow.State, error) {
	if inputs != nil {
		return nil, nil
	}
	person, err := r.store.Get(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("failed to load person %d: %w", personID, err)
	}
	if person.StateJSON == "" {
		return nil, nil
	}
	var prior flow.State
	if err := json.Unmarshal([]byte(person.StateJSON), &prior); err != nil {
		return nil, fmt.Errorf("corrupt stored state for person %d: %w", personID, err)
	}
	return &prior, nil
}

func (r *Runner) persist(ctx context.Context, personID int64, state *flow.State) error {
	person, err := r.store.Get(ctx, personID)
	if err != nil {
		return fmt.Errorf("failed to reload person %d: %w", personID, err)
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	person.StateJSON = string(raw)
	person.Summary = state.Summary
	person.ReportText = state.Report

	if err := r.store.Update(ctx, person); err != nil {
		return fmt.Errorf("failed to persist state for person %d: %w", personID, err)
	}
	return nil
}

// Status returns the task status for a person. When no run has been
// scheduled in this process, the status is derived from the persisted state
// so a restarted server still reports a pending confirmation.
func (r *Runner) Status(ctx context.Context, personID int64) TaskStatus {
	r.mu.Lock()
	st, ok := r.statuses[personID]
	r.mu.Unlock()
	if ok && st.Status != TaskIdle {
		return st
	}

	person, err := r.store.Get(ctx, personID)
	if err != nil {
		return TaskStatus{Status: TaskIdle}
	}
	if person.StateJSON != "" {
		var state flow.State
		if err := json.Unmarshal([]byte(person.StateJSON), &state); err == nil {
			if state.AwaitingUser {
				return TaskStatus{Status: TaskAwaiting, Message: "Waiting for user confirmation…"}
			}
			if state.Report != "" || person.ReportText != "" {
				return TaskStatus{Status: TaskDone, Message: "Completed"}
			}
		}
	}
	return TaskStatus{Status: TaskIdle}
}

func (r *Runner) setStatus(personID int64, status, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[personID] = TaskStatus{Status: status, Message: message}
}

func (r *Runner) personLock(personID int64) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[personID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[personID] = lock
	}
	return lock
}
