package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/smallnest/search4people/flow"
	"github.com/smallnest/search4people/log"
	"github.com/smallnest/search4people/store"
)

// Server is the HTTP surface over the person store and the workflow runner.
type Server struct {
	store  store.Store
	runner *Runner
	logger log.Logger
}

// New creates a Server. A nil logger falls back to the package default.
func New(st store.Store, runner *Runner, logger log.Logger) *Server {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &Server{store: st, runner: runner, logger: logger}
}

// Routes builds the HTTP router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/search", s.handleSearch)
	r.Get("/people", s.handleListPeople)
	r.Get("/people/{id}", s.handleGetPerson)
	r.Get("/confirm/{id}", s.handleGetConfirm)
	r.Post("/confirm/{id}", s.handlePostConfirm)
	r.Post("/people/{id}/update", s.handleUpdateDetails)
	r.Post("/people/{id}/report", s.handleGenerateReport)
	r.Post("/people/{id}/archive", s.handleArchive)
	r.Post("/people/{id}/remove", s.handleRemove)
	r.Get("/people/{id}/report.html", s.handleReportHTML)
	r.Get("/status/{id}", s.handleStatus)

	return r
}

// handleSearch starts a new person search. If an identical identity already
// exists as an active record, the client is redirected to it instead of
// creating a duplicate.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	person := &store.Person{
		FirstName: strings.TrimSpace(r.FormValue("first_name")),
		LastName:  strings.TrimSpace(r.FormValue("last_name")),
		Surname:   strings.TrimSpace(r.FormValue("surname")),
		Phone:     strings.TrimSpace(r.FormValue("phone")),
		Status:    store.StatusActive,
	}
	if person.FirstName == "" && person.LastName == "" && person.Surname == "" && person.Phone == "" {
		s.writeError(w, http.StatusBadRequest, "at least one identity field is required")
		return
	}

	existing, err := s.store.FindExisting(r.Context(), person.FirstName, person.LastName, person.Surname, person.Phone)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing != nil {
		http.Redirect(w, r, "/people/"+strconv.FormatInt(existing.ID, 10), http.StatusSeeOther)
		return
	}

	id, err := s.store.Create(r.Context(), person)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.runner.Start(id, personInputs(person), "")
	http.Redirect(w, r, "/people/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
}

func (s *Server) handleListPeople(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("include_archived") == "true"
	people, err := s.store.List(r.Context(), includeArchived)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"people": people})
}

// personView is the JSON shape returned for a single person, with the
// persisted workflow state decoded for the client.
type personView struct {
	Person *store.Person `json:"person"`
	State  *flow.State   `json:"state,omitempty"`
	Status TaskStatus    `json:"status"`
}

func (s *Server) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	person, ok := s.loadPerson(w, r)
	if !ok {
		return
	}
	view := personView{Person: person, Status: s.runner.Status(r.Context(), person.ID)}
	if person.StateJSON != "" {
		var state flow.State
		if err := json.Unmarshal([]byte(person.StateJSON), &state); err == nil {
			view.State = &state
		}
	}
	s.writeJSON(w, http.StatusOK, view)
}

// handleGetConfirm returns the candidate currently offered for confirmation.
func (s *Server) handleGetConfirm(w http.ResponseWriter, r *http.Request) {
	person, ok := s.loadPerson(w, r)
	if !ok {
		return
	}
	state, ok := s.decodeState(w, person)
	if !ok {
		return
	}
	candidate := state.CurrentCandidate()
	if !state.AwaitingUser || candidate == nil {
		s.writeError(w, http.StatusConflict, "no candidate is awaiting confirmation")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"candidate": candidate,
		"index":     state.CurrentIndex,
		"total":     len(state.Candidates),
	})
}

// handlePostConfirm resumes the workflow with the user's decision.
func (s *Server) handlePostConfirm(w http.ResponseWriter, r *http.Request) {
	person, ok := s.loadPerson(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	decision := strings.TrimSpace(r.FormValue("decision"))
	if decision == "" {
		s.writeError(w, http.StatusBadRequest, "decision is required")
		return
	}
	s.runner.Start(person.ID, nil, decision)
	http.Redirect(w, r, "/people/"+strconv.FormatInt(person.ID, 10), http.StatusSeeOther)
}

// handleUpdateDetails re-runs enrichment for an already confirmed candidate.
func (s *Server) handleUpdateDetails(w http.ResponseWriter, r *http.Request) {
	s.resumeWithDecision(w, r, "collect")
}

// handleGenerateReport regenerates the report for a confirmed candidate.
func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	s.resumeWithDecision(w, r, "report")
}

func (s *Server) resumeWithDecision(w http.ResponseWriter, r *http.Request, decision string) {
	person, ok := s.loadPerson(w, r)
	if !ok {
		return
	}
	state, ok := s.decodeState(w, person)
	if !ok {
		return
	}
	if state.Selected == nil {
		s.writeError(w, http.StatusConflict, "no candidate has been confirmed yet")
		return
	}
	s.runner.Start(person.ID, nil, decision)
	http.Redirect(w, r, "/people/"+strconv.FormatInt(person.ID, 10), http.StatusSeeOther)
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	person, ok := s.loadPerson(w, r)
	if !ok {
		return
	}
	if err := s.store.Archive(r.Context(), person.ID); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	http.Redirect(w, r, "/people", http.StatusSeeOther)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	person, ok := s.loadPerson(w, r)
	if !ok {
		return
	}
	if err := s.store.Delete(r.Context(), person.ID); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	http.Redirect(w, r, "/people", http.StatusSeeOther)
}

func (s *Server) handleReportHTML(w http.ResponseWriter, r *http.Request) {
	person, ok := s.loadPerson(w, r)
	if !ok {
		return
	}
	report := person.ReportText
	if report == "" {
		if state, ok := s.decodeState(w, person); ok {
			report = state.Report
		} else {
			return
		}
	}
	if report == "" {
		s.writeError(w, http.StatusNotFound, "no report has been generated yet")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(RenderMarkdown(report))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	person, ok := s.loadPerson(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, s.runner.Status(r.Context(), person.ID))
}

func (s *Server) loadPerson(w http.ResponseWriter, r *http.Request) (*store.Person, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid person id")
		return nil, false
	}
	person, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "person not found")
		return nil, false
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return person, true
}

func (s *Server) decodeState(w http.ResponseWriter, person *store.Person) (*flow.State, bool) {
	if person.StateJSON == "" {
		s.writeError(w, http.StatusConflict, "no workflow state for this person yet")
		return nil, false
	}
	var state flow.State
	if err := json.Unmarshal([]byte(person.StateJSON), &state); err != nil {
		s.writeError(w, http.StatusInternalServerError, "stored workflow state is corrupt")
		return nil, false
	}
	return &state, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func personInputs(p *store.Person) map[string]string {
	inputs := make(map[string]string, 4)
	if p.FirstName != "" {
		inputs["first_name"] = p.FirstName
	}
	if p.LastName != "" {
		inputs["last_name"] = p.LastName
	}
	if p.Surname != "" {
		inputs["surname"] = p.Surname
	}
	if p.Phone != "" {
		inputs["phone"] = p.Phone
	}
	return inputs
}
