// Package backendtest provides a scripted in-process stand-in for the
// price-search backend, driving the same three endpoints the real service
// exposes. Tests configure canned suggestions and a sequence of job-status
// snapshots; the last snapshot repeats for any further polls.
package backendtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cartscout/cartscout/internal/models"
)

// StatusStep is one scripted reply from GET /results/{job_id}.
type StatusStep struct {
	Code   int // HTTP status; 0 means 200
	Update models.JobUpdate
}

// Options configures the fake backend.
type Options struct {
	// Suggestions maps raw clarify input to a canned suggestion set.
	// Missing entries reply with an empty body ("no suggestion").
	Suggestions map[string]*models.SuggestionSet
	// ClarifyStatus, when non-zero, forces every /clarify call to fail
	// with that HTTP status.
	ClarifyStatus int
	// SubmitStatus, when non-zero, forces every /cart call to fail.
	SubmitStatus int
	// StatusScript is consumed one step per poll; the final step repeats.
	StatusScript []StatusStep
}

// Server is the running fake backend.
type Server struct {
	*httptest.Server

	opts Options

	mu     sync.Mutex
	step   int
	polls  int
	jobID  string
	submit struct {
		items   []string
		zipcode string
	}
}

// New starts a fake backend. Callers must Close it.
func New(opts Options) *Server {
	s := &Server{opts: opts}

	r := chi.NewRouter()
	r.Post("/clarify", s.handleClarify)
	r.Post("/cart", s.handleSubmit)
	r.Get("/results/{jobID}", s.handleResults)

	s.Server = httptest.NewServer(r)
	return s
}

// Polls returns how many times /results has been hit.
func (s *Server) Polls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}

// JobID returns the id issued by the most recent submission.
func (s *Server) JobID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobID
}

// Submitted returns the items and zipcode of the most recent submission.
func (s *Server) Submitted() ([]string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submit.items, s.submit.zipcode
}

func (s *Server) handleClarify(w http.ResponseWriter, r *http.Request) {
	if s.opts.ClarifyStatus != 0 {
		http.Error(w, "clarify unavailable", s.opts.ClarifyStatus)
		return
	}
	var req struct {
		Item    string   `json:"item"`
		Context []string `json:"context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	set := s.opts.Suggestions[req.Item]
	w.Header().Set("Content-Type", "application/json")
	if set == nil {
		w.Write([]byte(`{}`))
		return
	}
	json.NewEncoder(w).Encode(set)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if s.opts.SubmitStatus != 0 {
		http.Error(w, "submit unavailable", s.opts.SubmitStatus)
		return
	}
	var req struct {
		Items   []string `json:"items"`
		Zipcode string   `json:"zipcode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.jobID = uuid.NewString()
	s.submit.items = req.Items
	s.submit.zipcode = req.Zipcode
	s.step = 0
	id := s.jobID
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"job_id": id})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	s.mu.Lock()
	s.polls++
	if s.jobID != "" && jobID != s.jobID {
		s.mu.Unlock()
		http.Error(w, "unknown job", http.StatusNotFound)
		return
	}
	if len(s.opts.StatusScript) == 0 {
		s.mu.Unlock()
		http.Error(w, "no script", http.StatusInternalServerError)
		return
	}
	step := s.opts.StatusScript[s.step]
	if s.step < len(s.opts.StatusScript)-1 {
		s.step++
	}
	s.mu.Unlock()

	if step.Code != 0 && step.Code != http.StatusOK {
		http.Error(w, "job status error", step.Code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(encodeUpdate(step.Update))
}

// encodeUpdate renders a JobUpdate the way the real backend does: offer
// prices as JSON numbers, and half the merchants labeled via "title"
// instead of "name" to exercise the client's dual-key decoding.
func encodeUpdate(u models.JobUpdate) map[string]any {
	out := map[string]any{"status": string(u.Status)}
	if u.QueuePosition > 0 {
		out["queue_position"] = u.QueuePosition
	}
	if u.ZipCode != "" {
		out["zip_code"] = u.ZipCode
	}
	if u.TotalTime > 0 {
		out["total_time"] = u.TotalTime
	}
	if u.Results != nil {
		results := make(map[string]any, len(u.Results))
		for item, offers := range u.Results {
			rows := make([]map[string]any, 0, len(offers))
			for i, o := range offers {
				row := map[string]any{
					"price":    o.Price.InexactFloat64(),
					"merchant": o.Merchant,
				}
				if i%2 == 0 {
					row["name"] = o.Name
				} else {
					row["title"] = o.Name
				}
				rows = append(rows, row)
			}
			results[item] = rows
		}
		out["results"] = results
	}
	return out
}
