// Package wizard owns the four-stage session state machine that sequences
// cart building, ZIP entry, result polling and result display. All shared
// session state lives behind a single mutex, so callers may drive the
// session from any goroutine.
package wizard

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cartscout/cartscout/internal/aggregate"
	"github.com/cartscout/cartscout/internal/cart"
	"github.com/cartscout/cartscout/internal/models"
)

// Stage identifies one step of the linear wizard.
type Stage int

const (
	BuildCart Stage = iota + 1
	EnterZip
	AwaitResults
	ShowResults
)

func (s Stage) String() string {
	switch s {
	case BuildCart:
		return "build-cart"
	case EnterZip:
		return "enter-zip"
	case AwaitResults:
		return "await-results"
	case ShowResults:
		return "show-results"
	}
	return "unknown"
}

// zipDigits is the required ZIP code length after stripping non-digits.
const zipDigits = 5

var (
	ErrEmptyCart  = errors.New("cart is empty")
	ErrInvalidZip = errors.New("zip code must be exactly 5 digits")
	ErrWrongStage = errors.New("operation not allowed in current stage")
)

// Submitter converts a cart plus ZIP code into a backend job.
type Submitter interface {
	SubmitCart(ctx context.Context, items []string, zipcode string) (string, error)
}

// ResultsPoller drives a job to a terminal state and returns the final
// snapshot on completion.
type ResultsPoller interface {
	Run(ctx context.Context, jobID string) (*models.JobUpdate, error)
}

// Session is the wizard state machine plus all UI-agnostic session state.
type Session struct {
	submit Submitter
	poller ResultsPoller
	log    zerolog.Logger

	mu      sync.Mutex
	stage   Stage
	cart    *cart.Cart
	zip     string
	jobID   string
	results []aggregate.ItemResult
	summary aggregate.Summary
}

// NewSession creates a session at the BuildCart stage with an empty cart.
func NewSession(submit Submitter, poller ResultsPoller, maxItems int, log zerolog.Logger) *Session {
	return &Session{
		submit: submit,
		poller: poller,
		log:    log,
		stage:  BuildCart,
		cart:   cart.New(maxItems),
	}
}

// Stage returns the current wizard stage.
func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// AddItem adds a confirmed item to the cart. Only valid while building.
func (s *Session) AddItem(name, emoji string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != BuildCart {
		return ErrWrongStage
	}
	return s.cart.Add(name, emoji)
}

// RemoveItem removes the cart entry at index.
func (s *Session) RemoveItem(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != BuildCart {
		return ErrWrongStage
	}
	return s.cart.Remove(index)
}

// ClearCart empties the cart.
func (s *Session) ClearCart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != BuildCart {
		return ErrWrongStage
	}
	s.cart.Clear()
	return nil
}

// CartItems returns the current cart contents in insertion order.
func (s *Session) CartItems() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Items()
}

// CartLen returns the number of items in the cart.
func (s *Session) CartLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Len()
}

// CartMax returns the cart capacity.
func (s *Session) CartMax() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Max()
}

// ContinueToZip advances BuildCart → EnterZip; refused on an empty cart.
func (s *Session) ContinueToZip() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != BuildCart {
		return ErrWrongStage
	}
	if s.cart.Len() == 0 {
		return ErrEmptyCart
	}
	s.stage = EnterZip
	return nil
}

// Back navigates EnterZip → BuildCart without clearing the cart.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != EnterZip {
		return ErrWrongStage
	}
	s.stage = BuildCart
	return nil
}

// Submit validates the ZIP code, submits the cart, and drives the job to
// completion. On success the session lands in ShowResults. On submission
// failure, server-reported failure, transport error or poll timeout, the
// session regresses to EnterZip with the cart unmodified and the error is
// returned for the caller to surface.
func (s *Session) Submit(ctx context.Context, rawZip string) error {
	s.mu.Lock()
	if s.stage != EnterZip {
		s.mu.Unlock()
		return ErrWrongStage
	}
	zip := NormalizeZip(rawZip)
	if !ValidZip(zip) {
		s.mu.Unlock()
		return ErrInvalidZip
	}
	if s.cart.Len() == 0 {
		s.mu.Unlock()
		return ErrEmptyCart
	}
	s.zip = zip
	s.stage = AwaitResults
	items := s.cart.Items()
	names := s.cart.Names()
	s.mu.Unlock()

	jobID, err := s.submit.SubmitCart(ctx, names, zip)
	if err != nil {
		s.log.Warn().Err(err).Msg("cart submission failed")
		s.regressToZip()
		return err
	}

	s.mu.Lock()
	s.jobID = jobID
	s.mu.Unlock()
	s.log.Info().Str("job_id", jobID).Int("items", len(names)).Str("zipcode", zip).Msg("job submitted")

	final, err := s.poller.Run(ctx, jobID)
	if err != nil {
		s.log.Warn().Str("job_id", jobID).Err(err).Msg("polling ended without results")
		s.regressToZip()
		return err
	}

	s.mu.Lock()
	s.results = aggregate.Aggregate(items, final.Results)
	s.summary = aggregate.Summarize(items, final, zip)
	s.stage = ShowResults
	s.mu.Unlock()
	return nil
}

// Results returns the aggregated results and summary; valid in ShowResults.
func (s *Session) Results() ([]aggregate.ItemResult, aggregate.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results, s.summary
}

// JobID returns the id of the current job, if any.
func (s *Session) JobID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobID
}

// Zip returns the last validated ZIP code.
func (s *Session) Zip() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zip
}

// NewSearch resets cart, job, ZIP and results, returning to BuildCart.
func (s *Session) NewSearch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != ShowResults {
		return ErrWrongStage
	}
	s.cart.Clear()
	s.zip = ""
	s.jobID = ""
	s.results = nil
	s.summary = aggregate.Summary{}
	s.stage = BuildCart
	return nil
}

func (s *Session) regressToZip() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stage = EnterZip
	s.jobID = ""
}

// NormalizeZip strips every non-digit character from raw input.
func NormalizeZip(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidZip reports whether zip is exactly five digits.
func ValidZip(zip string) bool {
	if len(zip) != zipDigits {
		return false
	}
	for _, r := range zip {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
