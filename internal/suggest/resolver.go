// Package suggest resolves raw item text into ranked clarification
// candidates. Queries are debounced behind a quiet period and stamped with
// a monotonic token; a response is delivered only while its token is still
// the latest, so a slow early response can never overwrite a later one.
package suggest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/cartscout/cartscout/internal/models"
)

// minQueryLen is the shortest input that triggers a clarification query.
// Anything shorter hides suggestions and enables the manual-add path.
const minQueryLen = 2

// ClarifyFunc queries the clarification service for one item.
type ClarifyFunc func(ctx context.Context, item string, cartContext []string) (*models.SuggestionSet, error)

// Callbacks receive resolver outcomes. A nil SuggestionSet means "no
// suggestions": hide the panel and let the user add the raw text manually.
type Callbacks struct {
	OnSuggestions func(set *models.SuggestionSet)
	OnError       func(err error)
}

// Resolver debounces item input and guards against out-of-order responses.
type Resolver struct {
	clarify ClarifyFunc
	delay   time.Duration
	cb      Callbacks
	log     zerolog.Logger

	mu     sync.Mutex
	token  uint64
	timer  *time.Timer
	cancel context.CancelFunc
	closed bool
}

// NewResolver creates a resolver that waits delay after the last keystroke
// before dispatching a query.
func NewResolver(clarify ClarifyFunc, delay time.Duration, cb Callbacks, log zerolog.Logger) *Resolver {
	return &Resolver{
		clarify: clarify,
		delay:   delay,
		cb:      cb,
		log:     log,
	}
}

// Input feeds the current text of the item field. Each call replaces any
// pending debounce timer; only the timer that survives the quiet period
// dispatches a query.
func (r *Resolver) Input(text string, cartContext []string) {
	text = strings.TrimSpace(text)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}

	if utf8.RuneCountInString(text) < minQueryLen {
		// Too short to query. Invalidate any in-flight response so it
		// cannot land after the panel is hidden.
		r.token++
		if r.cancel != nil {
			r.cancel()
			r.cancel = nil
		}
		r.mu.Unlock()
		if r.cb.OnSuggestions != nil {
			r.cb.OnSuggestions(nil)
		}
		return
	}

	ctxCopy := append([]string(nil), cartContext...)
	r.timer = time.AfterFunc(r.delay, func() {
		r.dispatch(text, ctxCopy)
	})
	r.mu.Unlock()
}

// Close stops the pending timer and cancels any in-flight query. No
// callbacks fire after Close returns (late responses are dropped as stale).
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.token++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func (r *Resolver) dispatch(text string, cartContext []string) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.token++
	tok := r.token
	// Superseding a query cancels the older request outright rather than
	// letting it run to completion and discarding the response.
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.mu.Unlock()

	go func() {
		set, err := r.clarify(ctx, text, cartContext)

		r.mu.Lock()
		stale := r.closed || tok != r.token
		r.mu.Unlock()
		if stale {
			r.log.Debug().Str("text", text).Uint64("token", tok).Msg("dropping stale suggestion response")
			return
		}

		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			if r.cb.OnError != nil {
				r.cb.OnError(err)
			}
			return
		}
		if r.cb.OnSuggestions != nil {
			r.cb.OnSuggestions(set)
		}
	}()
}
