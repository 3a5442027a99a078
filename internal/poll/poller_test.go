package poll

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartscout/cartscout/internal/backend"
	"github.com/cartscout/cartscout/internal/logging"
	"github.com/cartscout/cartscout/internal/models"
	"github.com/cartscout/cartscout/internal/progress"
)

const testInterval = 10 * time.Millisecond

// scriptedStatus replays a fixed sequence of snapshots; the last repeats.
type scriptedStatus struct {
	mu    sync.Mutex
	steps []func() (*models.JobUpdate, error)
	calls int
}

func (s *scriptedStatus) fn(ctx context.Context, jobID string) (*models.JobUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	s.calls++
	return s.steps[i]()
}

func (s *scriptedStatus) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func snapshot(u models.JobUpdate) func() (*models.JobUpdate, error) {
	return func() (*models.JobUpdate, error) { return &u, nil }
}

func TestRunStopsOnComplete(t *testing.T) {
	done := models.JobUpdate{
		Status: models.JobComplete,
		Results: map[string][]models.Offer{
			"milk": {{Name: "Whole Milk", Price: decimal.NewFromFloat(2.49), Merchant: "Safeway"}},
		},
	}
	script := &scriptedStatus{steps: []func() (*models.JobUpdate, error){
		snapshot(models.JobUpdate{Status: models.JobQueued, QueuePosition: 3}),
		snapshot(models.JobUpdate{Status: models.JobProcessing}),
		snapshot(done),
	}}

	p := New(script.fn, testInterval, 0, logging.Nop())
	final, err := p.Run(context.Background(), "job-1")
	require.NoError(t, err)
	require.NotNil(t, final)
	assert.Equal(t, models.JobComplete, final.Status)
	assert.Contains(t, final.Results, "milk")

	// The completing response is the last request ever issued.
	polls := script.count()
	assert.Equal(t, 3, polls)
	time.Sleep(5 * testInterval)
	assert.Equal(t, polls, script.count())
}

func TestRunImmediateFirstPoll(t *testing.T) {
	script := &scriptedStatus{steps: []func() (*models.JobUpdate, error){
		snapshot(models.JobUpdate{Status: models.JobComplete}),
	}}

	p := New(script.fn, time.Minute, 0, logging.Nop())
	start := time.Now()
	_, err := p.Run(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second, "first poll must not wait for the interval")
}

func TestRunJobFailed(t *testing.T) {
	script := &scriptedStatus{steps: []func() (*models.JobUpdate, error){
		snapshot(models.JobUpdate{Status: models.JobQueued}),
		snapshot(models.JobUpdate{Status: models.JobFailed}),
	}}

	p := New(script.fn, testInterval, 0, logging.Nop())
	final, err := p.Run(context.Background(), "job-1")
	assert.Nil(t, final)
	assert.ErrorIs(t, err, ErrJobFailed)

	polls := script.count()
	time.Sleep(5 * testInterval)
	assert.Equal(t, polls, script.count())
}

func TestRunTransportError(t *testing.T) {
	script := &scriptedStatus{steps: []func() (*models.JobUpdate, error){
		snapshot(models.JobUpdate{Status: models.JobProcessing}),
		func() (*models.JobUpdate, error) {
			return nil, &backend.TransportError{Op: "status", StatusCode: 502}
		},
	}}

	p := New(script.fn, testInterval, 0, logging.Nop())
	final, err := p.Run(context.Background(), "job-1")
	assert.Nil(t, final)
	assert.True(t, backend.IsTransport(err))
	assert.Equal(t, 2, script.count())
}

func TestRunTimeout(t *testing.T) {
	script := &scriptedStatus{steps: []func() (*models.JobUpdate, error){
		snapshot(models.JobUpdate{Status: models.JobQueued}),
	}}

	p := New(script.fn, testInterval, 35*time.Millisecond, logging.Nop())
	_, err := p.Run(context.Background(), "job-1")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestRunReportsQueuePosition(t *testing.T) {
	script := &scriptedStatus{steps: []func() (*models.JobUpdate, error){
		snapshot(models.JobUpdate{Status: models.JobQueued, QueuePosition: 3}),
		snapshot(models.JobUpdate{Status: models.JobQueued}),
		snapshot(models.JobUpdate{Status: models.JobComplete}),
	}}

	var mu sync.Mutex
	var msgs []string
	ctx := progress.WithReporter(context.Background(), func(msg string) {
		mu.Lock()
		msgs = append(msgs, msg)
		mu.Unlock()
	})

	p := New(script.fn, testInterval, 0, logging.Nop())
	_, err := p.Run(ctx, "job-1")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(msgs), 3)
	assert.Contains(t, msgs[0], "position: 3")
	assert.Contains(t, msgs[1], "position: ?")
	assert.True(t, strings.Contains(msgs[len(msgs)-1], "100%"))
}

func TestPercentCappedBelowHundred(t *testing.T) {
	assert.Equal(t, 10, Percent(1))
	assert.Equal(t, 50, Percent(5))
	assert.Equal(t, 90, Percent(9))
	assert.Equal(t, 90, Percent(100))
}
