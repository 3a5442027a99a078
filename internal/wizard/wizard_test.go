package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartscout/cartscout/internal/backend"
	"github.com/cartscout/cartscout/internal/logging"
	"github.com/cartscout/cartscout/internal/models"
	"github.com/cartscout/cartscout/internal/poll"
)

type fakeSubmitter struct {
	jobID   string
	err     error
	items   []string
	zipcode string
	calls   int
}

func (f *fakeSubmitter) SubmitCart(ctx context.Context, items []string, zipcode string) (string, error) {
	f.calls++
	f.items = items
	f.zipcode = zipcode
	if f.err != nil {
		return "", f.err
	}
	return f.jobID, nil
}

type fakePoller struct {
	update *models.JobUpdate
	err    error
	jobID  string
}

func (f *fakePoller) Run(ctx context.Context, jobID string) (*models.JobUpdate, error) {
	f.jobID = jobID
	return f.update, f.err
}

func newTestSession(sub Submitter, p ResultsPoller) *Session {
	return NewSession(sub, p, 10, logging.Nop())
}

func addItems(t *testing.T, s *Session, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, s.AddItem(n, "🛒"))
	}
}

func TestContinueRequiresNonEmptyCart(t *testing.T) {
	s := newTestSession(&fakeSubmitter{}, &fakePoller{})

	assert.ErrorIs(t, s.ContinueToZip(), ErrEmptyCart)
	assert.Equal(t, BuildCart, s.Stage())

	addItems(t, s, "milk")
	require.NoError(t, s.ContinueToZip())
	assert.Equal(t, EnterZip, s.Stage())
}

func TestBackKeepsCart(t *testing.T) {
	s := newTestSession(&fakeSubmitter{}, &fakePoller{})
	addItems(t, s, "milk", "eggs")
	require.NoError(t, s.ContinueToZip())

	require.NoError(t, s.Back())
	assert.Equal(t, BuildCart, s.Stage())
	assert.Equal(t, 2, s.CartLen())
}

func TestCartMutationOnlyWhileBuilding(t *testing.T) {
	s := newTestSession(&fakeSubmitter{}, &fakePoller{})
	addItems(t, s, "milk")
	require.NoError(t, s.ContinueToZip())

	assert.ErrorIs(t, s.AddItem("eggs", ""), ErrWrongStage)
	assert.ErrorIs(t, s.RemoveItem(0), ErrWrongStage)
	assert.ErrorIs(t, s.ClearCart(), ErrWrongStage)
}

func TestSubmitRejectsShortZip(t *testing.T) {
	sub := &fakeSubmitter{jobID: "job-1"}
	s := newTestSession(sub, &fakePoller{})
	addItems(t, s, "milk")
	require.NoError(t, s.ContinueToZip())

	err := s.Submit(context.Background(), "9510")
	assert.ErrorIs(t, err, ErrInvalidZip)
	assert.Equal(t, EnterZip, s.Stage())
	assert.Zero(t, sub.calls, "an invalid zip must not reach the backend")
}

func TestSubmitSuccess(t *testing.T) {
	sub := &fakeSubmitter{jobID: "job-42"}
	p := &fakePoller{update: &models.JobUpdate{
		Status: models.JobComplete,
		Results: map[string][]models.Offer{
			"milk": {
				{Name: "Whole Milk", Price: decimal.NewFromFloat(2.00), Merchant: "Safeway"},
				{Name: "2% Milk", Price: decimal.NewFromFloat(3.10), Merchant: "Target"},
			},
		},
		ZipCode:   "95101",
		TotalTime: 8.5,
	}}
	s := newTestSession(sub, p)
	addItems(t, s, "milk", "eggs")
	require.NoError(t, s.ContinueToZip())

	// Non-digits are stripped at entry time.
	require.NoError(t, s.Submit(context.Background(), " 95-101 "))

	assert.Equal(t, ShowResults, s.Stage())
	assert.Equal(t, []string{"milk", "eggs"}, sub.items)
	assert.Equal(t, "95101", sub.zipcode)
	assert.Equal(t, "job-42", p.jobID)
	assert.Equal(t, "job-42", s.JobID())

	results, sum := s.Results()
	require.Len(t, results, 2)
	assert.Equal(t, "milk", results[0].Item.Name)
	assert.True(t, results[0].BestPrice.Equal(decimal.NewFromInt(2)))
	assert.False(t, results[1].Found())
	assert.Equal(t, 1, sum.ItemsFound)
	assert.Equal(t, 2, sum.TotalItems)
	assert.Equal(t, "95101", sum.ZipCode)
}

func TestSubmitFailureRegressesToZip(t *testing.T) {
	sub := &fakeSubmitter{err: &backend.TransportError{Op: "submit", StatusCode: 503}}
	s := newTestSession(sub, &fakePoller{})
	addItems(t, s, "milk", "eggs")
	require.NoError(t, s.ContinueToZip())

	err := s.Submit(context.Background(), "95101")
	assert.True(t, backend.IsTransport(err))
	assert.Equal(t, EnterZip, s.Stage())
	assert.Equal(t, 2, s.CartLen(), "cart must survive a failed submission")
}

func TestPollFailureRegressesToZip(t *testing.T) {
	for name, pollErr := range map[string]error{
		"server failed":   poll.ErrJobFailed,
		"transport error": &backend.TransportError{Op: "status", StatusCode: 500},
		"timeout":         poll.ErrTimeout,
	} {
		t.Run(name, func(t *testing.T) {
			s := newTestSession(&fakeSubmitter{jobID: "job-1"}, &fakePoller{err: pollErr})
			addItems(t, s, "milk", "eggs")
			require.NoError(t, s.ContinueToZip())

			err := s.Submit(context.Background(), "95101")
			assert.True(t, errors.Is(err, pollErr) || backend.IsTransport(err))
			assert.Equal(t, EnterZip, s.Stage())
			assert.Equal(t, []string{"milk", "eggs"}, namesOf(s.CartItems()))
		})
	}
}

func TestNewSearchResetsEverything(t *testing.T) {
	sub := &fakeSubmitter{jobID: "job-1"}
	p := &fakePoller{update: &models.JobUpdate{Status: models.JobComplete}}
	s := newTestSession(sub, p)
	addItems(t, s, "milk")
	require.NoError(t, s.ContinueToZip())
	require.NoError(t, s.Submit(context.Background(), "95101"))
	require.Equal(t, ShowResults, s.Stage())

	require.NoError(t, s.NewSearch())
	assert.Equal(t, BuildCart, s.Stage())
	assert.Zero(t, s.CartLen())
	assert.Empty(t, s.JobID())
	assert.Empty(t, s.Zip())
	results, sum := s.Results()
	assert.Empty(t, results)
	assert.Zero(t, sum.TotalItems)
}

func TestNewSearchOnlyFromResults(t *testing.T) {
	s := newTestSession(&fakeSubmitter{}, &fakePoller{})
	assert.ErrorIs(t, s.NewSearch(), ErrWrongStage)
}

func TestNormalizeAndValidateZip(t *testing.T) {
	assert.Equal(t, "95101", NormalizeZip("95101"))
	assert.Equal(t, "95101", NormalizeZip("95-101"))
	assert.Equal(t, "95101", NormalizeZip(" 9 5 1 0 1 "))
	assert.Equal(t, "", NormalizeZip("abcde"))

	assert.True(t, ValidZip("95101"))
	assert.False(t, ValidZip("9510"))
	assert.False(t, ValidZip("951011"))
	assert.False(t, ValidZip("9510a"))
}

func namesOf(items []models.CartItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}
