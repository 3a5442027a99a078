package backend_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartscout/cartscout/internal/backend"
	"github.com/cartscout/cartscout/internal/backendtest"
	"github.com/cartscout/cartscout/internal/logging"
	"github.com/cartscout/cartscout/internal/models"
)

func newClient(srv *backendtest.Server) *backend.Client {
	return backend.New(nil, srv.URL, logging.Nop())
}

func TestClarify(t *testing.T) {
	srv := backendtest.New(backendtest.Options{
		Suggestions: map[string]*models.SuggestionSet{
			"mlk": {
				Best: models.Suggestion{Name: "Whole Milk", Emoji: "🥛"},
				Alternates: []models.Suggestion{
					{Name: "2% Milk"},
					{Name: "Oat Milk", Emoji: "🌾"},
					{Name: "Almond Milk"},
					{Name: "Soy Milk"},
				},
			},
		},
	})
	defer srv.Close()

	set, err := newClient(srv).Clarify(context.Background(), "mlk", []string{"eggs"})
	require.NoError(t, err)
	require.NotNil(t, set)
	assert.Equal(t, "Whole Milk", set.Best.Name)
	assert.Equal(t, "🥛", set.Best.Emoji)
	require.Len(t, set.Alternates, 3, "alternates are capped at three")
	assert.Equal(t, "🛒", set.Alternates[0].Emoji, "missing emoji hints default")
}

func TestClarifyNoSuggestion(t *testing.T) {
	srv := backendtest.New(backendtest.Options{})
	defer srv.Close()

	set, err := newClient(srv).Clarify(context.Background(), "zzzz", nil)
	require.NoError(t, err)
	assert.Nil(t, set)
}

func TestClarifyServerError(t *testing.T) {
	srv := backendtest.New(backendtest.Options{ClarifyStatus: http.StatusBadGateway})
	defer srv.Close()

	_, err := newClient(srv).Clarify(context.Background(), "milk", nil)
	require.Error(t, err)
	assert.True(t, backend.IsTransport(err))
}

func TestSubmitCart(t *testing.T) {
	srv := backendtest.New(backendtest.Options{})
	defer srv.Close()

	jobID, err := newClient(srv).SubmitCart(context.Background(), []string{"milk", "eggs"}, "95101")
	require.NoError(t, err)
	assert.Equal(t, srv.JobID(), jobID, "job id is returned verbatim")

	items, zip := srv.Submitted()
	assert.Equal(t, []string{"milk", "eggs"}, items)
	assert.Equal(t, "95101", zip)
}

func TestSubmitCartValidation(t *testing.T) {
	srv := backendtest.New(backendtest.Options{})
	defer srv.Close()
	c := newClient(srv)

	_, err := c.SubmitCart(context.Background(), []string{"milk"}, "9510")
	assert.Error(t, err, "4-digit zip must be rejected before any request")

	_, err = c.SubmitCart(context.Background(), []string{"milk"}, "9510a")
	assert.Error(t, err)

	_, err = c.SubmitCart(context.Background(), nil, "95101")
	assert.Error(t, err, "empty cart must be rejected")

	items, _ := srv.Submitted()
	assert.Nil(t, items, "invalid submissions must never reach the backend")
}

func TestSubmitCartServerError(t *testing.T) {
	srv := backendtest.New(backendtest.Options{SubmitStatus: http.StatusServiceUnavailable})
	defer srv.Close()

	_, err := newClient(srv).SubmitCart(context.Background(), []string{"milk"}, "95101")
	require.Error(t, err)
	assert.True(t, backend.IsTransport(err))
}

func TestJobStatusDecodesOffers(t *testing.T) {
	srv := backendtest.New(backendtest.Options{
		StatusScript: []backendtest.StatusStep{
			{Update: models.JobUpdate{Status: models.JobQueued, QueuePosition: 2}},
			{Update: models.JobUpdate{
				Status: models.JobComplete,
				Results: map[string][]models.Offer{
					"milk": {
						{Name: "Whole Milk", Price: decimal.NewFromFloat(2.49), Merchant: "Safeway"},
						{Name: "Lucerne Milk", Price: decimal.NewFromFloat(2.99), Merchant: "Albertsons"},
					},
				},
				ZipCode:   "95101",
				TotalTime: 4.2,
			}},
		},
	})
	defer srv.Close()
	c := newClient(srv)

	jobID, err := c.SubmitCart(context.Background(), []string{"milk"}, "95101")
	require.NoError(t, err)

	first, err := c.JobStatus(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobQueued, first.Status)
	assert.Equal(t, 2, first.QueuePosition)
	assert.False(t, first.Status.Terminal())

	second, err := c.JobStatus(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobComplete, second.Status)
	assert.True(t, second.Status.Terminal())

	offers := second.Results["milk"]
	require.Len(t, offers, 2)
	assert.Equal(t, "Whole Milk", offers[0].Name)
	// The fake backend labels alternating offers via "title"; the client
	// must accept both keys.
	assert.Equal(t, "Lucerne Milk", offers[1].Name)
	assert.True(t, offers[0].Price.Equal(decimal.NewFromFloat(2.49)))
	assert.Equal(t, "95101", second.ZipCode)
	assert.InDelta(t, 4.2, second.TotalTime, 1e-9)
}

func TestJobStatusTransportError(t *testing.T) {
	srv := backendtest.New(backendtest.Options{
		StatusScript: []backendtest.StatusStep{
			{Code: http.StatusInternalServerError},
		},
	})
	defer srv.Close()
	c := newClient(srv)

	jobID, err := c.SubmitCart(context.Background(), []string{"milk"}, "95101")
	require.NoError(t, err)

	_, err = c.JobStatus(context.Background(), jobID)
	require.Error(t, err)
	assert.True(t, backend.IsTransport(err))
}

func TestClarifyAll(t *testing.T) {
	srv := backendtest.New(backendtest.Options{
		Suggestions: map[string]*models.SuggestionSet{
			"milk": {Best: models.Suggestion{Name: "Whole Milk", Emoji: "🥛"}},
			"eggs": {Best: models.Suggestion{Name: "Large Eggs", Emoji: "🥚"}},
		},
	})
	defer srv.Close()

	sets, err := newClient(srv).ClarifyAll(context.Background(), []string{"milk", "eggs", "zzzz"}, 2)
	require.NoError(t, err)
	require.Len(t, sets, 3)
	assert.Equal(t, "Whole Milk", sets["milk"].Best.Name)
	assert.Equal(t, "Large Eggs", sets["eggs"].Best.Name)
	assert.Nil(t, sets["zzzz"], "unknown items map to nil for raw-name fallback")
}

func TestClarifyAllPropagatesErrors(t *testing.T) {
	srv := backendtest.New(backendtest.Options{ClarifyStatus: http.StatusBadGateway})
	defer srv.Close()

	_, err := newClient(srv).ClarifyAll(context.Background(), []string{"milk", "eggs"}, 2)
	require.Error(t, err)
	assert.True(t, backend.IsTransport(err))
}
