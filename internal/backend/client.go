package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/cartscout/cartscout/internal/httputil"
	"github.com/cartscout/cartscout/internal/models"
)

// maxAlternates caps how many alternate suggestions are surfaced alongside
// the best match.
const maxAlternates = 3

// Client talks to the price-search backend over HTTP+JSON.
type Client struct {
	http     *http.Client
	baseURL  string
	log      zerolog.Logger
	validate *validator.Validate
}

// New creates a backend client. httpClient may carry a rate-limited
// transport; baseURL must not end in a slash.
func New(httpClient *http.Client, baseURL string, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = httputil.NewHTTPClient(nil)
	}
	return &Client{
		http:     httpClient,
		baseURL:  strings.TrimRight(baseURL, "/"),
		log:      log,
		validate: validator.New(),
	}
}

type clarifyRequest struct {
	Item    string   `json:"item"`
	Context []string `json:"context"`
}

// Clarify asks the backend to resolve a raw item name into a confirmed
// product name. Returns nil when the backend has no suggestion.
func (c *Client) Clarify(ctx context.Context, item string, cartContext []string) (*models.SuggestionSet, error) {
	if cartContext == nil {
		cartContext = []string{}
	}
	body, err := c.postJSON(ctx, "clarify", "/clarify", clarifyRequest{Item: item, Context: cartContext})
	if err != nil {
		return nil, err
	}

	var set models.SuggestionSet
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("decode clarify response: %w", err)
	}
	if set.Best.Name == "" {
		return nil, nil
	}
	if set.Best.Emoji == "" {
		set.Best.Emoji = models.DefaultEmoji
	}
	if len(set.Alternates) > maxAlternates {
		set.Alternates = set.Alternates[:maxAlternates]
	}
	for i := range set.Alternates {
		if set.Alternates[i].Emoji == "" {
			set.Alternates[i].Emoji = models.DefaultEmoji
		}
	}
	c.log.Debug().Str("item", item).Str("best", set.Best.Name).Int("alternates", len(set.Alternates)).Msg("clarified item")
	return &set, nil
}

type submitRequest struct {
	Items   []string `json:"items" validate:"required,min=1,dive,required"`
	Zipcode string   `json:"zipcode" validate:"required,len=5,numeric"`
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

// SubmitCart submits item names plus a 5-digit ZIP code and returns the
// server-assigned job id verbatim.
func (c *Client) SubmitCart(ctx context.Context, items []string, zipcode string) (string, error) {
	req := submitRequest{Items: items, Zipcode: zipcode}
	if err := c.validate.Struct(req); err != nil {
		return "", fmt.Errorf("invalid cart submission: %w", err)
	}

	body, err := c.postJSON(ctx, "submit", "/cart", req)
	if err != nil {
		return "", err
	}

	var resp submitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	if resp.JobID == "" {
		return "", fmt.Errorf("submit response missing job_id")
	}
	c.log.Debug().Str("job_id", resp.JobID).Int("items", len(items)).Str("zipcode", zipcode).Msg("cart submitted")
	return resp.JobID, nil
}

// JobStatus fetches the current status of a job. A "failed" status is a
// valid snapshot, not an error; errors indicate transport-level failure.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*models.JobUpdate, error) {
	endpoint := c.baseURL + "/results/" + url.PathEscape(jobID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do("status", httpReq)
	if err != nil {
		return nil, err
	}

	var update models.JobUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}
	return &update, nil
}

func (c *Client) postJSON(ctx context.Context, op, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", op, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return c.do(op, httpReq)
}

func (c *Client) do(op string, req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Debug().Str("op", op).Int("status", resp.StatusCode).Msg("backend request rejected")
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode}
	}
	return body, nil
}
