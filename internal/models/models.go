package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// DefaultEmoji is shown for items whose suggestion carried no emoji hint
// and for manually added items.
const DefaultEmoji = "🛒"

// CartItem is a confirmed shopping-list entry.
type CartItem struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

// Suggestion is a single clarified item candidate.
type Suggestion struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji,omitempty"`
}

// SuggestionSet is the clarification result: a best match plus up to
// three alternates.
type SuggestionSet struct {
	Best       Suggestion   `json:"suggested"`
	Alternates []Suggestion `json:"alternatives,omitempty"`
}

// JobStatus is the server-reported state of a price-search job.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobComplete   JobStatus = "complete"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether the server will make no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobComplete || s == JobFailed
}

// JobUpdate is one snapshot of a job from GET /results/{job_id}.
// Results, ZipCode and TotalTime are only populated once Status is complete.
type JobUpdate struct {
	Status        JobStatus          `json:"status"`
	QueuePosition int                `json:"queue_position,omitempty"`
	Results       map[string][]Offer `json:"results,omitempty"`
	ZipCode       string             `json:"zip_code,omitempty"`
	TotalTime     float64            `json:"total_time,omitempty"` // seconds; 0 = not reported
}

// Offer is a single merchant's price quote for one cart item.
type Offer struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Merchant string          `json:"merchant"`
}

// UnmarshalJSON accepts the product label under either "name" or "title";
// the backend emits both depending on the merchant source.
func (o *Offer) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name     string          `json:"name"`
		Title    string          `json:"title"`
		Price    decimal.Decimal `json:"price"`
		Merchant string          `json:"merchant"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	o.Name = raw.Name
	if o.Name == "" {
		o.Name = raw.Title
	}
	o.Price = raw.Price
	o.Merchant = raw.Merchant
	return nil
}

// DisplayPrice formats the price as a dollar amount with two decimals.
func (o Offer) DisplayPrice() string {
	return "$" + o.Price.StringFixed(2)
}
