// Package aggregate turns raw per-item offer lists into a cheapest-first,
// tie-grouped presentation model, ordered by cart position.
package aggregate

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cartscout/cartscout/internal/models"
)

// ItemResult is the aggregated view of one cart item's offers.
type ItemResult struct {
	Item models.CartItem `json:"item"`
	// BestPrice is the lowest offer price; zero when no offers exist.
	BestPrice decimal.Decimal `json:"best_price"`
	// BestOffers holds every offer tied at BestPrice, in server order.
	// Empty when the backend returned nothing for the item.
	BestOffers []models.Offer `json:"best_offers"`
	// OtherOffers holds the strictly higher-priced offers, ascending.
	OtherOffers []models.Offer `json:"other_offers,omitempty"`
}

// Found reports whether at least one merchant offered this item.
func (r ItemResult) Found() bool { return len(r.BestOffers) > 0 }

// HiddenTied returns the tied best offers beyond the first, which stay
// collapsed until the user reveals them.
func (r ItemResult) HiddenTied() []models.Offer {
	if len(r.BestOffers) <= 1 {
		return nil
	}
	return r.BestOffers[1:]
}

// ToggleLabel is the reveal-toggle caption for the hidden tied offers.
func (r ItemResult) ToggleLabel(expanded bool) string {
	if expanded {
		return "- Hide other stores"
	}
	n := len(r.HiddenTied())
	if n == 1 {
		return "+ 1 other store"
	}
	return fmt.Sprintf("+ %d other stores", n)
}

// Summary carries the headline statistics for a completed search.
type Summary struct {
	ItemsFound  int     `json:"items_found"`
	TotalItems  int     `json:"total_items"`
	TotalOffers int     `json:"total_offers"`
	ZipCode     string  `json:"zip_code"`
	TotalTime   float64 `json:"total_time,omitempty"` // seconds; 0 = not reported by the backend
}

// DisplayTime formats the backend processing time, or a placeholder when
// the backend did not report one.
func (s Summary) DisplayTime() string {
	if s.TotalTime > 0 {
		return fmt.Sprintf("%.1fs", s.TotalTime)
	}
	return "-"
}

// Aggregate produces one ItemResult per cart item, in cart order. Offers
// are looked up by exact item name; missing or empty lists yield a result
// with no offers. The sort is stable, so merchants tied on price keep the
// server's original relative order.
func Aggregate(items []models.CartItem, results map[string][]models.Offer) []ItemResult {
	out := make([]ItemResult, 0, len(items))
	for _, item := range items {
		offers := results[item.Name]
		if len(offers) == 0 {
			out = append(out, ItemResult{Item: item})
			continue
		}

		sorted := make([]models.Offer, len(offers))
		copy(sorted, offers)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Price.LessThan(sorted[j].Price)
		})

		best := sorted[0].Price
		split := len(sorted)
		for i, o := range sorted {
			if !o.Price.Equal(best) {
				split = i
				break
			}
		}

		out = append(out, ItemResult{
			Item:        item,
			BestPrice:   best,
			BestOffers:  sorted[:split],
			OtherOffers: sorted[split:],
		})
	}
	return out
}

// Summarize derives headline statistics from a completed job snapshot.
// fallbackZip is shown when the backend omitted the zip code.
func Summarize(items []models.CartItem, update *models.JobUpdate, fallbackZip string) Summary {
	s := Summary{TotalItems: len(items), ZipCode: fallbackZip}
	if update == nil {
		return s
	}
	if update.ZipCode != "" {
		s.ZipCode = update.ZipCode
	}
	s.TotalTime = update.TotalTime
	for _, offers := range update.Results {
		if len(offers) > 0 {
			s.ItemsFound++
		}
		s.TotalOffers += len(offers)
	}
	return s
}
