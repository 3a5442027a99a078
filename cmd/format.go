package cmd

import (
	"fmt"
	"os"

	"github.com/cartscout/cartscout/internal/aggregate"
)

// printSummary prints the headline statistics for a completed search.
func printSummary(sum aggregate.Summary) {
	fmt.Fprintf(os.Stdout, " ZIP %s — %d/%d items found, %d offers, %s\n",
		sum.ZipCode, sum.ItemsFound, sum.TotalItems, sum.TotalOffers, sum.DisplayTime())
}

// printResults prints aggregated results in a human-friendly card layout.
// With expandTied false, tied best-price merchants beyond the first stay
// collapsed behind a "+ N other stores" line.
func printResults(items []aggregate.ItemResult, sum aggregate.Summary, expandTied bool) {
	printSummary(sum)

	for i, r := range items {
		fmt.Fprintf(os.Stdout, "\n %d. %s %s\n", i+1, r.Item.Emoji, r.Item.Name)

		if !r.Found() {
			fmt.Fprintln(os.Stdout, "    No offers found")
			continue
		}

		best := r.BestOffers[0]
		fmt.Fprintf(os.Stdout, "    ⭐ BEST %s  %s  |  %s\n", best.DisplayPrice(), offerLabel(best.Name), best.Merchant)

		if hidden := r.HiddenTied(); len(hidden) > 0 {
			if expandTied {
				fmt.Fprintf(os.Stdout, "       %s\n", r.ToggleLabel(true))
				for _, o := range hidden {
					fmt.Fprintf(os.Stdout, "       %s  %s  |  %s\n", o.DisplayPrice(), offerLabel(o.Name), o.Merchant)
				}
			} else {
				fmt.Fprintf(os.Stdout, "       %s\n", r.ToggleLabel(false))
			}
		}

		for _, o := range r.OtherOffers {
			fmt.Fprintf(os.Stdout, "    %s  %s  |  %s\n", o.DisplayPrice(), offerLabel(o.Name), o.Merchant)
		}
	}
}

func offerLabel(name string) string {
	if name == "" {
		return "Product"
	}
	return truncate(name, 60)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
