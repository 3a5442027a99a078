package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cartscout/cartscout/internal/aggregate"
	"github.com/cartscout/cartscout/internal/cart"
	"github.com/cartscout/cartscout/internal/models"
	"github.com/cartscout/cartscout/internal/progress"
	"github.com/cartscout/cartscout/internal/ui"
	"github.com/cartscout/cartscout/internal/wizard"
)

var searchCmd = &cobra.Command{
	Use:   "search [items...]",
	Short: "Find the cheapest prices for a list of items",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().String("zip", "", "5-digit ZIP code to search in")
	searchCmd.Flags().Bool("clarify", false, "Confirm item names with the clarification service first")
	searchCmd.Flags().String("format", "table", "Output format: json, table")
	searchCmd.Flags().Bool("all-stores", false, "Expand merchants tied at the best price")
	searchCmd.MarkFlagRequired("zip")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	zip, _ := cmd.Flags().GetString("zip")
	clarify, _ := cmd.Flags().GetBool("clarify")
	format, _ := cmd.Flags().GetString("format")
	allStores, _ := cmd.Flags().GetBool("all-stores")

	client := buildBackendClient()
	sess := newSession(client)

	spin := ui.NewSpinner()
	ctx := progress.WithReporter(context.Background(), spin.Update)

	entries := make([]models.CartItem, 0, len(args))
	for _, name := range args {
		entries = append(entries, models.CartItem{Name: name, Emoji: models.DefaultEmoji})
	}

	if clarify {
		spin.Start("Clarifying item names...")
		sets, err := client.ClarifyAll(ctx, args, cfg.MaxConcurrent)
		spin.Stop()
		if err != nil {
			// Clarification is best-effort; fall back to the raw names.
			log.Warn().Err(err).Msg("clarification unavailable, using raw item names")
		} else {
			for i, name := range args {
				if set := sets[name]; set != nil {
					entries[i] = models.CartItem{Name: set.Best.Name, Emoji: set.Best.Emoji}
				}
			}
		}
	}

	for _, entry := range entries {
		switch err := sess.AddItem(entry.Name, entry.Emoji); {
		case errors.Is(err, cart.ErrDuplicateItem):
			log.Warn().Str("item", entry.Name).Msg("skipping duplicate item")
		case errors.Is(err, cart.ErrCartFull):
			return fmt.Errorf("add %q: %w (max %d items)", entry.Name, err, sess.CartMax())
		case err != nil:
			return err
		}
	}
	if err := sess.ContinueToZip(); err != nil {
		return err
	}

	spin.Start("Submitting cart...")
	err := sess.Submit(ctx, zip)
	spin.Stop()
	if err != nil {
		if errors.Is(err, wizard.ErrInvalidZip) {
			return fmt.Errorf("zip %q: %w", zip, err)
		}
		return fmt.Errorf("price search failed: %w", err)
	}

	results, sum := sess.Results()

	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(searchOutput{Summary: sum, Items: results})
	default:
		printResults(results, sum, allStores)
	}
	return nil
}

type searchOutput struct {
	Summary aggregate.Summary      `json:"summary"`
	Items   []aggregate.ItemResult `json:"items"`
}
