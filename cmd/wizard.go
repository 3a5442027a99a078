package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cartscout/cartscout/internal/cart"
	"github.com/cartscout/cartscout/internal/models"
	"github.com/cartscout/cartscout/internal/progress"
	"github.com/cartscout/cartscout/internal/suggest"
	"github.com/cartscout/cartscout/internal/ui"
	"github.com/cartscout/cartscout/internal/wizard"
)

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive shopping-list price search",
	Long:  "Build a shopping list with clarified item names, enter a ZIP code, and watch cheapest-first results come back.",
	RunE:  runWizard,
}

func init() {
	rootCmd.AddCommand(wizardCmd)
}

// suggestionReply carries one resolver outcome to the prompt loop.
type suggestionReply struct {
	set *models.SuggestionSet
	err error
}

func runWizard(cmd *cobra.Command, args []string) error {
	client := buildBackendClient()
	sess := newSession(client)

	replies := make(chan suggestionReply, 1)
	resolver := suggest.NewResolver(client.Clarify, cfg.DebounceDelay, suggest.Callbacks{
		OnSuggestions: func(set *models.SuggestionSet) { replies <- suggestionReply{set: set} },
		OnError:       func(err error) { replies <- suggestionReply{err: err} },
	}, log)
	defer resolver.Close()

	in := bufio.NewScanner(os.Stdin)
	expanded := false

	for {
		switch sess.Stage() {
		case wizard.BuildCart:
			if done, err := buildCartStep(sess, resolver, replies, in); done || err != nil {
				return err
			}
		case wizard.EnterZip:
			if done, err := enterZipStep(sess, in); done || err != nil {
				return err
			}
			expanded = false
		case wizard.ShowResults:
			done, toggle := showResultsStep(sess, in, expanded)
			if done {
				return nil
			}
			if toggle {
				expanded = !expanded
			}
		default:
			return nil
		}
	}
}

func buildCartStep(sess *wizard.Session, resolver *suggest.Resolver, replies chan suggestionReply, in *bufio.Scanner) (done bool, err error) {
	printCart(sess)
	fmt.Print("Add item ('done' to continue, 'rm N', 'clear', 'quit'): ")
	if !in.Scan() {
		return true, nil
	}
	input := strings.TrimSpace(in.Text())

	switch {
	case input == "quit":
		return true, nil
	case input == "done":
		if err := sess.ContinueToZip(); err != nil {
			if errors.Is(err, wizard.ErrEmptyCart) {
				fmt.Println("⚠ Add at least one item first")
				return false, nil
			}
			return false, err
		}
		return false, nil
	case input == "clear":
		sess.ClearCart()
		return false, nil
	case strings.HasPrefix(input, "rm "):
		n, convErr := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(input, "rm ")))
		if convErr != nil || sess.RemoveItem(n-1) != nil {
			fmt.Println("⚠ No such item")
		}
		return false, nil
	case input == "":
		return false, nil
	}

	resolver.Input(input, names(sess.CartItems()))
	reply := <-replies

	if reply.err != nil {
		// Clarification unavailable: fall back to adding the raw text.
		fmt.Println("⚠ Failed to get suggestions — adding item as typed")
		addToCart(sess, input, models.DefaultEmoji)
		return false, nil
	}
	if reply.set == nil {
		addToCart(sess, input, models.DefaultEmoji)
		return false, nil
	}

	candidates := append([]models.Suggestion{reply.set.Best}, reply.set.Alternates...)
	fmt.Println("Suggestions:")
	for i, c := range candidates {
		badge := ""
		if i == 0 {
			badge = "  (best match)"
		}
		fmt.Printf("  %d. %s %s%s\n", i+1, c.Emoji, c.Name, badge)
	}
	fmt.Printf("Pick 1-%d, 'm' to add as typed, or Enter to skip: ", len(candidates))
	if !in.Scan() {
		return true, nil
	}
	choice := strings.TrimSpace(in.Text())
	switch {
	case choice == "m":
		addToCart(sess, input, models.DefaultEmoji)
	case choice != "":
		if n, convErr := strconv.Atoi(choice); convErr == nil && n >= 1 && n <= len(candidates) {
			addToCart(sess, candidates[n-1].Name, candidates[n-1].Emoji)
		} else {
			fmt.Println("⚠ Skipped")
		}
	}
	return false, nil
}

func enterZipStep(sess *wizard.Session, in *bufio.Scanner) (done bool, err error) {
	fmt.Print("ZIP code ('back' to edit cart, 'quit'): ")
	if !in.Scan() {
		return true, nil
	}
	input := strings.TrimSpace(in.Text())

	switch input {
	case "quit":
		return true, nil
	case "back":
		return false, sess.Back()
	}

	zip := wizard.NormalizeZip(input)
	if !wizard.ValidZip(zip) {
		fmt.Println("⚠ ZIP code must be exactly 5 digits")
		return false, nil
	}

	spin := ui.NewSpinner()
	spin.Start("Submitting cart...")
	ctx := progress.WithReporter(context.Background(), spin.Update)
	submitErr := sess.Submit(ctx, zip)
	if submitErr != nil {
		spin.StopWith("⚠ Search failed. Please try again.")
		log.Warn().Err(submitErr).Msg("search did not complete")
		return false, nil
	}
	spin.StopWith("✓ Results ready")
	return false, nil
}

func showResultsStep(sess *wizard.Session, in *bufio.Scanner, expanded bool) (done, toggle bool) {
	results, sum := sess.Results()
	fmt.Println()
	printResults(results, sum, expanded)

	fmt.Print("\n[n]ew search, [s] toggle tied stores, [q]uit: ")
	if !in.Scan() {
		return true, false
	}
	switch strings.TrimSpace(in.Text()) {
	case "n":
		sess.NewSearch()
		return false, false
	case "s":
		return false, true
	case "q":
		return true, false
	}
	return false, false
}

func printCart(sess *wizard.Session) {
	items := sess.CartItems()
	fmt.Printf("\nCart (%d/%d):\n", len(items), sess.CartMax())
	if len(items) == 0 {
		fmt.Println("  (empty — start typing to add items)")
		return
	}
	for i, it := range items {
		fmt.Printf("  %d. %s %s\n", i+1, it.Emoji, it.Name)
	}
}

func addToCart(sess *wizard.Session, name, emoji string) {
	switch err := sess.AddItem(name, emoji); {
	case errors.Is(err, cart.ErrDuplicateItem):
		fmt.Println("⚠ Item already in cart")
	case errors.Is(err, cart.ErrCartFull):
		fmt.Printf("⚠ Maximum %d items allowed\n", sess.CartMax())
	case err == nil:
		fmt.Printf("✓ Added %s\n", name)
	}
}

func names(items []models.CartItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}
