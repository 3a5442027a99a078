package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cartscout/cartscout/internal/aggregate"
	"github.com/cartscout/cartscout/internal/models"
	"github.com/cartscout/cartscout/internal/poll"
	"github.com/cartscout/cartscout/internal/wizard"
)

func registerTools(s *server.MCPServer, d Deps) {
	// clarify_item
	clarifyTool := mcp.NewTool("clarify_item",
		mcp.WithDescription("Resolve a raw grocery item name into a confirmed product name with alternates"),
		mcp.WithString("item",
			mcp.Required(),
			mcp.Description("Raw item text, e.g. 'mlk' or 'bread'"),
		),
		mcp.WithString("context",
			mcp.Description("Comma-separated names already in the shopping list"),
		),
	)
	s.AddTool(clarifyTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleClarifyItem(ctx, d, request)
	})

	// find_prices
	pricesTool := mcp.NewTool("find_prices",
		mcp.WithDescription("Search merchant prices for a shopping list in a ZIP code; blocks until the search job finishes"),
		mcp.WithString("items",
			mcp.Required(),
			mcp.Description("Comma-separated item names, e.g. 'milk, eggs, bread' (max 10)"),
		),
		mcp.WithString("zipcode",
			mcp.Required(),
			mcp.Description("5-digit US ZIP code"),
		),
	)
	s.AddTool(pricesTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleFindPrices(ctx, d, request)
	})

	// job_status
	statusTool := mcp.NewTool("job_status",
		mcp.WithDescription("Fetch the current status of a price-search job"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("Job id returned by the backend"),
		),
	)
	s.AddTool(statusTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleJobStatus(ctx, d, request)
	})
}

func handleClarifyItem(ctx context.Context, d Deps, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	item := request.GetString("item", "")
	if item == "" {
		return mcp.NewToolResultError("item is required"), nil
	}
	cartContext := splitList(request.GetString("context", ""))

	set, err := d.Client.Clarify(ctx, item, cartContext)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("clarify error: %v", err)), nil
	}
	if set == nil {
		return mcp.NewToolResultText(`{"suggested":null}`), nil
	}

	data, _ := json.MarshalIndent(set, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func handleFindPrices(ctx context.Context, d Deps, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items := splitList(request.GetString("items", ""))
	if len(items) == 0 {
		return mcp.NewToolResultError("items is required"), nil
	}
	if len(items) > d.Cfg.MaxItems {
		return mcp.NewToolResultError(fmt.Sprintf("at most %d items allowed", d.Cfg.MaxItems)), nil
	}
	zip := wizard.NormalizeZip(request.GetString("zipcode", ""))
	if !wizard.ValidZip(zip) {
		return mcp.NewToolResultError("zipcode must be exactly 5 digits"), nil
	}

	jobID, err := d.Client.SubmitCart(ctx, items, zip)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("submit error: %v", err)), nil
	}

	poller := poll.New(d.Client.JobStatus, d.Cfg.PollInterval, d.Cfg.PollTimeout, d.Log)
	final, err := poller.Run(ctx, jobID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search error: %v", err)), nil
	}

	cartItems := make([]models.CartItem, len(items))
	for i, name := range items {
		cartItems[i] = models.CartItem{Name: name, Emoji: models.DefaultEmoji}
	}
	out := struct {
		Summary aggregate.Summary      `json:"summary"`
		Items   []aggregate.ItemResult `json:"items"`
	}{
		Summary: aggregate.Summarize(cartItems, final, zip),
		Items:   aggregate.Aggregate(cartItems, final.Results),
	}

	data, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func handleJobStatus(ctx context.Context, d Deps, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id is required"), nil
	}

	update, err := d.Client.JobStatus(ctx, jobID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status error: %v", err)), nil
	}

	data, _ := json.MarshalIndent(update, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
