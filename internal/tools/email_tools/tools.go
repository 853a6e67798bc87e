package email_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/receiptfewer/internal/instrumentation"
	"github.com/teemow/receiptfewer/internal/receipts"
	"github.com/teemow/receiptfewer/internal/server"
	"github.com/teemow/receiptfewer/internal/tools/common"
)

// RegisterEmailTools registers all email-related tools with the MCP server
func RegisterEmailTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// Fetch last email tool
	fetchLastTool := mcp.NewTool("email_fetch_last",
		mcp.WithDescription("Fetch the subject of the newest email in the inbox"),
	)

	s.AddTool(fetchLastTool, common.InstrumentedToolHandlerWithService(
		"email_fetch_last", instrumentation.ServiceIMAP, instrumentation.OperationFetch, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleFetchLast(ctx, request, sc)
		}))

	// Search emails tool
	searchTool := mcp.NewTool("email_search",
		mcp.WithDescription("Search unseen inbox emails from a specific sender"),
		mcp.WithString("sender",
			mcp.Required(),
			mcp.Description("Sender address or name fragment to match against the From header"),
		),
		mcp.WithNumber("sinceDays",
			mcp.Description("Restrict the search to the last N days (default: 7)"),
		),
	)

	s.AddTool(searchTool, common.InstrumentedToolHandlerWithService(
		"email_search", instrumentation.ServiceIMAP, instrumentation.OperationSearch, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearch(ctx, request, sc)
		}))

	// Fetch receipt emails tool
	fetchReceiptsTool := mcp.NewTool("email_fetch_receipts",
		mcp.WithDescription("Fetch recent emails from the receipts mailbox that carry attachments"),
	)

	s.AddTool(fetchReceiptsTool, common.InstrumentedToolHandlerWithService(
		"email_fetch_receipts", instrumentation.ServiceIMAP, instrumentation.OperationFetch, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleFetchReceipts(ctx, request, sc)
		}))

	return nil
}

// handleFetchLast handles the email_fetch_last tool
func handleFetchLast(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	subject, err := sc.Pipeline().FetchLatestSubject(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch latest email: %v", err)), nil
	}
	return mcp.NewToolResultText(subject), nil
}

// handleSearch handles the email_search tool
func handleSearch(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	sender, ok := args["sender"].(string)
	if !ok || sender == "" {
		return mcp.NewToolResultError("sender is required"), nil
	}

	sinceDays := receipts.DefaultSearchDays
	if v, ok := args["sinceDays"].(float64); ok && v > 0 {
		sinceDays = int(v)
	}

	results, err := sc.Pipeline().Search(ctx, sender, sinceDays)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search emails: %v", err)), nil
	}

	encoded, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode search results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(encoded)), nil
}

// handleFetchReceipts handles the email_fetch_receipts tool
func handleFetchReceipts(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	results, err := sc.Pipeline().FetchReceiptEmails(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch receipt emails: %v", err)), nil
	}

	encoded, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode receipt emails: %v", err)), nil
	}
	return mcp.NewToolResultText(string(encoded)), nil
}
