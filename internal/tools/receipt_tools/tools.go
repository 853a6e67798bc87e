package receipt_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/receiptfewer/internal/instrumentation"
	"github.com/teemow/receiptfewer/internal/server"
	"github.com/teemow/receiptfewer/internal/tools/common"
)

// RegisterReceiptTools registers all receipt-related tools with the MCP server
func RegisterReceiptTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// Ping tool for connectivity checks
	pingTool := mcp.NewTool("ping",
		mcp.WithDescription("Check that the server is alive; returns 'pong'"),
	)

	s.AddTool(pingTool, common.InstrumentedToolHandler("ping", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		}))

	// Run magic tool: the full receipt pipeline
	runMagicTool := mcp.NewTool("receipt_run_magic",
		mcp.WithDescription("Find the newest receipt email, OCR its PDF attachment and return the markdown text"),
	)

	s.AddTool(runMagicTool, common.InstrumentedToolHandlerWithService(
		"receipt_run_magic", instrumentation.ServiceOCR, instrumentation.OperationProcess, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleRunMagic(ctx, request, sc)
		}))

	// Save attachment tool
	saveAttachmentTool := mcp.NewTool("receipt_save_attachment",
		mcp.WithDescription("Save the PDF attachment of the newest receipt email to a local file"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Destination file path for the decoded attachment"),
		),
	)

	s.AddTool(saveAttachmentTool, common.InstrumentedToolHandlerWithService(
		"receipt_save_attachment", instrumentation.ServiceIMAP, instrumentation.OperationFetch, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSaveAttachment(ctx, request, sc)
		}))

	// OCR document tool
	ocrDocumentTool := mcp.NewTool("ocr_document",
		mcp.WithDescription("Run OCR over a document reachable via URL and return the markdown text"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("HTTP(S) URL of the document to process"),
		),
	)

	s.AddTool(ocrDocumentTool, common.InstrumentedToolHandlerWithService(
		"ocr_document", instrumentation.ServiceOCR, instrumentation.OperationProcess, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleOCRDocument(ctx, request, sc)
		}))

	return nil
}

// handleRunMagic handles the receipt_run_magic tool
func handleRunMagic(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	if !sc.OCREnabled() {
		return mcp.NewToolResultError("OCR is not configured. Set MISTRAL_API_KEY to enable receipt processing"), nil
	}

	doc, err := sc.Pipeline().RunMagic(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to process receipt: %v", err)), nil
	}
	return mcp.NewToolResultText(doc), nil
}

// handleSaveAttachment handles the receipt_save_attachment tool
func handleSaveAttachment(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}

	filename, err := sc.Pipeline().SaveAttachment(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save attachment: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Saved %s to %s", filename, path)), nil
}

// handleOCRDocument handles the ocr_document tool
func handleOCRDocument(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	if !sc.OCREnabled() {
		return mcp.NewToolResultError("OCR is not configured. Set MISTRAL_API_KEY to enable document processing"), nil
	}

	args := request.GetArguments()
	url, ok := args["url"].(string)
	if !ok || url == "" {
		return mcp.NewToolResultError("url is required"), nil
	}

	doc, err := sc.Pipeline().ProcessDocumentURL(ctx, url)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to process document: %v", err)), nil
	}
	return mcp.NewToolResultText(doc), nil
}
