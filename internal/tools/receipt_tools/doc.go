// Package receipt_tools provides MCP tools for the receipt workflow:
// running the full mailbox-to-markdown pipeline, saving the newest receipt
// attachment to disk, running OCR over a document URL, and a ping tool for
// connectivity checks.
package receipt_tools
