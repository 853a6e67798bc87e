// Package email_tools provides MCP tools for reading the configured
// mailbox: fetching the latest message, searching unseen mail by sender,
// and listing recent receipt emails with their decoded attachments.
package email_tools
