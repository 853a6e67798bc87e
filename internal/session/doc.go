// Package session manages the lifecycle of a single IMAP connection.
//
// A MailSession moves through disconnected, connecting, connected, and
// logged-in states. All mailbox operations require the logged-in state and
// are serialized behind one mutex, so a session can be shared by the MCP
// tool handlers without extra coordination.
package session
