// Package cmd implements the command-line interface for receiptfewer.
//
// This package provides the following commands:
//   - run: Process the newest receipt email and write its markdown transcript
//   - serve: Start the MCP server to provide tools for AI assistants
//   - version: Display version information
//
// The run command is the default command when no subcommand is specified.
package cmd
