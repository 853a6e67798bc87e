package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the receiptfewer application
var rootCmd = &cobra.Command{
	Use:   "receiptfewer",
	Short: "Turns receipt emails into markdown via OCR",
	Long: `receiptfewer finds receipt emails in your IMAP mailbox, decodes their
PDF attachments and runs them through the Mistral OCR API to produce a
markdown transcript.

It can run as:
  - A standalone CLI tool (default)
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "receiptfewer version %s\n" .Version}}`)

	// If no subcommand is provided, run the receipt workflow by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "run")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
