package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/receiptfewer/internal/config"
	"github.com/teemow/receiptfewer/internal/ocr"
	"github.com/teemow/receiptfewer/internal/receipts"
	"github.com/teemow/receiptfewer/internal/session"
)

func newRunCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process the newest receipt email and write its markdown transcript",
		Long: `Connect to the configured IMAP account, find the newest email in the
receipts mailbox that carries a PDF attachment, run the attachment through
OCR and write the resulting markdown to a file.

Configuration is read from the environment or a .env file in the working
directory (IMAP_HOST, IMAP_PORT, IMAP_USERNAME, IMAP_PASSWORD,
MISTRAL_API_KEY).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.RequireOCR(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(),
				os.Interrupt, syscall.SIGTERM)
			defer cancel()

			pipeline := receipts.NewPipeline(
				session.New(cfg.IMAP),
				ocr.NewClient(cfg.OCR.APIKey, ocr.WithBaseURL(cfg.OCR.BaseURL)),
			)

			doc, err := pipeline.RunMagic(ctx)
			if err != nil {
				return fmt.Errorf("processing receipt: %w", err)
			}

			if err := os.WriteFile(output, []byte(doc), 0o644); err != nil {
				return fmt.Errorf("%w: %v", receipts.ErrFailedSavingFile, err)
			}

			fmt.Printf("Wrote %d bytes to %s\n", len(doc), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "results.md", "File the markdown transcript is written to")
	return cmd
}
