// Package config loads the IMAP and OCR configuration from the environment
// and an optional .env file.
//
// Required settings:
//   - IMAP_HOST: mail server hostname
//   - IMAP_PORT: mail server port (default: 993)
//   - IMAP_USERNAME: login name
//   - IMAP_PASSWORD: login password
//
// Optional settings:
//   - MISTRAL_API_KEY: API key for the OCR service (required by OCR operations)
//   - MISTRAL_BASE_URL: override for the OCR endpoint (testing)
//
// Validation happens before any connection is attempted; a missing or
// malformed value yields ErrInvalidConfiguration.
package config
