package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/teemow/receiptfewer/internal/logging"
)

const (
	// DefaultBaseURL is the public Mistral API endpoint.
	DefaultBaseURL = "https://api.mistral.ai"

	// DefaultModel is the OCR model used for document processing.
	DefaultModel = "mistral-ocr-latest"

	// defaultTimeout bounds a single API call. OCR on large documents can
	// take a while, so this is generous.
	defaultTimeout = 2 * time.Minute
)

// APIError describes a failed call against the OCR service.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("ocr %s: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("ocr %s: status %d", e.Op, e.StatusCode)
}

// Page is a single page of an OCR result.
type Page struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

// Result is the response of an OCR run.
type Result struct {
	Pages []Page `json:"pages"`
}

// Client talks to the Mistral OCR API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger for API call events.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the Mistral OCR API.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upload stores a document with the OCR service and returns its file ID.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("purpose", "ocr"); err != nil {
		return "", fmt.Errorf("building upload request: %w", err)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("building upload request: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return "", fmt.Errorf("building upload request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("building upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/files", &body)
	if err != nil {
		return "", fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var uploaded struct {
		ID string `json:"id"`
	}
	if err := c.do(req, "upload", &uploaded); err != nil {
		return "", err
	}

	c.logger.Debug("document uploaded", "file_id", uploaded.ID, "bytes", len(data))
	return uploaded.ID, nil
}

// SignedURL returns a short-lived download URL for an uploaded file.
func (c *Client) SignedURL(ctx context.Context, fileID string) (string, error) {
	url := fmt.Sprintf("%s/v1/files/%s/url", c.baseURL, fileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building signed URL request: %w", err)
	}

	var signed struct {
		URL string `json:"url"`
	}
	if err := c.do(req, "signed_url", &signed); err != nil {
		return "", err
	}
	return signed.URL, nil
}

// Process runs OCR over a document reachable at the given URL.
func (c *Client) Process(ctx context.Context, documentURL string) (*Result, error) {
	payload := map[string]any{
		"model": c.model,
		"document": map[string]any{
			"type":         "document_url",
			"document_url": documentURL,
		},
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("building OCR request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/ocr", bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("building OCR request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result Result
	if err := c.do(req, "process", &result); err != nil {
		return nil, err
	}

	c.logger.Debug("document processed", "pages", len(result.Pages))
	return &result, nil
}

// do sends the request with authentication and decodes the JSON response
// into out. Non-2xx responses become *APIError.
func (c *Client) do(req *http.Request, op string, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ocr %s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.Body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ocr %s: decoding response: %w", op, err)
	}
	return nil
}

// readErrorMessage extracts a message from an error response body. The API
// reports errors as {"message": "..."}; anything else is used verbatim,
// truncated to keep log lines sane.
func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}
	return string(raw)
}
