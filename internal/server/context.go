package server

import (
	"context"
	"sync"

	"github.com/teemow/receiptfewer/internal/config"
	"github.com/teemow/receiptfewer/internal/instrumentation"
	"github.com/teemow/receiptfewer/internal/ocr"
	"github.com/teemow/receiptfewer/internal/receipts"
	"github.com/teemow/receiptfewer/internal/session"
)

// SessionFactory creates a fresh mail session. Every workflow run gets its
// own session so tool calls never share an IMAP connection.
type SessionFactory func() receipts.Session

// ServerContext holds the shared state for the MCP server
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg        *config.Config
	ocrClient  *ocr.Client
	newSession SessionFactory

	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context. The OCR client is only
// created when an API key is configured; tools that need OCR must check
// OCREnabled before building a pipeline.
func NewServerContext(ctx context.Context, cfg *config.Config) (*ServerContext, error) {
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		cfg:    cfg,
	}

	sc.newSession = func() receipts.Session {
		return session.New(cfg.IMAP)
	}

	if cfg.OCR.APIKey != "" {
		sc.ocrClient = ocr.NewClient(cfg.OCR.APIKey, ocr.WithBaseURL(cfg.OCR.BaseURL))
	}

	return sc, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the loaded application configuration
func (sc *ServerContext) Config() *config.Config {
	return sc.cfg
}

// SetSessionFactory overrides how mail sessions are created.
// Tests use this to substitute fake sessions.
func (sc *ServerContext) SetSessionFactory(factory SessionFactory) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.newSession = factory
}

// SetOCRClient replaces the OCR client, mainly for tests.
func (sc *ServerContext) SetOCRClient(client *ocr.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.ocrClient = client
}

// OCREnabled reports whether an OCR client is configured.
func (sc *ServerContext) OCREnabled() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.ocrClient != nil
}

// Pipeline builds a receipt pipeline over a fresh mail session.
// The pipeline's OCR client is nil when no API key is configured; callers
// invoking OCR operations must check OCREnabled first.
func (sc *ServerContext) Pipeline() *receipts.Pipeline {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	var ocrClient receipts.OCRClient
	if sc.ocrClient != nil {
		ocrClient = sc.ocrClient
	}
	return receipts.NewPipeline(sc.newSession(), ocrClient)
}

// SetMetrics sets the metrics recorder used by instrumented tool handlers.
func (sc *ServerContext) SetMetrics(metrics *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = metrics
}

// Metrics returns the metrics recorder, or nil when not configured.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetAuditLogger sets the audit logger used by instrumented tool handlers.
func (sc *ServerContext) SetAuditLogger(logger *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = logger
}

// AuditLogger returns the audit logger, or nil when not configured.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
