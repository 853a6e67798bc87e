// Package server provides the MCP server context, health probes, and the
// dedicated metrics server for the receiptfewer application.
//
// # Key Components
//
// ServerContext holds the loaded configuration and builds receipt pipelines
// on demand. Each pipeline runs over a fresh IMAP session, so concurrent
// tool calls never share a connection. The OCR client is created once at
// startup when an API key is configured.
//
// HealthChecker serves Kubernetes-style liveness and readiness probes
// (/healthz, /readyz) for the HTTP transport.
//
// MetricsServer exposes Prometheus metrics on a dedicated port, isolating
// operational metrics from application traffic.
package server
