// Package ocr provides a client for the Mistral document OCR API.
//
// The flow for a local document is three calls: Upload the bytes, fetch a
// SignedURL for the stored file, then Process that URL. Documents already
// reachable over HTTP can be passed to Process directly.
package ocr
