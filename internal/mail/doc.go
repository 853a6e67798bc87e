// Package mail provides the IMAP client wrapper and mailbox data model.
//
// It wraps emersion/go-imap v2 behind a small Client interface so the
// session layer and tests can substitute fakes, and carries the pure
// helpers for the receipt pipeline: mailbox resolution, search criteria
// construction, attachment filtering, and transport-safe Base64 decoding.
package mail
