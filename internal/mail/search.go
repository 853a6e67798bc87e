package mail

import (
	"time"

	"github.com/emersion/go-imap/v2"
)

// SearchSpec describes a message search in domain terms. Zero values mean
// the corresponding criterion is omitted.
type SearchSpec struct {
	// OnlyUnseen restricts the search to messages without the \Seen flag.
	OnlyUnseen bool

	// From restricts the search to messages whose From header contains
	// the given string.
	From string

	// SinceDaysAgo restricts the search to messages received within the
	// last N days.
	SinceDaysAgo int
}

// BuildSearchCriteria translates a SearchSpec into IMAP search criteria
// relative to the given reference time.
func BuildSearchCriteria(spec SearchSpec, now time.Time) *imap.SearchCriteria {
	criteria := &imap.SearchCriteria{}

	if spec.OnlyUnseen {
		criteria.NotFlag = []imap.Flag{imap.FlagSeen}
	}

	if spec.From != "" {
		criteria.Header = []imap.SearchCriteriaHeaderField{
			{Key: "From", Value: spec.From},
		}
	}

	if spec.SinceDaysAgo > 0 {
		criteria.Since = now.AddDate(0, 0, -spec.SinceDaysAgo)
	}

	return criteria
}
