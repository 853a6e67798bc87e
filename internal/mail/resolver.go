package mail

import (
	"strings"

	"github.com/emersion/go-imap/v2"
)

// MailboxRole identifies a mailbox either by a server-advertised special-use
// attribute or by (part of) its name.
type MailboxRole struct {
	attr imap.MailboxAttr
	name string
}

// SpecialUseRole selects a mailbox by its RFC 6154 special-use attribute,
// e.g. imap.MailboxAttrArchive.
func SpecialUseRole(attr imap.MailboxAttr) MailboxRole {
	return MailboxRole{attr: attr}
}

// NameRole selects a mailbox by name, case-insensitively.
func NameRole(name string) MailboxRole {
	return MailboxRole{name: name}
}

// String returns a human-readable description of the role.
func (r MailboxRole) String() string {
	if r.attr != "" {
		return string(r.attr)
	}
	return r.name
}

// Resolve finds the mailbox matching the role in the listing.
//
// Special-use roles match the advertised attribute exactly. Name roles match
// case-insensitively on the full name first and fall back to a
// case-insensitive substring match, taking the first hit in listing order.
// Returns nil when nothing matches; absence is not an error at this layer.
func Resolve(role MailboxRole, listing []MailboxInfo) *MailboxInfo {
	if role.attr != "" {
		for i := range listing {
			if listing[i].HasAttr(role.attr) {
				return &listing[i]
			}
		}
		return nil
	}

	want := strings.ToLower(role.name)

	for i := range listing {
		if strings.ToLower(listing[i].Name) == want {
			return &listing[i]
		}
	}

	for i := range listing {
		if strings.Contains(strings.ToLower(listing[i].Name), want) {
			return &listing[i]
		}
	}

	return nil
}
