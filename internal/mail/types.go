package mail

import (
	"time"

	"github.com/emersion/go-imap/v2"
)

// MailboxInfo describes a mailbox as returned by a LIST command.
type MailboxInfo struct {
	// Name is the full mailbox name, including any hierarchy.
	Name string

	// Attrs holds the attributes the server advertises for this mailbox,
	// including RFC 6154 special-use attributes when requested.
	Attrs []imap.MailboxAttr
}

// HasAttr reports whether the mailbox carries the given attribute.
func (m *MailboxInfo) HasAttr(attr imap.MailboxAttr) bool {
	for _, a := range m.Attrs {
		if a == attr {
			return true
		}
	}
	return false
}

// MailboxStatus describes the state of a selected mailbox.
type MailboxStatus struct {
	Name        string
	NumMessages uint32
}

// Latest returns a sequence set covering the most recent n messages of the
// mailbox, in server delivery order. The second return value is false when
// the mailbox is empty or n is zero.
func (s *MailboxStatus) Latest(n uint32) (imap.SeqSet, bool) {
	if s.NumMessages == 0 || n == 0 {
		return nil, false
	}

	from := uint32(1)
	if s.NumMessages > n {
		from = s.NumMessages - n + 1
	}

	var set imap.SeqSet
	set.AddRange(from, s.NumMessages)
	return set, true
}

// Header carries the envelope summary of a message without its body.
type Header struct {
	UID     imap.UID
	Subject string
	From    string
	Date    time.Time
	Seen    bool
}

// MessagePart is a single attachment part of a message. RawData holds the
// part body as delivered by the server; for provider-encoded attachments
// this is transport-safe Base64 text rather than the binary payload.
type MessagePart struct {
	ContentType    string
	ContentSubtype string
	Filename       string
	RawData        []byte
}

// IsPDF reports whether the part is a PDF attachment.
func (p *MessagePart) IsPDF() bool {
	return p.ContentType == "application" && p.ContentSubtype == "pdf"
}

// Message is a fetched mail message with its parsed bodies and attachment
// parts.
type Message struct {
	UID      imap.UID
	Subject  string
	From     string
	Date     time.Time
	TextBody string
	HTMLBody string

	// Parts holds the attachment parts of the message, in MIME order.
	Parts []MessagePart
}
