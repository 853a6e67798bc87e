package mail

import (
	"bytes"
	"io"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	gomail "github.com/emersion/go-message/mail"

	// Register common charsets for MIME header and body decoding.
	_ "github.com/emersion/go-message/charset"
)

// Client is the mailbox surface the session layer programs against. The
// production implementation wraps go-imap; tests substitute fakes.
type Client interface {
	// Login authenticates the connection.
	Login(username, password string) error

	// Logout ends the session and closes the connection.
	Logout() error

	// ListMailboxes lists all mailboxes of the account.
	ListMailboxes() ([]MailboxInfo, error)

	// ListSpecialUseMailboxes lists mailboxes with their RFC 6154
	// special-use attributes.
	ListSpecialUseMailboxes() ([]MailboxInfo, error)

	// SelectMailbox selects a mailbox read-only and reports its status.
	SelectMailbox(name string) (*MailboxStatus, error)

	// Search runs a UID search over the selected mailbox.
	Search(criteria *imap.SearchCriteria) ([]imap.UID, error)

	// FetchMessages fetches full messages, parsing their MIME structure.
	FetchMessages(set imap.NumSet) ([]Message, error)

	// FetchHeaders fetches envelope summaries without bodies.
	FetchHeaders(set imap.NumSet) ([]Header, error)
}

// DialFunc opens a connection to the given address and returns a client
// ready for Login. It exists so the session layer can be tested without a
// live server.
type DialFunc func(addr string) (Client, error)

// DialTLS connects to an IMAP server over implicit TLS.
func DialTLS(addr string) (Client, error) {
	c, err := imapclient.DialTLS(addr, nil)
	if err != nil {
		return nil, &MailError{Op: "dial", Err: err}
	}
	return &imapClient{c: c}, nil
}

type imapClient struct {
	c *imapclient.Client
}

func (ic *imapClient) Login(username, password string) error {
	if err := ic.c.Login(username, password).Wait(); err != nil {
		return &MailError{Op: "login", Err: err}
	}
	return nil
}

func (ic *imapClient) Logout() error {
	if err := ic.c.Logout().Wait(); err != nil {
		return &MailError{Op: "logout", Err: err}
	}
	return nil
}

func (ic *imapClient) ListMailboxes() ([]MailboxInfo, error) {
	return ic.list(nil)
}

func (ic *imapClient) ListSpecialUseMailboxes() ([]MailboxInfo, error) {
	return ic.list(&imap.ListOptions{ReturnSpecialUse: true})
}

func (ic *imapClient) list(options *imap.ListOptions) ([]MailboxInfo, error) {
	data, err := ic.c.List("", "*", options).Collect()
	if err != nil {
		return nil, &MailError{Op: "list", Err: err}
	}

	listing := make([]MailboxInfo, 0, len(data))
	for _, d := range data {
		listing = append(listing, MailboxInfo{
			Name:  d.Mailbox,
			Attrs: d.Attrs,
		})
	}
	return listing, nil
}

func (ic *imapClient) SelectMailbox(name string) (*MailboxStatus, error) {
	data, err := ic.c.Select(name, &imap.SelectOptions{ReadOnly: true}).Wait()
	if err != nil {
		return nil, &MailError{Op: "select", Mailbox: name, Err: err}
	}

	return &MailboxStatus{
		Name:        name,
		NumMessages: data.NumMessages,
	}, nil
}

func (ic *imapClient) Search(criteria *imap.SearchCriteria) ([]imap.UID, error) {
	data, err := ic.c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, &MailError{Op: "search", Err: err}
	}
	return data.AllUIDs(), nil
}

func (ic *imapClient) FetchMessages(set imap.NumSet) ([]Message, error) {
	bodySection := &imap.FetchItemBodySection{Peek: true}

	bufs, err := ic.c.Fetch(set, &imap.FetchOptions{
		Envelope:    true,
		Flags:       true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}).Collect()
	if err != nil {
		return nil, &MailError{Op: "fetch", Err: err}
	}

	msgs := make([]Message, 0, len(bufs))
	for _, buf := range bufs {
		msg := Message{UID: buf.UID}
		fillEnvelope(&msg, buf)

		if raw := buf.FindBodySection(bodySection); raw != nil {
			msg.TextBody, msg.HTMLBody, msg.Parts = parseBody(raw)
		}

		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (ic *imapClient) FetchHeaders(set imap.NumSet) ([]Header, error) {
	bufs, err := ic.c.Fetch(set, &imap.FetchOptions{
		Envelope: true,
		Flags:    true,
		UID:      true,
	}).Collect()
	if err != nil {
		return nil, &MailError{Op: "fetch", Err: err}
	}

	headers := make([]Header, 0, len(bufs))
	for _, buf := range bufs {
		h := Header{UID: buf.UID}

		if buf.Envelope != nil {
			h.Subject = buf.Envelope.Subject
			h.Date = buf.Envelope.Date
			h.From = senderAddr(buf.Envelope.From)
		}

		for _, flag := range buf.Flags {
			if flag == imap.FlagSeen {
				h.Seen = true
			}
		}

		headers = append(headers, h)
	}
	return headers, nil
}

func fillEnvelope(msg *Message, buf *imapclient.FetchMessageBuffer) {
	if buf.Envelope == nil {
		return
	}
	msg.Subject = buf.Envelope.Subject
	msg.Date = buf.Envelope.Date
	msg.From = senderAddr(buf.Envelope.From)
}

func senderAddr(from []imap.Address) string {
	if len(from) == 0 {
		return ""
	}
	return from[0].Addr()
}

// parseBody splits a raw RFC 2822 message into its text body, HTML body,
// and attachment parts. Attachment bodies are kept exactly as delivered;
// decoding to binary is the decoder's job.
func parseBody(raw []byte) (textBody, htmlBody string, parts []MessagePart) {
	mr, err := gomail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		// Unparseable structure: treat the whole payload as plain text.
		return string(raw), "", nil
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		switch h := part.Header.(type) {
		case *gomail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			switch {
			case strings.HasPrefix(contentType, "text/plain"):
				textBody = string(body)
			case strings.HasPrefix(contentType, "text/html"):
				htmlBody = string(body)
			}

		case *gomail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()

			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			mediaType, mediaSubtype := splitContentType(contentType)
			parts = append(parts, MessagePart{
				ContentType:    mediaType,
				ContentSubtype: mediaSubtype,
				Filename:       filename,
				RawData:        body,
			})
		}
	}

	return textBody, htmlBody, parts
}

func splitContentType(contentType string) (mediaType, mediaSubtype string) {
	mediaType, mediaSubtype, ok := strings.Cut(contentType, "/")
	if !ok {
		return contentType, ""
	}
	return mediaType, mediaSubtype
}
