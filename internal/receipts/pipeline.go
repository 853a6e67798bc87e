package receipts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/emersion/go-imap/v2"

	"github.com/teemow/receiptfewer/internal/logging"
	"github.com/teemow/receiptfewer/internal/mail"
	"github.com/teemow/receiptfewer/internal/ocr"
)

var (
	// ErrMailboxNotFound is returned when the account has no mailbox
	// matching the requested role or name.
	ErrMailboxNotFound = errors.New("mailbox not found")

	// ErrNoMessageFound is returned when the selected mailbox is empty.
	ErrNoMessageFound = errors.New("no message found")

	// ErrNoReceiptFound is returned when none of the recent messages in
	// the receipts mailbox carries an attachment.
	ErrNoReceiptFound = errors.New("no receipt email found")

	// ErrNoAttachment is returned when a receipt email has no PDF part.
	ErrNoAttachment = errors.New("receipt email has no PDF attachment")

	// ErrFailedSavingFile is returned when an attachment cannot be
	// written to disk.
	ErrFailedSavingFile = errors.New("failed saving attachment")
)

const (
	receiptsMailboxName = "receipts"
	inboxMailboxName    = "inbox"

	// latestReceiptCount bounds how many recent messages are scanned for
	// receipts.
	latestReceiptCount = 10

	// DefaultSearchDays is the lookback window applied when a search does
	// not name one.
	DefaultSearchDays = 7
)

// Session is the slice of the mail session the pipeline needs.
type Session interface {
	Setup() error
	Disconnect() error
	ListMailboxes() ([]mail.MailboxInfo, error)
	ListSpecialUseMailboxes() ([]mail.MailboxInfo, error)
	SelectMailbox(name string) (*mail.MailboxStatus, error)
	Search(criteria *imap.SearchCriteria) ([]imap.UID, error)
	FetchMessages(set imap.NumSet) ([]mail.Message, error)
	FetchHeaders(set imap.NumSet) ([]mail.Header, error)
}

// OCRClient is the slice of the OCR client the pipeline needs.
type OCRClient interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
	SignedURL(ctx context.Context, fileID string) (string, error)
	Process(ctx context.Context, documentURL string) (*ocr.Result, error)
}

// Pipeline drives the receipt workflows. Each exported method opens the
// session, does its work and disconnects; sessions are not reused across
// calls.
type Pipeline struct {
	session Session
	ocr     OCRClient
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger for pipeline events.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithClock overrides the time source used for search windows.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// NewPipeline creates a pipeline over the given session and OCR client.
func NewPipeline(session Session, ocrClient OCRClient, opts ...Option) *Pipeline {
	p := &Pipeline{
		session: session,
		ocr:     ocrClient,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunMagic runs the full receipt flow: find the newest receipt email,
// decode its PDF attachment, OCR it and return the assembled markdown.
func (p *Pipeline) RunMagic(ctx context.Context) (string, error) {
	if err := p.session.Setup(); err != nil {
		return "", err
	}
	defer p.disconnect()

	msg, err := p.latestReceipt()
	if err != nil {
		return "", err
	}

	part := mail.SelectReceiptAttachment(*msg)
	if part == nil {
		return "", ErrNoAttachment
	}

	data, err := mail.DecodePart(*part)
	if err != nil {
		return "", fmt.Errorf("decoding attachment %q: %w", part.Filename, err)
	}

	p.logger.Info("processing receipt",
		logging.Operation("receipt.run_magic"),
		slog.String("filename", part.Filename),
		slog.Int("bytes", len(data)))

	fileID, err := p.ocr.Upload(ctx, part.Filename, data)
	if err != nil {
		return "", err
	}
	url, err := p.ocr.SignedURL(ctx, fileID)
	if err != nil {
		return "", err
	}
	result, err := p.ocr.Process(ctx, url)
	if err != nil {
		return "", err
	}

	return AssembleDocument(result.Pages), nil
}

// ProcessDocumentURL runs OCR over a document already reachable via HTTP
// and returns the assembled markdown. No mail session is involved.
func (p *Pipeline) ProcessDocumentURL(ctx context.Context, documentURL string) (string, error) {
	result, err := p.ocr.Process(ctx, documentURL)
	if err != nil {
		return "", err
	}
	return AssembleDocument(result.Pages), nil
}

// FetchLatestSubject returns the subject of the newest message in the
// inbox.
func (p *Pipeline) FetchLatestSubject(ctx context.Context) (string, error) {
	if err := p.session.Setup(); err != nil {
		return "", err
	}
	defer p.disconnect()

	status, err := p.openInbox()
	if err != nil {
		return "", err
	}

	set, ok := status.Latest(1)
	if !ok {
		return "", ErrNoMessageFound
	}

	headers, err := p.session.FetchHeaders(set)
	if err != nil {
		return "", err
	}
	if len(headers) == 0 {
		return "", ErrNoMessageFound
	}
	return headers[len(headers)-1].Subject, nil
}

// Search returns unseen inbox messages from the given sender, restricted
// to the last sinceDays days when sinceDays is positive.
func (p *Pipeline) Search(ctx context.Context, sender string, sinceDays int) ([]EmailMessage, error) {
	if err := p.session.Setup(); err != nil {
		return nil, err
	}
	defer p.disconnect()

	if _, err := p.openInbox(); err != nil {
		return nil, err
	}

	criteria := mail.BuildSearchCriteria(mail.SearchSpec{
		OnlyUnseen:   true,
		From:         sender,
		SinceDaysAgo: sinceDays,
	}, p.now())

	uids, err := p.session.Search(criteria)
	if err != nil {
		return nil, err
	}
	if len(uids) == 0 {
		return nil, nil
	}

	msgs, err := p.session.FetchMessages(imap.UIDSetNum(uids...))
	if err != nil {
		return nil, err
	}
	return p.toEmailMessages(msgs), nil
}

// FetchReceiptEmails returns the recent messages of the receipts mailbox
// that carry attachments.
func (p *Pipeline) FetchReceiptEmails(ctx context.Context) ([]EmailMessage, error) {
	if err := p.session.Setup(); err != nil {
		return nil, err
	}
	defer p.disconnect()

	msgs, err := p.latestReceiptMessages()
	if err != nil {
		return nil, err
	}
	return p.toEmailMessages(msgs), nil
}

// SaveAttachment decodes the PDF attachment of the newest receipt email
// and writes it to path. It returns the attachment filename.
func (p *Pipeline) SaveAttachment(ctx context.Context, path string) (string, error) {
	if err := p.session.Setup(); err != nil {
		return "", err
	}
	defer p.disconnect()

	msg, err := p.latestReceipt()
	if err != nil {
		return "", err
	}

	part := mail.SelectReceiptAttachment(*msg)
	if part == nil {
		return "", ErrNoAttachment
	}

	data, err := mail.DecodePart(*part)
	if err != nil {
		return "", fmt.Errorf("decoding attachment %q: %w", part.Filename, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedSavingFile, err)
	}

	p.logger.Info("attachment saved",
		logging.Operation("receipt.save_attachment"),
		slog.String("filename", part.Filename),
		slog.String("path", path))
	return part.Filename, nil
}

// disconnect closes the session without masking the caller's error.
func (p *Pipeline) disconnect() {
	if err := p.session.Disconnect(); err != nil {
		p.logger.Warn("disconnect failed", logging.Err(err))
	}
}

// latestReceipt returns the first of the recent receipts-mailbox messages
// that carries an attachment.
func (p *Pipeline) latestReceipt() (*mail.Message, error) {
	msgs, err := p.latestReceiptMessages()
	if err != nil {
		return nil, err
	}
	return &msgs[0], nil
}

func (p *Pipeline) latestReceiptMessages() ([]mail.Message, error) {
	listing, err := p.session.ListMailboxes()
	if err != nil {
		return nil, err
	}

	info := mail.Resolve(mail.NameRole(receiptsMailboxName), listing)
	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrMailboxNotFound, receiptsMailboxName)
	}

	status, err := p.session.SelectMailbox(info.Name)
	if err != nil {
		return nil, err
	}

	set, ok := status.Latest(latestReceiptCount)
	if !ok {
		return nil, ErrNoReceiptFound
	}

	msgs, err := p.session.FetchMessages(set)
	if err != nil {
		return nil, err
	}

	eligible := mail.FilterEligible(msgs)
	if len(eligible) == 0 {
		return nil, ErrNoReceiptFound
	}
	return eligible, nil
}

// openInbox resolves and selects the inbox from the special-use listing.
// The inbox has no special-use attribute of its own, so it is matched by
// name.
func (p *Pipeline) openInbox() (*mail.MailboxStatus, error) {
	listing, err := p.session.ListSpecialUseMailboxes()
	if err != nil {
		return nil, err
	}

	info := mail.Resolve(mail.NameRole(inboxMailboxName), listing)
	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrMailboxNotFound, inboxMailboxName)
	}
	return p.session.SelectMailbox(info.Name)
}

func (p *Pipeline) toEmailMessages(msgs []mail.Message) []EmailMessage {
	out := make([]EmailMessage, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, p.toEmailMessage(msg))
	}
	return out
}

func (p *Pipeline) toEmailMessage(msg mail.Message) EmailMessage {
	em := EmailMessage{
		Subject:  msg.Subject,
		RawText:  msg.TextBody,
		HTMLText: msg.HTMLBody,
	}

	part := mail.SelectReceiptAttachment(msg)
	if part == nil {
		return em
	}

	data, err := mail.DecodePart(*part)
	if err != nil {
		p.logger.Warn("skipping undecodable attachment",
			slog.String("filename", part.Filename),
			logging.Err(err))
		return em
	}

	em.Attachment = &Attachment{
		Filename: part.Filename,
		Type:     part.ContentType + "/" + part.ContentSubtype,
		Data:     data,
	}
	return em
}
