package receipts

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/receiptfewer/internal/mail"
	"github.com/teemow/receiptfewer/internal/ocr"
)

// "%PDF-1.4" in transport encoding, as the provider delivers it.
const encodedPDF = "JVBERi0xLjQ="

type fakeSession struct {
	mailboxes  []mail.MailboxInfo
	specialUse []mail.MailboxInfo
	statuses   map[string]*mail.MailboxStatus
	uids       []imap.UID
	messages   []mail.Message
	headers    []mail.Header
	setupErr   error

	selected       string
	searchCriteria *imap.SearchCriteria
	fetchedSet     imap.NumSet
	disconnects    int
}

func (f *fakeSession) Setup() error { return f.setupErr }

func (f *fakeSession) Disconnect() error {
	f.disconnects++
	return nil
}

func (f *fakeSession) ListMailboxes() ([]mail.MailboxInfo, error) {
	return f.mailboxes, nil
}

func (f *fakeSession) ListSpecialUseMailboxes() ([]mail.MailboxInfo, error) {
	return f.specialUse, nil
}

func (f *fakeSession) SelectMailbox(name string) (*mail.MailboxStatus, error) {
	f.selected = name
	if status, ok := f.statuses[name]; ok {
		return status, nil
	}
	return &mail.MailboxStatus{Name: name}, nil
}

func (f *fakeSession) Search(criteria *imap.SearchCriteria) ([]imap.UID, error) {
	f.searchCriteria = criteria
	return f.uids, nil
}

func (f *fakeSession) FetchMessages(set imap.NumSet) ([]mail.Message, error) {
	f.fetchedSet = set
	return f.messages, nil
}

func (f *fakeSession) FetchHeaders(set imap.NumSet) ([]mail.Header, error) {
	f.fetchedSet = set
	return f.headers, nil
}

type fakeOCR struct {
	pages []ocr.Page

	uploadedFilename string
	uploadedData     []byte
	processedURL     string
}

func (f *fakeOCR) Upload(_ context.Context, filename string, data []byte) (string, error) {
	f.uploadedFilename = filename
	f.uploadedData = data
	return "file-1", nil
}

func (f *fakeOCR) SignedURL(_ context.Context, fileID string) (string, error) {
	return "https://files.example.com/" + fileID, nil
}

func (f *fakeOCR) Process(_ context.Context, documentURL string) (*ocr.Result, error) {
	f.processedURL = documentURL
	return &ocr.Result{Pages: f.pages}, nil
}

func pdfPart(filename string) mail.MessagePart {
	return mail.MessagePart{
		ContentType:    "application",
		ContentSubtype: "pdf",
		Filename:       filename,
		RawData:        []byte(encodedPDF),
	}
}

func receiptMailboxes() []mail.MailboxInfo {
	return []mail.MailboxInfo{
		{Name: "INBOX"},
		{Name: "Receipts"},
		{Name: "Sent", Attrs: []imap.MailboxAttr{imap.MailboxAttrSent}},
	}
}

func TestRunMagic(t *testing.T) {
	session := &fakeSession{
		mailboxes: receiptMailboxes(),
		statuses: map[string]*mail.MailboxStatus{
			"Receipts": {Name: "Receipts", NumMessages: 12},
		},
		messages: []mail.Message{
			{Subject: "Newsletter"},
			{Subject: "Invoice March", Parts: []mail.MessagePart{pdfPart("invoice.pdf")}},
		},
	}
	ocrClient := &fakeOCR{pages: []ocr.Page{
		{Index: 1, Markdown: "Total: 42.00"},
		{Index: 0, Markdown: "# Receipt"},
	}}

	pipeline := NewPipeline(session, ocrClient)

	doc, err := pipeline.RunMagic(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "PAGE: 0\n# Receipt\n\nPAGE: 1\nTotal: 42.00\n", doc)
	assert.Equal(t, "Receipts", session.selected)
	assert.Equal(t, 1, session.disconnects)

	set, ok := session.fetchedSet.(imap.SeqSet)
	require.True(t, ok)
	assert.Equal(t, "3:12", set.String())

	assert.Equal(t, "invoice.pdf", ocrClient.uploadedFilename)
	assert.Equal(t, []byte("%PDF-1.4"), ocrClient.uploadedData)
	assert.Equal(t, "https://files.example.com/file-1", ocrClient.processedURL)
}

func TestRunMagicMailboxNotFound(t *testing.T) {
	session := &fakeSession{
		mailboxes: []mail.MailboxInfo{{Name: "INBOX"}, {Name: "Sent"}},
	}

	pipeline := NewPipeline(session, &fakeOCR{})

	_, err := pipeline.RunMagic(context.Background())
	require.ErrorIs(t, err, ErrMailboxNotFound)
	assert.Empty(t, session.selected)
	assert.Equal(t, 1, session.disconnects)
}

func TestRunMagicEmptyMailbox(t *testing.T) {
	session := &fakeSession{
		mailboxes: receiptMailboxes(),
		statuses: map[string]*mail.MailboxStatus{
			"Receipts": {Name: "Receipts", NumMessages: 0},
		},
	}

	pipeline := NewPipeline(session, &fakeOCR{})

	_, err := pipeline.RunMagic(context.Background())
	require.ErrorIs(t, err, ErrNoReceiptFound)
}

func TestRunMagicNoEligibleMessages(t *testing.T) {
	session := &fakeSession{
		mailboxes: receiptMailboxes(),
		statuses: map[string]*mail.MailboxStatus{
			"Receipts": {Name: "Receipts", NumMessages: 2},
		},
		messages: []mail.Message{
			{Subject: "Plain text only"},
			{Subject: "Also plain"},
		},
	}

	pipeline := NewPipeline(session, &fakeOCR{})

	_, err := pipeline.RunMagic(context.Background())
	require.ErrorIs(t, err, ErrNoReceiptFound)
}

func TestRunMagicNoPDFAttachment(t *testing.T) {
	session := &fakeSession{
		mailboxes: receiptMailboxes(),
		statuses: map[string]*mail.MailboxStatus{
			"Receipts": {Name: "Receipts", NumMessages: 1},
		},
		messages: []mail.Message{
			{Subject: "Photo", Parts: []mail.MessagePart{{
				ContentType:    "image",
				ContentSubtype: "png",
				Filename:       "photo.png",
			}}},
		},
	}

	pipeline := NewPipeline(session, &fakeOCR{})

	_, err := pipeline.RunMagic(context.Background())
	require.ErrorIs(t, err, ErrNoAttachment)
}

func TestRunMagicSetupFailure(t *testing.T) {
	session := &fakeSession{setupErr: assert.AnError}

	pipeline := NewPipeline(session, &fakeOCR{})

	_, err := pipeline.RunMagic(context.Background())
	require.ErrorIs(t, err, assert.AnError)
}

func TestFetchLatestSubject(t *testing.T) {
	session := &fakeSession{
		specialUse: []mail.MailboxInfo{{Name: "INBOX"}, {Name: "Receipts"}},
		statuses: map[string]*mail.MailboxStatus{
			"INBOX": {Name: "INBOX", NumMessages: 5},
		},
		headers: []mail.Header{{Subject: "Your order shipped"}},
	}

	pipeline := NewPipeline(session, &fakeOCR{})

	subject, err := pipeline.FetchLatestSubject(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Your order shipped", subject)
	assert.Equal(t, "INBOX", session.selected)

	set, ok := session.fetchedSet.(imap.SeqSet)
	require.True(t, ok)
	assert.Equal(t, "5", set.String())
}

func TestFetchLatestSubjectEmptyInbox(t *testing.T) {
	session := &fakeSession{
		specialUse: []mail.MailboxInfo{{Name: "INBOX"}},
		statuses: map[string]*mail.MailboxStatus{
			"INBOX": {Name: "INBOX", NumMessages: 0},
		},
	}

	pipeline := NewPipeline(session, &fakeOCR{})

	_, err := pipeline.FetchLatestSubject(context.Background())
	require.ErrorIs(t, err, ErrNoMessageFound)
}

func TestSearch(t *testing.T) {
	now := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	session := &fakeSession{
		specialUse: []mail.MailboxInfo{{Name: "INBOX"}},
		uids:       []imap.UID{4, 9},
		messages: []mail.Message{
			{
				Subject:  "Your receipt",
				TextBody: "Thanks for your purchase.",
				HTMLBody: "<p>Thanks for your purchase.</p>",
				Parts:    []mail.MessagePart{pdfPart("receipt.pdf")},
			},
			{Subject: "Your order shipped", TextBody: "On its way."},
		},
	}

	pipeline := NewPipeline(session, &fakeOCR{}, WithClock(func() time.Time { return now }))

	results, err := pipeline.Search(context.Background(), "store@example.com", DefaultSearchDays)
	require.NoError(t, err)

	require.NotNil(t, session.searchCriteria)
	assert.Contains(t, session.searchCriteria.NotFlag, imap.FlagSeen)
	require.Len(t, session.searchCriteria.Header, 1)
	assert.Equal(t, "From", session.searchCriteria.Header[0].Key)
	assert.Equal(t, "store@example.com", session.searchCriteria.Header[0].Value)
	assert.Equal(t, now.AddDate(0, 0, -7), session.searchCriteria.Since)

	require.Len(t, results, 2)
	assert.Equal(t, "Your receipt", results[0].Subject)
	assert.Equal(t, "Thanks for your purchase.", results[0].RawText)
	require.NotNil(t, results[0].Attachment)
	assert.Equal(t, "receipt.pdf", results[0].Attachment.Filename)
	assert.Equal(t, "application/pdf", results[0].Attachment.Type)
	assert.Equal(t, []byte("%PDF-1.4"), results[0].Attachment.Data)
	assert.Nil(t, results[1].Attachment)
}

func TestSearchNoMatches(t *testing.T) {
	session := &fakeSession{
		specialUse: []mail.MailboxInfo{{Name: "INBOX"}},
	}

	pipeline := NewPipeline(session, &fakeOCR{})

	results, err := pipeline.Search(context.Background(), "store@example.com", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 1, session.disconnects)
}

func TestSearchInboxNotFound(t *testing.T) {
	session := &fakeSession{
		specialUse: []mail.MailboxInfo{{Name: "Receipts"}},
	}

	pipeline := NewPipeline(session, &fakeOCR{})

	_, err := pipeline.Search(context.Background(), "store@example.com", 0)
	require.ErrorIs(t, err, ErrMailboxNotFound)
}

func TestFetchReceiptEmails(t *testing.T) {
	session := &fakeSession{
		mailboxes: receiptMailboxes(),
		statuses: map[string]*mail.MailboxStatus{
			"Receipts": {Name: "Receipts", NumMessages: 3},
		},
		messages: []mail.Message{
			{Subject: "No attachment"},
			{Subject: "Invoice March", Parts: []mail.MessagePart{pdfPart("invoice.pdf")}},
			{Subject: "Invoice April", Parts: []mail.MessagePart{pdfPart("invoice2.pdf")}},
		},
	}

	pipeline := NewPipeline(session, &fakeOCR{})

	results, err := pipeline.FetchReceiptEmails(context.Background())
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "Invoice March", results[0].Subject)
	assert.Equal(t, "Invoice April", results[1].Subject)
	require.NotNil(t, results[0].Attachment)
	assert.Equal(t, "invoice.pdf", results[0].Attachment.Filename)
}

func TestSaveAttachment(t *testing.T) {
	session := &fakeSession{
		mailboxes: receiptMailboxes(),
		statuses: map[string]*mail.MailboxStatus{
			"Receipts": {Name: "Receipts", NumMessages: 1},
		},
		messages: []mail.Message{
			{Subject: "Invoice March", Parts: []mail.MessagePart{pdfPart("invoice.pdf")}},
		},
	}

	pipeline := NewPipeline(session, &fakeOCR{})

	path := filepath.Join(t.TempDir(), "invoice.pdf")
	filename, err := pipeline.SaveAttachment(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "invoice.pdf", filename)

	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), saved)
}

func TestSaveAttachmentBadPath(t *testing.T) {
	session := &fakeSession{
		mailboxes: receiptMailboxes(),
		statuses: map[string]*mail.MailboxStatus{
			"Receipts": {Name: "Receipts", NumMessages: 1},
		},
		messages: []mail.Message{
			{Subject: "Invoice March", Parts: []mail.MessagePart{pdfPart("invoice.pdf")}},
		},
	}

	pipeline := NewPipeline(session, &fakeOCR{})

	path := filepath.Join(t.TempDir(), "missing", "invoice.pdf")
	_, err := pipeline.SaveAttachment(context.Background(), path)
	require.ErrorIs(t, err, ErrFailedSavingFile)
}

func TestProcessDocumentURL(t *testing.T) {
	ocrClient := &fakeOCR{pages: []ocr.Page{{Index: 0, Markdown: "# Receipt"}}}

	pipeline := NewPipeline(&fakeSession{}, ocrClient)

	doc, err := pipeline.ProcessDocumentURL(context.Background(), "https://example.com/receipt.pdf")
	require.NoError(t, err)
	assert.Equal(t, "PAGE: 0\n# Receipt\n", doc)
	assert.Equal(t, "https://example.com/receipt.pdf", ocrClient.processedURL)
}
