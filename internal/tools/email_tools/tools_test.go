package email_tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/emersion/go-imap/v2"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/receiptfewer/internal/config"
	"github.com/teemow/receiptfewer/internal/mail"
	"github.com/teemow/receiptfewer/internal/receipts"
	"github.com/teemow/receiptfewer/internal/server"
)

type fakeSession struct {
	mailboxes  []mail.MailboxInfo
	specialUse []mail.MailboxInfo
	statuses   map[string]*mail.MailboxStatus
	uids       []imap.UID
	messages   []mail.Message
	headers    []mail.Header
}

func (f *fakeSession) Setup() error      { return nil }
func (f *fakeSession) Disconnect() error { return nil }

func (f *fakeSession) ListMailboxes() ([]mail.MailboxInfo, error) {
	return f.mailboxes, nil
}

func (f *fakeSession) ListSpecialUseMailboxes() ([]mail.MailboxInfo, error) {
	return f.specialUse, nil
}

func (f *fakeSession) SelectMailbox(name string) (*mail.MailboxStatus, error) {
	if status, ok := f.statuses[name]; ok {
		return status, nil
	}
	return &mail.MailboxStatus{Name: name}, nil
}

func (f *fakeSession) Search(_ *imap.SearchCriteria) ([]imap.UID, error) {
	return f.uids, nil
}

func (f *fakeSession) FetchMessages(_ imap.NumSet) ([]mail.Message, error) {
	return f.messages, nil
}

func (f *fakeSession) FetchHeaders(_ imap.NumSet) ([]mail.Header, error) {
	return f.headers, nil
}

func newTestContext(t *testing.T, session receipts.Session) *server.ServerContext {
	t.Helper()

	sc, err := server.NewServerContext(context.Background(), &config.Config{
		IMAP: config.IMAPConfig{
			Host:     "imap.example.com",
			Port:     993,
			Username: "user@example.com",
			Password: "secret",
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	sc.SetSessionFactory(func() receipts.Session { return session })
	return sc
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return text.Text
}

func requestWithArgs(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestRegisterEmailTools(t *testing.T) {
	sc := newTestContext(t, &fakeSession{})
	s := mcpserver.NewMCPServer("test", "1.0.0")

	require.NoError(t, RegisterEmailTools(s, sc))
}

func TestHandleFetchLast(t *testing.T) {
	sc := newTestContext(t, &fakeSession{
		specialUse: []mail.MailboxInfo{{Name: "INBOX"}},
		statuses: map[string]*mail.MailboxStatus{
			"INBOX": {Name: "INBOX", NumMessages: 3},
		},
		headers: []mail.Header{{Subject: "Your order shipped"}},
	})

	result, err := handleFetchLast(context.Background(), mcp.CallToolRequest{}, sc)
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, "Your order shipped", resultText(t, result))
}

func TestHandleFetchLastEmptyInbox(t *testing.T) {
	sc := newTestContext(t, &fakeSession{
		specialUse: []mail.MailboxInfo{{Name: "INBOX"}},
		statuses: map[string]*mail.MailboxStatus{
			"INBOX": {Name: "INBOX", NumMessages: 0},
		},
	})

	result, err := handleFetchLast(context.Background(), mcp.CallToolRequest{}, sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleSearchRequiresSender(t *testing.T) {
	sc := newTestContext(t, &fakeSession{})

	result, err := handleSearch(context.Background(), requestWithArgs(map[string]any{}), sc)
	require.NoError(t, err)
	require.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "sender is required")
}

func TestHandleSearch(t *testing.T) {
	sc := newTestContext(t, &fakeSession{
		specialUse: []mail.MailboxInfo{{Name: "INBOX"}},
		uids:       []imap.UID{7},
		messages: []mail.Message{
			{Subject: "Your receipt", TextBody: "Thanks!"},
		},
	})

	result, err := handleSearch(context.Background(), requestWithArgs(map[string]any{
		"sender":    "store@example.com",
		"sinceDays": float64(14),
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var messages []receipts.EmailMessage
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &messages))
	require.Len(t, messages, 1)
	assert.Equal(t, "Your receipt", messages[0].Subject)
}

func TestHandleFetchReceipts(t *testing.T) {
	sc := newTestContext(t, &fakeSession{
		mailboxes: []mail.MailboxInfo{{Name: "INBOX"}, {Name: "Receipts"}},
		statuses: map[string]*mail.MailboxStatus{
			"Receipts": {Name: "Receipts", NumMessages: 1},
		},
		messages: []mail.Message{
			{Subject: "Invoice March", Parts: []mail.MessagePart{{
				ContentType:    "application",
				ContentSubtype: "pdf",
				Filename:       "invoice.pdf",
				RawData:        []byte("JVBERi0xLjQ="),
			}}},
		},
	})

	result, err := handleFetchReceipts(context.Background(), mcp.CallToolRequest{}, sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var messages []receipts.EmailMessage
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &messages))
	require.Len(t, messages, 1)
	assert.Equal(t, "Invoice March", messages[0].Subject)
	require.NotNil(t, messages[0].Attachment)
	assert.Equal(t, "invoice.pdf", messages[0].Attachment.Filename)
	assert.Equal(t, []byte("%PDF-1.4"), messages[0].Attachment.Data)
}
