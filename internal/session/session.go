package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/emersion/go-imap/v2"

	"github.com/teemow/receiptfewer/internal/config"
	"github.com/teemow/receiptfewer/internal/logging"
	"github.com/teemow/receiptfewer/internal/mail"
)

// ErrNotConnected is returned when a mailbox operation is attempted before
// the session is connected and logged in.
var ErrNotConnected = errors.New("session is not connected")

// State describes the lifecycle of a mail session.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateLoggedIn
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateLoggedIn:
		return "logged_in"
	default:
		return "unknown"
	}
}

// MailSession owns one IMAP connection and serializes all mailbox
// operations behind a single mutex: at most one operation is in flight at
// any time, so callers can share a session without coordinating.
type MailSession struct {
	mu sync.Mutex

	cfg    config.IMAPConfig
	dial   mail.DialFunc
	logger *slog.Logger

	client mail.Client
	state  State
}

// Option configures a MailSession.
type Option func(*MailSession)

// WithDialer overrides how the session reaches the mail server. Tests use
// this to substitute a fake client.
func WithDialer(dial mail.DialFunc) Option {
	return func(s *MailSession) {
		s.dial = dial
	}
}

// WithLogger sets the logger for session lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *MailSession) {
		s.logger = logger
	}
}

// New creates a session for the given IMAP configuration. The session does
// not connect until Setup or Connect is called.
func New(cfg config.IMAPConfig, opts ...Option) *MailSession {
	s := &MailSession{
		cfg:    cfg,
		dial:   mail.DialTLS,
		logger: slog.Default(),
		state:  StateDisconnected,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current session state.
func (s *MailSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Setup connects and logs in as a single step. A login failure leaves the
// session connected so the caller may retry Login without reconnecting.
func (s *MailSession) Setup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connectLocked(); err != nil {
		return err
	}
	return s.loginLocked()
}

// Connect establishes the connection without authenticating. Connecting an
// already-connected session is a no-op.
func (s *MailSession) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked()
}

func (s *MailSession) connectLocked() error {
	if s.state != StateDisconnected {
		return nil
	}

	s.state = StateConnecting
	s.logger.Debug("connecting to mail server",
		logging.Operation("session.connect"),
		slog.String("addr", s.cfg.Addr()))

	client, err := s.dial(s.cfg.Addr())
	if err != nil {
		s.state = StateDisconnected
		return fmt.Errorf("connecting to %s: %w", s.cfg.Addr(), err)
	}

	s.client = client
	s.state = StateConnected
	return nil
}

// Login authenticates the connected session. Logging in when already
// logged in is a no-op.
func (s *MailSession) Login() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loginLocked()
}

func (s *MailSession) loginLocked() error {
	switch s.state {
	case StateLoggedIn:
		return nil
	case StateConnected:
		// Proceed below.
	default:
		return ErrNotConnected
	}

	if err := s.client.Login(s.cfg.Username, s.cfg.Password); err != nil {
		// Stay connected; the caller may retry with the same connection.
		return fmt.Errorf("login failed: %w", err)
	}

	s.state = StateLoggedIn
	s.logger.Debug("logged in",
		logging.Operation("session.login"),
		logging.UserHash(s.cfg.Username))
	return nil
}

// Disconnect logs out and drops the connection. It is idempotent; calling
// it on a disconnected session does nothing.
func (s *MailSession) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDisconnected {
		return nil
	}

	client := s.client
	s.client = nil
	s.state = StateDisconnected

	if client == nil {
		return nil
	}
	if err := client.Logout(); err != nil {
		return fmt.Errorf("disconnecting: %w", err)
	}
	return nil
}

// ListMailboxes lists all mailboxes of the account.
func (s *MailSession) ListMailboxes() ([]mail.MailboxInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLoggedIn {
		return nil, ErrNotConnected
	}
	return s.client.ListMailboxes()
}

// ListSpecialUseMailboxes lists mailboxes with their special-use attributes.
func (s *MailSession) ListSpecialUseMailboxes() ([]mail.MailboxInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLoggedIn {
		return nil, ErrNotConnected
	}
	return s.client.ListSpecialUseMailboxes()
}

// SelectMailbox selects the named mailbox read-only.
func (s *MailSession) SelectMailbox(name string) (*mail.MailboxStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLoggedIn {
		return nil, ErrNotConnected
	}
	return s.client.SelectMailbox(name)
}

// Search runs a UID search over the selected mailbox.
func (s *MailSession) Search(criteria *imap.SearchCriteria) ([]imap.UID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLoggedIn {
		return nil, ErrNotConnected
	}
	return s.client.Search(criteria)
}

// FetchMessages fetches full messages from the selected mailbox.
func (s *MailSession) FetchMessages(set imap.NumSet) ([]mail.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLoggedIn {
		return nil, ErrNotConnected
	}
	return s.client.FetchMessages(set)
}

// FetchHeaders fetches envelope summaries from the selected mailbox.
func (s *MailSession) FetchHeaders(set imap.NumSet) ([]mail.Header, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLoggedIn {
		return nil, ErrNotConnected
	}
	return s.client.FetchHeaders(set)
}
