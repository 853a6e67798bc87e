package mail

import "fmt"

// MailError wraps an IMAP operation failure with the operation name and,
// when relevant, the mailbox involved.
type MailError struct {
	Op      string
	Mailbox string
	Err     error
}

func (e *MailError) Error() string {
	if e.Mailbox != "" {
		return fmt.Sprintf("mail %s %q: %v", e.Op, e.Mailbox, e.Err)
	}
	return fmt.Sprintf("mail %s: %v", e.Op, e.Err)
}

func (e *MailError) Unwrap() error {
	return e.Err
}
