package receipts

// Attachment is the decoded attachment of an email as exposed to MCP
// clients. Data carries the binary payload and serializes as base64.
type Attachment struct {
	Filename string `json:"filename"`
	Type     string `json:"type"`
	Data     []byte `json:"data"`
}

// EmailMessage is the external shape of a mail message returned by the
// email tools.
type EmailMessage struct {
	Subject    string      `json:"subject"`
	RawText    string      `json:"rawText,omitempty"`
	HTMLText   string      `json:"htmlText,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
}
