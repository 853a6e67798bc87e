package mail

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Decoder errors. Both are sentinels so callers can tell a malformed text
// payload apart from malformed Base64 with errors.Is.
var (
	// ErrInputEncoding indicates the part body is not valid UTF-8 text.
	ErrInputEncoding = errors.New("attachment body is not valid text")

	// ErrBase64 indicates the part body could not be decoded as Base64.
	ErrBase64 = errors.New("attachment body is not valid base64")
)

// transportReplacer translates the transport-safe alphabet some providers
// use for attachment bodies back towards the standard Base64 alphabet.
var transportReplacer = strings.NewReplacer("+", "-", "_", "/")

// DecodePart decodes the transport-safe Base64 body of an attachment part
// into the original binary payload. The input must be valid UTF-8 text;
// after alphabet translation, characters outside the standard Base64
// alphabet (line breaks, stray punctuation) are skipped.
func DecodePart(part MessagePart) ([]byte, error) {
	if !utf8.Valid(part.RawData) {
		return nil, ErrInputEncoding
	}

	translated := transportReplacer.Replace(string(part.RawData))

	var b strings.Builder
	b.Grow(len(translated))
	for _, c := range translated {
		switch {
		case c >= 'A' && c <= 'Z',
			c >= 'a' && c <= 'z',
			c >= '0' && c <= '9',
			c == '+', c == '/', c == '=':
			b.WriteRune(c)
		}
	}

	decoded, err := base64.StdEncoding.DecodeString(b.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBase64, err)
	}

	return decoded, nil
}
