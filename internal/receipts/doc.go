// Package receipts implements the receipt workflows on top of the mail
// session and the OCR client: locating the receipts mailbox, picking the
// newest PDF attachment, decoding it and turning it into markdown.
package receipts
