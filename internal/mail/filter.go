package mail

// HasReceiptAttachment reports whether the message carries at least one PDF
// attachment part.
func HasReceiptAttachment(msg Message) bool {
	return SelectReceiptAttachment(msg) != nil
}

// SelectReceiptAttachment returns the first PDF attachment part of the
// message, or nil when there is none.
func SelectReceiptAttachment(msg Message) *MessagePart {
	for i := range msg.Parts {
		if msg.Parts[i].IsPDF() {
			return &msg.Parts[i]
		}
	}
	return nil
}

// FilterEligible retains messages that carry any attachment part at all.
// This is a coarse pre-filter; PDF selection happens per message via
// SelectReceiptAttachment.
func FilterEligible(msgs []Message) []Message {
	var eligible []Message
	for _, msg := range msgs {
		if len(msg.Parts) > 0 {
			eligible = append(eligible, msg)
		}
	}
	return eligible
}
