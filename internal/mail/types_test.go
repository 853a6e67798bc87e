package mail

import (
	"testing"
)

func TestMailboxStatusLatest(t *testing.T) {
	tests := []struct {
		name        string
		numMessages uint32
		n           uint32
		wantSet     string
		wantOK      bool
	}{
		{
			name:        "fewer messages than requested",
			numMessages: 3,
			n:           10,
			wantSet:     "1:3",
			wantOK:      true,
		},
		{
			name:        "more messages than requested",
			numMessages: 100,
			n:           10,
			wantSet:     "91:100",
			wantOK:      true,
		},
		{
			name:        "exactly as many",
			numMessages: 10,
			n:           10,
			wantSet:     "1:10",
			wantOK:      true,
		},
		{
			name:        "single message",
			numMessages: 1,
			n:           1,
			wantSet:     "1",
			wantOK:      true,
		},
		{
			name:        "empty mailbox",
			numMessages: 0,
			n:           10,
			wantOK:      false,
		},
		{
			name:        "zero requested",
			numMessages: 5,
			n:           0,
			wantOK:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := MailboxStatus{Name: "Receipts", NumMessages: tt.numMessages}

			set, ok := status.Latest(tt.n)
			if ok != tt.wantOK {
				t.Fatalf("Latest(%d) ok = %v, want %v", tt.n, ok, tt.wantOK)
			}
			if !tt.wantOK {
				return
			}
			if got := set.String(); got != tt.wantSet {
				t.Errorf("Latest(%d) = %q, want %q", tt.n, got, tt.wantSet)
			}
		})
	}
}
