// Package notify is the outbound email collaborator. The core calls it
// fire-and-forget: dispatch outcomes are logged, never surfaced to the
// request that triggered them.
package notify

import (
	"context"
	"log"
)

// Mailer sends a single message. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes messages to the process log instead of a transport.
// Used in development and as the default when no SMTP relay is configured.
type LogMailer struct{}

// Send logs the message.
func (LogMailer) Send(_ context.Context, to, subject, _ string) error {
	log.Printf("mail: to=%s subject=%q", to, subject)
	return nil
}

// Dispatch sends in a background goroutine so the caller's request is
// never blocked or failed by the mail transport.
func Dispatch(m Mailer, to, subject, body string) {
	if m == nil {
		return
	}
	go func() {
		if err := m.Send(context.Background(), to, subject, body); err != nil {
			log.Printf("mail: send to %s failed: %v", to, err)
		}
	}()
}
