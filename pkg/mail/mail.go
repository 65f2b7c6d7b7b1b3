package mail

import "context"

// Message is a fully rendered email ready for transport.
type Message struct {
	ToName   string
	ToEmail  string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mailer is any transport that can deliver a rendered message. The dispatcher
// only inspects success or failure.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
