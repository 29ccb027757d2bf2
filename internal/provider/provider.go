package provider

import "context"

// Channel names an outbound delivery channel.
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelSMS      Channel = "sms"
	ChannelEmail    Channel = "email"
)

func (c Channel) String() string { return string(c) }

// MaxSMSBody is the hard body limit enforced for the SMS channel (in runes).
const MaxSMSBody = 160

// MessageSender delivers a text body to a phone number in international format.
type MessageSender interface {
	Send(ctx context.Context, to string, body string) (*SendResult, error)
}

// EmailSender delivers one email.
type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) (*SendResult, error)
}

// SendResult stores provider call metadata for audit.
type SendResult struct {
	StatusCode int
	MessageID  string
}

type EmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type EmailMessage struct {
	To      EmailAddress
	ReplyTo *EmailAddress
	Subject string
	Text    string
	HTML    string
	// Categories tag the message in the provider dashboard.
	Categories []string
}
