package notify

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// SMTPSender sends plain-text mail through an SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender creates an SMTPSender bound to the configured relay.
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Send implements EmailSender.
func (s *SMTPSender) Send(to, subject, body string) error {
	if s.from == "" {
		return fmt.Errorf("smtp sender address is not configured")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}
