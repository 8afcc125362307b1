package notify

import (
	"fmt"
	"strings"

	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// WhatsAppSender sends chat messages over WhatsApp via Twilio. It is the
// alternative chat transport, selected with CHAT_PROVIDER=whatsapp; the
// recipient is the user's phone number.
type WhatsAppSender struct {
	client *twilio.RestClient
	from   string
}

// NewWhatsAppSender creates a sender bound to the configured WhatsApp number.
func NewWhatsAppSender(accountSID, authToken, from string) *WhatsAppSender {
	return &WhatsAppSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{Username: accountSID, Password: authToken}),
		from:   from,
	}
}

// Send implements ChatSender.
func (w *WhatsAppSender) Send(recipient, text string) error {
	if w.client == nil {
		return fmt.Errorf("twilio client not initialised")
	}

	sender := normalizeWhatsAppAddress(w.from)
	if sender == "" {
		return fmt.Errorf("twilio sender WhatsApp number is not configured")
	}

	to := normalizeWhatsAppAddress(recipient)
	if to == "" {
		return fmt.Errorf("recipient number missing or invalid")
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(sender)
	params.SetBody(text)

	if _, err := w.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send message error: %w", err)
	}
	return nil
}

func normalizeWhatsAppAddress(number string) string {
	trimmed := strings.TrimSpace(number)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "whatsapp:") {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "+") {
		return "whatsapp:" + trimmed
	}
	return "whatsapp:+" + trimmed
}
