// Package notify delivers due-reminder notifications over the email and
// chat transports. A failure on one channel never blocks the other, and
// nothing here retries: delivery problems are logged and reported back in
// the Result for the caller to inspect.
package notify

import (
	"fmt"
	"log"

	"github.com/pvolkov/remindly/internal/model"
)

// EmailSender delivers a plain-text email.
type EmailSender interface {
	Send(to, subject, body string) error
}

// ChatSender delivers a chat message to the channel-specific recipient id.
type ChatSender interface {
	Send(recipient, text string) error
}

// Result carries the per-channel outcome of one dispatch. A nil error
// means the hand-off to that transport succeeded.
type Result struct {
	EmailErr error
	ChatErr  error
}

// Dispatcher formats and sends a reminder's content to both transports.
type Dispatcher struct {
	email  EmailSender
	chat   ChatSender
	logger *log.Logger
}

// NewDispatcher creates a Dispatcher bound to the given transports.
func NewDispatcher(email EmailSender, chat ChatSender, logger *log.Logger) *Dispatcher {
	return &Dispatcher{email: email, chat: chat, logger: logger}
}

// Dispatch sends the reminder to the owner over both channels, one outbound
// call per transport. The reminder's User association must be loaded.
func (d *Dispatcher) Dispatch(r *model.Reminder) Result {
	res := Result{
		EmailErr: d.sendEmail(r),
		ChatErr:  d.sendChat(r),
	}
	if res.EmailErr != nil {
		d.logger.Printf("dispatch: reminder %d: email: %v", r.ID, res.EmailErr)
	}
	if res.ChatErr != nil {
		d.logger.Printf("dispatch: reminder %d: chat: %v", r.ID, res.ChatErr)
	}
	return res
}

func (d *Dispatcher) sendEmail(r *model.Reminder) error {
	to := r.User.Email
	if to == "" {
		return fmt.Errorf("user %d has no email address", r.UserID)
	}

	subject := "Reminder: " + r.Name
	body := fmt.Sprintf("Details: %s\nDate: %s\nTime: %s",
		r.Description, r.RemindDate, r.RemindTime)

	if err := d.email.Send(to, subject, body); err != nil {
		return err
	}
	d.logger.Printf("dispatch: reminder %d: email sent to %s", r.ID, to)
	return nil
}

func (d *Dispatcher) sendChat(r *model.Reminder) error {
	recipient := r.User.TelegramID
	if recipient == "" {
		return fmt.Errorf("user %d has no chat id", r.UserID)
	}

	text := fmt.Sprintf("Reminder: %s\n%s\nDate: %s\nTime: %s",
		r.Name, r.Description, r.RemindDate, r.RemindTime)

	if err := d.chat.Send(recipient, text); err != nil {
		return err
	}
	d.logger.Printf("dispatch: reminder %d: chat message sent", r.ID)
	return nil
}
