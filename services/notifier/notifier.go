// Package notifier delivers alert notifications over email.
package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Sender delivers a rendered notification to a single recipient.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender sends mail through a plain SMTP relay.
type SMTPSender struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPSender creates an SMTP sender. Host may be empty; Send then fails
// with a configuration error so callers can log and move on.
func NewSMTPSender(host, port, username, password, from string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if s.host == "" {
		return fmt.Errorf("smtp host not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := strings.Join([]string{
		"From: " + s.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")

	addr := s.host + ":" + s.port
	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}
	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

// RenderTrigger builds the subject and body for a triggered alert.
func RenderTrigger(target, condition string, threshold, current decimal.Decimal, at time.Time) (string, string) {
	direction := "above"
	if condition == "BELOW" {
		direction = "below"
	}
	subject := fmt.Sprintf("Alert triggered: %s is %s %s", target, direction, threshold.String())
	body := fmt.Sprintf(
		"Your alert for %s has been triggered.\n\n"+
			"Condition: %s %s\n"+
			"Current value: %s\n"+
			"Triggered at: %s\n\n"+
			"This alert is now inactive. Create a new alert to keep watching %s.\n",
		target,
		direction, threshold.String(),
		current.String(),
		at.UTC().Format(time.RFC3339),
		target,
	)
	return subject, body
}
