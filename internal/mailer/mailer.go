// Package mailer sends transactional mail. The SMTP implementation is
// deliberately small; when no SMTP address is configured the server falls
// back to logging the message instead.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/planhub/planhub/internal/logging"
)

// Mailer is the delivery contract services depend on.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer delivers mail through a plain SMTP endpoint.
type SMTPMailer struct {
	addr string
	from string
}

// NewSMTPMailer constructs a mailer for the given SMTP address ("host:port")
// and From header.
func NewSMTPMailer(addr, from string) *SMTPMailer {
	return &SMTPMailer{addr: addr, from: from}
}

// sendMail is a seam for testing smtp.SendMail.
var sendMail = smtp.SendMail

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	msg.WriteString(body)

	if err := sendMail(m.addr, nil, m.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogMailer writes the message to the log instead of sending it.
type LogMailer struct {
	logger logging.Logger
}

// NewLogMailer constructs a mailer that only logs.
func NewLogMailer(logger logging.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.Info(ctx, "mail not sent, no smtp configured", "to", to, "subject", subject, "body", body)
	return nil
}
