// Package mail is the outbound email collaborator.  Delivery is
// fire-and-forget: issuance flows hand a message off and move on, and a
// failed send is logged, never surfaced to the credential core.
package mail

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// Mailer delivers one message to one recipient.
type Mailer interface {
	Deliver(to, subject, body string) error
}

// SMTPMailer sends through a plain SMTP relay.
type SMTPMailer struct {
	Addr string // host:port
	From string
	Auth smtp.Auth // optional
}

func (m *SMTPMailer) Deliver(to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("mail: empty recipient")
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		m.From, to, subject, body)
	if err := smtp.SendMail(m.Addr, m.Auth, m.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("mail: send to %s: %w", to, err)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them.  Used in
// dev mode and tests.
type LogMailer struct {
	Logger *log.Logger
}

func (m *LogMailer) Deliver(to, subject, _ string) error {
	m.Logger.Printf("mail (not sent): to=%s subject=%q", to, subject)
	return nil
}
