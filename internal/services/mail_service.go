package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/rs/zerolog/log"
)

var ErrMailNotConfigured = errors.New("mail delivery is not configured")

// Mailer delivers outgoing documents.
type Mailer interface {
	Send(ctx context.Context, msg *MailMessage) error
}

type MailMessage struct {
	To          []string
	Subject     string
	Text        string
	Attachments []MailAttachment
}

type MailAttachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type smtpMailer struct {
	host     string
	user     string
	password string
	from     string
	addr     string
}

// NewSMTPMailer sends through an SMTP relay with PLAIN auth. An empty host yields a
// mailer that refuses to send.
func NewSMTPMailer(host string, port int, user, password, from string) Mailer {
	if from == "" {
		from = user
	}
	return &smtpMailer{
		host:     host,
		user:     user,
		password: password,
		from:     from,
		addr:     fmt.Sprintf("%s:%d", host, port),
	}
}

func (m *smtpMailer) Send(ctx context.Context, msg *MailMessage) error {
	if m.host == "" {
		return ErrMailNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = m.from
	e.To = msg.To
	e.Subject = msg.Subject
	e.Text = []byte(msg.Text)

	for _, a := range msg.Attachments {
		if _, err := e.Attach(bytes.NewReader(a.Data), a.Filename, a.ContentType); err != nil {
			return fmt.Errorf("mailer: attach %s: %w", a.Filename, err)
		}
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	if err := e.Send(m.addr, auth); err != nil {
		return fmt.Errorf("mailer: send to %v: %w", msg.To, err)
	}

	log.Info().Strs("to", msg.To).Str("subject", msg.Subject).Msg("mail sent")
	return nil
}
