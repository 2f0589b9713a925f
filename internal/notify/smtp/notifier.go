// Package smtp delivers run reports over plain SMTP.
package smtp

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Config captures SMTP connection and addressing parameters.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// To holds at most two recipients: the operator plus one fixed
	// extra recipient.
	To []string
}

// sendFunc matches smtp.SendMail, swappable for tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Notifier implements leads.Notifier over SMTP.
type Notifier struct {
	cfg  Config
	send sendFunc
}

// New creates an SMTP notifier.
func New(cfg Config) (*Notifier, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}
	if len(cfg.To) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &Notifier{cfg: cfg, send: smtp.SendMail}, nil
}

// Notify sends the report as a plain-text email. The caller treats
// failures as log-only.
func (n *Notifier) Notify(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	msg := buildMessage(n.cfg.From, n.cfg.To, subject, body)
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	if err := n.send(addr, auth, n.cfg.From, n.cfg.To, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func buildMessage(from string, to []string, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
