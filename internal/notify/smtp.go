package notify

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"aidigest/internal/config"
	"aidigest/internal/render"
)

const mimeBoundary = "aidigest-alt-boundary"

// SMTPNotifier delivers the digest as a multipart/alternative email with a
// plain-text and an HTML part.
type SMTPNotifier struct {
	cfg config.SMTPConfig
	// send is swappable for tests; defaults to smtp.SendMail, which
	// negotiates STARTTLS when the server offers it.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPNotifier builds a notifier from resolved SMTP settings.
func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail}
}

// Send implements Notifier. Delivery is all or nothing: the message is
// composed fully before any connection is made.
func (n *SMTPNotifier) Send(ctx context.Context, digest render.DigestResult, recipients []string) error {
	if strings.TrimSpace(n.cfg.Host) == "" || strings.TrimSpace(n.cfg.From) == "" {
		return fmt.Errorf("%w: smtp host and from address must be configured", ErrDeliveryFailed)
	}
	if len(recipients) == 0 {
		return fmt.Errorf("%w: no recipients configured", ErrDeliveryFailed)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	msg := n.compose(digest, recipients)
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	if err := n.send(addr, auth, n.cfg.From, recipients, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}

func (n *SMTPNotifier) compose(digest render.DigestResult, recipients []string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", digest.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", digest.GeneratedAt.Format("Mon, 02 Jan 2006 15:04:05 -0700"))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", mimeBoundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(crlf(digest.Body))
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	b.WriteString(crlf(digest.HTMLBody))
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", mimeBoundary)
	return []byte(b.String())
}

func crlf(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}
