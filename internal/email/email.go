// Package email delivers the generated reports over SMTP: report mail with an
// HTML attachment, weekly HTML briefing, and the failure notification sent
// when a run dies.
package email

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"newsdive/internal/config"
	"newsdive/internal/logger"
)

// ErrNotConfigured is returned when SMTP credentials are missing; callers log
// and continue, delivery is optional.
var ErrNotConfigured = fmt.Errorf("email credentials not configured")

// sendFunc matches smtp.SendMail, injectable for tests.
type sendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// Sender delivers mail through the configured SMTP server.
type Sender struct {
	cfg  config.Email
	send sendFunc
}

// NewSender builds a sender from the email configuration.
func NewSender(cfg config.Email) *Sender {
	return &Sender{cfg: cfg, send: smtp.SendMail}
}

// Configured reports whether credentials and a recipient are present.
func (s *Sender) Configured() bool {
	return s.cfg.Username != "" && s.cfg.Password != "" && s.cfg.Recipient != ""
}

// SendWithAttachment sends a plain-text mail carrying one HTML attachment.
func (s *Sender) SendWithAttachment(subject, body, filename string, attachment []byte) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	msg := buildAttachmentMessage(s.from(), s.cfg.Recipient, subject, body, filename, attachment)
	return s.deliver(subject, msg)
}

// SendHTML sends a mail whose body is an HTML document.
func (s *Sender) SendHTML(subject, htmlBody string) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	msg := buildHTMLMessage(s.from(), s.cfg.Recipient, subject, htmlBody)
	return s.deliver(subject, msg)
}

// NotifyFailure sends the alert mail for a run that died with a terminal
// error. Best effort; a delivery failure is only logged.
func (s *Sender) NotifyFailure(runName string, runErr error) {
	if !s.Configured() {
		logger.Error("Cannot send failure notification, email credentials not configured", runErr, "run", runName)
		return
	}
	subject := fmt.Sprintf("RUN FAILURE: %s has failed", runName)
	body := fmt.Sprintf("The automated run %q encountered a critical error.\n\nError:\n---\n%v\n---\nPlease check logs.", runName, runErr)
	msg := buildPlainMessage(s.from(), s.cfg.Recipient, subject, body)
	if err := s.deliver(subject, msg); err != nil {
		logger.Error("Failed to send failure notification", err, "run", runName)
	}
}

func (s *Sender) from() string {
	return fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.Username)
}

func (s *Sender) deliver(subject string, msg []byte) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)

	logger.Info("Sending email", "to", s.cfg.Recipient, "subject", subject)
	if err := s.send(addr, auth, s.cfg.Username, []string{s.cfg.Recipient}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func headerBlock(from, to, subject string, extra ...string) []string {
	headers := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"MIME-Version: 1.0",
	}
	return append(headers, extra...)
}

func buildPlainMessage(from, to, subject, body string) []byte {
	lines := headerBlock(from, to, subject,
		`Content-Type: text/plain; charset="utf-8"`,
		"",
		body,
	)
	return []byte(strings.Join(lines, "\r\n"))
}

func buildHTMLMessage(from, to, subject, htmlBody string) []byte {
	lines := headerBlock(from, to, subject,
		`Content-Type: text/html; charset="utf-8"`,
		"",
		htmlBody,
	)
	return []byte(strings.Join(lines, "\r\n"))
}

func buildAttachmentMessage(from, to, subject, body, filename string, attachment []byte) []byte {
	const boundary = "newsdive-mixed-boundary"

	lines := headerBlock(from, to, subject,
		fmt.Sprintf(`Content-Type: multipart/mixed; boundary=%q`, boundary),
		"",
		"--"+boundary,
		`Content-Type: text/plain; charset="utf-8"`,
		"",
		body,
		"",
		"--"+boundary,
		fmt.Sprintf(`Content-Type: text/html; charset="utf-8"; name=%q`, filename),
		"Content-Transfer-Encoding: base64",
		fmt.Sprintf(`Content-Disposition: attachment; filename=%q`, filename),
		"",
		wrapBase64(attachment),
		"--"+boundary+"--",
	)
	return []byte(strings.Join(lines, "\r\n"))
}

// wrapBase64 encodes the payload at the 76-column line length mail transports
// expect.
func wrapBase64(data []byte) string {
	encoded := base64.StdEncoding.EncodeToString(data)
	var b strings.Builder
	for len(encoded) > 76 {
		b.WriteString(encoded[:76])
		b.WriteString("\r\n")
		encoded = encoded[76:]
	}
	b.WriteString(encoded)
	return b.String()
}
