// Package mailer delivers transactional email over SMTP. Failed sends land
// in a bounded in-memory ledger that system operators can inspect and retry;
// there is no background delivery loop.
package mailer

import (
	"fmt"
	"log"
	"sync"
	"time"

	mail "github.com/go-mail/mail/v2"
)

// maxFailed bounds the failed-send ledger; the oldest entry is dropped first.
const maxFailed = 100

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	BaseURL  string
}

// FailedSend records one delivery failure.
type FailedSend struct {
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"-"`
	Error   string    `json:"error"`
	At      time.Time `json:"at"`
}

type Mailer struct {
	cfg    Config
	sendFn func(to, subject, html string) error

	mu     sync.Mutex
	failed []FailedSend
}

func New(cfg Config) *Mailer {
	m := &Mailer{cfg: cfg}
	dialer := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	m.sendFn = func(to, subject, html string) error {
		msg := mail.NewMessage()
		msg.SetHeader("From", cfg.From)
		msg.SetHeader("To", to)
		msg.SetHeader("Subject", subject)
		msg.SetBody("text/html", html)
		return dialer.DialAndSend(msg)
	}
	return m
}

// Configured reports whether SMTP settings are present. An unconfigured
// mailer records every send as failed instead of attempting delivery.
func (m *Mailer) Configured() bool {
	return m.cfg.Host != "" && m.cfg.Username != "" && m.cfg.Password != ""
}

// Send delivers one HTML email synchronously. Failures are recorded in the
// ledger and returned.
func (m *Mailer) Send(to, subject, html string) error {
	if !m.Configured() {
		log.Println("Email settings not configured. Email not sent.")
		m.record(to, subject, html, "email settings not configured")
		return fmt.Errorf("email settings not configured")
	}
	if err := m.sendFn(to, subject, html); err != nil {
		log.Printf("Failed to send email to %s: %v", to, err)
		m.record(to, subject, html, err.Error())
		return err
	}
	return nil
}

// SendVerificationEmail emails a one-time email verification link.
func (m *Mailer) SendVerificationEmail(to, token string) error {
	verifyURL := m.cfg.BaseURL + "/verify-email?token=" + token
	html := fmt.Sprintf(`<html><body>
<h2>Welcome to Great Reads!</h2>
<p>Thank you for registering. Please verify your email address by clicking the link below:</p>
<p><a href="%s">Verify Email Address</a></p>
<p>This link will expire in 24 hours.</p>
<p>If you did not create an account, you can safely ignore this email.</p>
</body></html>`, verifyURL)
	return m.Send(to, "Verify Your Great Reads Account", html)
}

// SendPasswordResetEmail emails a one-time password reset link.
func (m *Mailer) SendPasswordResetEmail(to, token string) error {
	resetURL := m.cfg.BaseURL + "/reset-password?token=" + token
	html := fmt.Sprintf(`<html><body>
<h2>Password Reset Request</h2>
<p>We received a request to reset your password. Click the link below to create a new password:</p>
<p><a href="%s">Reset Password</a></p>
<p>This link will expire in 1 hour.</p>
<p>If you did not request a password reset, you can safely ignore this email.</p>
</body></html>`, resetURL)
	return m.Send(to, "Reset Your Great Reads Password", html)
}

func (m *Mailer) record(to, subject, body, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed = append(m.failed, FailedSend{
		To:      to,
		Subject: subject,
		Body:    body,
		Error:   errMsg,
		At:      time.Now().UTC(),
	})
	if len(m.failed) > maxFailed {
		m.failed = m.failed[len(m.failed)-maxFailed:]
	}
}

// Failed returns a copy of the failed-send ledger.
func (m *Mailer) Failed() []FailedSend {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]FailedSend, len(m.failed))
	copy(out, m.failed)
	return out
}

// RetryFailed re-attempts every ledger entry synchronously. Entries that
// fail again stay in the ledger. Returns how many were sent and how many
// remain.
func (m *Mailer) RetryFailed() (sent, remaining int) {
	m.mu.Lock()
	pending := m.failed
	m.failed = nil
	m.mu.Unlock()

	if !m.Configured() {
		m.mu.Lock()
		m.failed = pending
		m.mu.Unlock()
		return 0, len(pending)
	}

	for _, f := range pending {
		if err := m.sendFn(f.To, f.Subject, f.Body); err != nil {
			m.record(f.To, f.Subject, f.Body, err.Error())
			continue
		}
		sent++
	}

	m.mu.Lock()
	remaining = len(m.failed)
	m.mu.Unlock()
	return sent, remaining
}

// ClearFailed drops the ledger.
func (m *Mailer) ClearFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed = nil
}
