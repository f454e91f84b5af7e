// Package mailer sends outbound notification email over SMTP. Delivery is
// fire-and-forget relative to the triggering request: failures are logged,
// never surfaced to the end user, so responses do not leak whether an
// address has an account.
package mailer

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"

	"filehost/internal/config"
)

type Mailer struct {
	cfg    config.Email
	domain string
	logger *slog.Logger
}

func New(cfg config.Email, domain string, logger *slog.Logger) *Mailer {
	return &Mailer{cfg: cfg, domain: domain, logger: logger}
}

// SendResetCode mails a password-reset code. It returns immediately;
// delivery runs in its own goroutine.
func (m *Mailer) SendResetCode(recipient, code string) {
	subject := "Password reset"
	body := fmt.Sprintf(
		"A password reset was requested for your account on %s.\n\n"+
			"Your reset code is: %s\n\n"+
			"If you did not request this, you can ignore this email.\n",
		m.domain, code,
	)
	go func() {
		if err := m.send(recipient, subject, body); err != nil {
			m.logger.Error("email delivery failed", "recipient", recipient, "subject", subject, "error", err)
			return
		}
		m.logger.Info("email delivered", "recipient", recipient, "subject", subject)
	}()
}

func (m *Mailer) send(recipient, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	msg := []byte("From: " + m.cfg.User + "\r\n" +
		"To: " + recipient + "\r\n" +
		"Subject: " + subject + "\r\n\r\n" +
		body + "\r\n")
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)

	if !m.cfg.Secure {
		return smtp.SendMail(addr, auth, m.cfg.User, []string{recipient}, msg)
	}

	// Implicit TLS (SMTPS); STARTTLS is not attempted.
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.cfg.Host})
	if err != nil {
		return err
	}
	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(m.cfg.User); err != nil {
		return err
	}
	if err := client.Rcpt(recipient); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
