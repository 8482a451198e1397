// Package notify sends the staff notification and customer
// confirmation emails for a lead over SMTP.
package notify

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bettercallhenk/hochzeitsanzug-landing/internal/model"
)

// Config holds the outbound mail settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Staff    []string // staff notification recipients
}

// sendFunc delivers one assembled message. Swapped out in tests.
type sendFunc func(addr, host string, auth smtp.Auth, from string, to []string, msg []byte) error

// Mailer implements the notification contract. All failures are
// absorbed and logged; callers only learn whether the staff
// notification went out.
type Mailer struct {
	cfg  Config
	send sendFunc
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithSendFunc replaces the SMTP delivery function (for testing).
func WithSendFunc(fn sendFunc) Option {
	return func(m *Mailer) {
		m.send = fn
	}
}

// NewMailer creates a Mailer. An incomplete Config is allowed; Notify
// then degrades to a logged no-op.
func NewMailer(cfg Config, opts ...Option) *Mailer {
	m := &Mailer{
		cfg:  cfg,
		send: sendSMTP,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Configured reports whether enough mail settings exist to send.
func (m *Mailer) Configured() bool {
	return m.cfg.Host != "" && m.cfg.From != "" && len(m.cfg.Staff) > 0
}

// Notify sends the staff notification for a lead and, on the
// non-fallback path, a confirmation to the customer. Returns whether
// the staff notification was delivered. A failed confirmation is
// logged but does not invalidate the lead.
func (m *Mailer) Notify(lead model.Lead, fallback bool) bool {
	if !m.Configured() {
		zap.L().Warn("mail transport unconfigured, skipping notification",
			zap.String("reference", lead.Reference),
			zap.Bool("fallback", fallback),
		)
		return false
	}

	staffMsg := buildStaffMessage(m.cfg.From, m.cfg.Staff, lead, fallback)
	if err := m.deliver(m.cfg.Staff, staffMsg); err != nil {
		zap.L().Error("staff notification failed",
			zap.String("reference", lead.Reference),
			zap.Bool("fallback", fallback),
			zap.Error(err),
		)
		return false
	}
	zap.L().Info("staff notification sent",
		zap.String("reference", lead.Reference),
		zap.Bool("fallback", fallback),
	)

	if !fallback {
		confirmMsg := buildConfirmationMessage(m.cfg.From, lead)
		if err := m.deliver([]string{lead.Email}, confirmMsg); err != nil {
			zap.L().Warn("customer confirmation failed",
				zap.String("reference", lead.Reference),
				zap.String("email", lead.Email),
				zap.Error(err),
			)
		}
	}

	return true
}

func (m *Mailer) deliver(to []string, msg []byte) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = loginAuth(m.cfg.User, m.cfg.Password)
	}

	return m.send(addr, m.cfg.Host, auth, m.cfg.From, to, msg)
}

// sendSMTP delivers via STARTTLS with bounded dial and session
// deadlines so a stuck mail server cannot stall the handler.
func sendSMTP(addr, host string, auth smtp.Auth, from string, to []string, msg []byte) error {
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return eris.Wrap(err, "smtp: dial")
	}
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return eris.Wrap(err, "smtp: set deadline")
	}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return eris.Wrap(err, "smtp: handshake")
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return eris.Wrap(err, "smtp: starttls")
		}
	}
	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return eris.Wrap(err, "smtp: auth")
		}
	}

	if err := c.Mail(from); err != nil {
		return eris.Wrap(err, "smtp: mail from")
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return eris.Wrap(err, fmt.Sprintf("smtp: rcpt %s", rcpt))
		}
	}

	w, err := c.Data()
	if err != nil {
		return eris.Wrap(err, "smtp: data")
	}
	if _, err := w.Write(msg); err != nil {
		return eris.Wrap(err, "smtp: write body")
	}
	if err := w.Close(); err != nil {
		return eris.Wrap(err, "smtp: close body")
	}

	return c.Quit()
}
