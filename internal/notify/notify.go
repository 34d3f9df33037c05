// Package notify sends account and trade notifications by email.
package notify

import (
	"fmt"      // Error wrapping
	"net/smtp" // SMTP authentication
	"strings"  // String manipulation

	"mock_trading/internal/config" // Configuration
	"mock_trading/internal/domain" // Domain models

	"github.com/jordan-wright/email" // Email composition and sending
	"github.com/sirupsen/logrus"     // Logrus for structured logging
)

// Notifier delivers user facing notifications. Delivery is best effort:
// callers log failures and carry on.
type Notifier interface {
	Welcome(user domain.User) error
	TradeConfirmation(user domain.User, trade domain.Trade, balance string) error
}

// Nop drops every notification. It is used when SMTP is not configured.
type Nop struct{}

func (Nop) Welcome(domain.User) error                                 { return nil }
func (Nop) TradeConfirmation(domain.User, domain.Trade, string) error { return nil }

// sendFunc matches (*email.Email).Send so tests can capture messages.
type sendFunc func(e *email.Email, addr string, auth smtp.Auth) error

// Mailer sends notifications through an SMTP server.
type Mailer struct {
	from string
	addr string
	auth smtp.Auth
	send sendFunc
	log  logrus.FieldLogger
}

// New returns a Mailer when SMTP is configured and Nop otherwise.
func New(cfg *config.Config, log logrus.FieldLogger) Notifier {
	if cfg.SMTPHost == "" {
		return Nop{}
	}
	var auth smtp.Auth
	if cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return &Mailer{
		from: cfg.MailFrom,
		addr: fmt.Sprintf("%s:%s", cfg.SMTPHost, cfg.SMTPPort),
		auth: auth,
		send: func(e *email.Email, addr string, auth smtp.Auth) error { return e.Send(addr, auth) },
		log:  log,
	}
}

// Welcome greets a newly registered user.
func (m *Mailer) Welcome(user domain.User) error {
	body := fmt.Sprintf("Dear %s,\n\n"+
		"Your Mock Trading Platform account is ready.\n"+
		"Your starting balance is %s.\n"+
		"\nHappy trading,\nMock Trading Platform", user.Username, domain.FormatMoney(user.Balance))
	return m.deliver(user.Email, "Welcome to the Mock Trading Platform", body)
}

// TradeConfirmation reports an executed trade and the resulting balance.
func (m *Mailer) TradeConfirmation(user domain.User, trade domain.Trade, balance string) error {
	verb := "bought" // Past tense of the side
	if trade.Side == domain.Sell {
		verb = "sold"
	}
	body := fmt.Sprintf("Dear %s,\n\n"+
		"You %s %d shares of %s at %s for a total of %s.\n"+
		"Your balance is now %s.\n"+
		"\nMock Trading Platform", user.Username, verb, trade.Quantity, trade.Symbol,
		domain.FormatMoney(trade.Price), domain.FormatMoney(trade.Total), balance)
	subject := fmt.Sprintf("Trade confirmation: %s %s", strings.ToUpper(string(trade.Side)), trade.Symbol)
	return m.deliver(user.Email, subject, body)
}

func (m *Mailer) deliver(to, subject, body string) error {
	e := email.NewEmail() // Compose a plain text message
	e.From = m.from       // Configured sender
	e.To = []string{to}   // Single recipient
	e.Subject = subject   // Subject line
	e.Text = []byte(body) // Plain text body
	if err := m.send(e, m.addr, m.auth); err != nil {
		m.log.WithFields(logrus.Fields{"to": to, "subject": subject, "error": err.Error()}).Error("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}
	m.log.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("Email sent")
	return nil
}
