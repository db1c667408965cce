package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/dmelgar/fintrack/internal/config"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendPaymentReminder sends a loan payment reminder email
func (s *Sender) SendPaymentReminder(to, username, loanName string, paymentDate time.Time, amount decimal.Decimal, isOverdue bool) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	if isOverdue {
		e.Subject = "Cuota de préstamo vencida"
	} else {
		e.Subject = "Recordatorio de pago de préstamo"
	}

	body := fmt.Sprintf("Hola %s,\n\n", username)
	if isOverdue {
		body += fmt.Sprintf(
			"La cuota de S/ %s de tu préstamo %q venció el %s.\n"+
				"Realiza el pago lo antes posible para evitar intereses moratorios.\n",
			amount.StringFixed(2), loanName, paymentDate.Format("2006-01-02"),
		)
	} else {
		body += fmt.Sprintf(
			"Te recordamos que la cuota de S/ %s de tu préstamo %q vence el %s.\n"+
				"Asegúrate de tener fondos disponibles.\n",
			amount.StringFixed(2), loanName, paymentDate.Format("2006-01-02"),
		)
	}
	body += "\nSaludos,\nFintrack"
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
