package service

import (
	"brandlink/config"

	"gopkg.in/gomail.v2"
)

// MailService sends payout receipts over SMTP.
type MailService struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailService returns nil when SMTP is not configured.
func NewMailService(cfg config.SMTPConfig) *MailService {
	if cfg.Host == "" {
		return nil
	}
	return &MailService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *MailService) Send(to, subject, htmlBody string) error {
	if s == nil || to == "" {
		return nil
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)
	return s.dialer.DialAndSend(m)
}
