package services

import (
	"context"

	"github.com/arco-atelier/arco-api/config"
	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"
)

// EmailMessage is a single outgoing email
type EmailMessage struct {
	To      string
	Subject string
	Text    string
	HTML    string // optional alternative part
}

// Mailer sends transactional email
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// NewMailer returns an SMTP mailer when SMTP is configured and a log-only mailer otherwise
func NewMailer(cfg *config.Config, log *zap.Logger) Mailer {
	if !cfg.SMTPEnabled() {
		log.Info("SMTP not configured, emails will only be logged")
		return &LogMailer{log: log}
	}
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
		log:      log,
	}
}

// SMTPMailer delivers email through an SMTP relay
type SMTPMailer struct {
	host     string
	port     int
	user     string
	password string
	from     string
	log      *zap.Logger
}

func (s *SMTPMailer) Send(ctx context.Context, msg EmailMessage) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	d := gomail.NewDialer(s.host, s.port, s.user, s.password)
	d.SSL = s.port == 465
	if err := d.DialAndSend(m); err != nil {
		s.log.Error("Failed to send email", zap.String("to", msg.To), zap.Error(err))
		return err
	}

	s.log.Info("Email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// LogMailer only logs outgoing email
type LogMailer struct {
	log *zap.Logger
}

func (l *LogMailer) Send(ctx context.Context, msg EmailMessage) error {
	l.log.Info("Email (not sent)", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
