package notifier

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/wneessen/go-mail"

	"github.com/julianstephens/habitcast/internal/constants"
	"github.com/julianstephens/habitcast/internal/errors"
	"github.com/julianstephens/habitcast/internal/logger"
)

// SMTPConfig holds the mail relay settings for failure notices.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
	UseTLS   bool
}

// Validate reports the first missing setting.
func (c SMTPConfig) Validate() error {
	switch {
	case c.Host == "":
		return errors.Missing("SMTP_HOST", "")
	case c.From == "":
		return errors.Missing("SMTP_FROM_ADDRESS", "")
	case c.To == "":
		return errors.Missing("SMTP_TO_ADDRESS", "")
	}
	return nil
}

func (c SMTPConfig) port() int {
	if c.Port == 0 {
		return constants.DefaultSMTPPort
	}
	return c.Port
}

// Notifier sends failure notices by e-mail.
type Notifier struct {
	cfg  SMTPConfig
	send func(cfg SMTPConfig, msg *mail.Msg) error
	now  func() time.Time
}

func New(cfg SMTPConfig) *Notifier {
	return &Notifier{cfg: cfg, send: sendMail, now: time.Now}
}

// Notify sends one message.
func (n *Notifier) Notify(subject, body string) error {
	if err := n.cfg.Validate(); err != nil {
		return err
	}
	msg, err := buildMessage(n.cfg, subject, body, n.now())
	if err != nil {
		return err
	}
	return n.send(n.cfg, msg)
}

// Failure reports cause by e-mail. Errors are logged and never returned.
func (n *Notifier) Failure(cause error) {
	if n == nil || cause == nil {
		return
	}

	if err := n.Notify(constants.FailureSubject, failureBody(cause)); err != nil {
		logger.Error("Failed to send failure e-mail", "error", err)
		return
	}
	logger.Info("Failure e-mail sent", "to", n.cfg.To)
}

// failureBody is the cause text cut to FailureBodyMaxSize bytes on a rune
// boundary.
func failureBody(cause error) string {
	body := cause.Error()
	if len(body) <= constants.FailureBodyMaxSize {
		return body
	}
	cut := constants.FailureBodyMaxSize
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + "\n[truncated]"
}

func buildMessage(cfg SMTPConfig, subject, body string, at time.Time) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(cfg.From); err != nil {
		return nil, fmt.Errorf("invalid SMTP_FROM_ADDRESS: %w", err)
	}
	if err := msg.To(cfg.To); err != nil {
		return nil, fmt.Errorf("invalid SMTP_TO_ADDRESS: %w", err)
	}
	msg.Subject(subject)
	msg.SetDateWithValue(at)
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func sendMail(cfg SMTPConfig, msg *mail.Msg) error {
	policy := mail.NoTLS
	if cfg.UseTLS {
		policy = mail.TLSMandatory
	}
	opts := []mail.Option{
		mail.WithPort(cfg.port()),
		mail.WithTLSPolicy(policy),
		mail.WithTimeout(constants.SMTPTimeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to configure SMTP client: %w", err)
	}
	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send via %s:%d: %w", cfg.Host, cfg.port(), err)
	}
	return nil
}
