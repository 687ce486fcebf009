// Package mailer sends generated workbooks as email attachments over SMTP.
package mailer

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/JonMunkholm/geradorclientes/internal/config"
	"github.com/JonMunkholm/geradorclientes/internal/logging"
	"github.com/JonMunkholm/geradorclientes/internal/metrics"
	"github.com/JonMunkholm/geradorclientes/internal/spreadsheet"
	"github.com/wneessen/go-mail"
)

// Message constants.
const (
	Subject       = "[GeradorDeClientes] - Dados Gerados"
	DefaultSender = "noreply@example.com"
	placeholder   = "smtp.example.com"
	implicitTLS   = 465
)

const body = "Segue em anexo o arquivo gerado pelo GeradorDeClientes.\n\n" +
	"Obrigado."

// Settings is the SMTP configuration.
type Settings struct {
	Host        string
	Port        int
	User        string
	Pass        string
	EnableSSL   bool
	ForcePickup bool
	From        string
	Timeout     time.Duration
}

// FromConfig copies the SMTP section of the app config.
func FromConfig(c config.SMTPConfig) Settings {
	return Settings{
		Host:        c.Host,
		Port:        c.Port,
		User:        c.User,
		Pass:        c.Pass,
		EnableSSL:   c.EnableSSL,
		ForcePickup: c.ForcePickup,
		From:        c.From,
		Timeout:     c.Timeout,
	}
}

// LooksValid reports whether the settings could plausibly reach a server:
// a real host (not the sample placeholder), a positive port and credentials.
func (s Settings) LooksValid() bool {
	return s.Host != "" &&
		!strings.EqualFold(s.Host, placeholder) &&
		s.Port > 0 &&
		s.User != "" &&
		s.Pass != ""
}

// Security is the transport mode used for a connection.
type Security int

const (
	SecurityNone Security = iota
	SecurityImplicitTLS
	SecuritySTARTTLS
)

func (s Security) String() string {
	switch s {
	case SecurityImplicitTLS:
		return "tls"
	case SecuritySTARTTLS:
		return "starttls"
	default:
		return "none"
	}
}

// Security derives the transport mode from EnableSSL and the port.
func (s Settings) Security() Security {
	switch {
	case !s.EnableSSL:
		return SecurityNone
	case s.Port == implicitTLS:
		return SecurityImplicitTLS
	default:
		return SecuritySTARTTLS
	}
}

func (s Settings) sender() string {
	switch {
	case s.From != "":
		return s.From
	case s.User != "":
		return s.User
	default:
		return DefaultSender
	}
}

// Sender delivers built messages. *mail.Client satisfies it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// DialFunc builds a Sender for the settings.
type DialFunc func(Settings) (Sender, error)

// Mailer sends attachment emails.
type Mailer struct {
	settings Settings
	dial     DialFunc
}

// New creates a Mailer using go-mail's SMTP client.
func New(s Settings) *Mailer {
	return &Mailer{settings: s, dial: Dial}
}

// NewWithDialer creates a Mailer with a custom transport.
func NewWithDialer(s Settings, dial DialFunc) *Mailer {
	return &Mailer{settings: s, dial: dial}
}

// Settings returns the mailer's configuration.
func (m *Mailer) Settings() Settings { return m.settings }

// Dial builds a go-mail client honoring the settings' security mode and timeout.
func Dial(s Settings) (Sender, error) {
	opts := []mail.Option{
		mail.WithPort(s.Port),
		mail.WithTimeout(s.Timeout),
	}

	// PLAIN refuses cleartext to non-local hosts, so the no-TLS mode needs
	// the NoEnc variant to authenticate at all.
	auth := mail.SMTPAuthPlain
	switch s.Security() {
	case SecurityImplicitTLS:
		opts = append(opts, mail.WithSSL())
	case SecuritySTARTTLS:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
		auth = mail.SMTPAuthPlainNoEnc
	}

	if s.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(auth),
			mail.WithUsername(s.User),
			mail.WithPassword(s.Pass),
		)
	}

	c, err := mail.NewClient(s.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return c, nil
}

// SendWithAttachment mails filePath to toEmail as fileName. It returns true
// only when the server accepted the message. Attachment problems are logged
// and the message goes out without it. Invalid settings or ForcePickup
// return false without touching the network. Errors are never returned.
func (m *Mailer) SendWithAttachment(ctx context.Context, filePath, fileName, toEmail string) bool {
	log := logging.WithFields(ctx, "to", toEmail, "file", fileName)

	msg, err := m.build(ctx, filePath, fileName, toEmail)
	if err != nil {
		log.Warn("email not built", "error", err)
		metrics.RecordEmail(metrics.EmailFailed)
		return false
	}

	if !m.settings.LooksValid() || m.settings.ForcePickup {
		log.Info("email delivery skipped",
			"smtp_valid", m.settings.LooksValid(),
			"force_pickup", m.settings.ForcePickup,
		)
		metrics.RecordEmail(metrics.EmailSkipped)
		return false
	}

	client, err := m.dial(m.settings)
	if err != nil {
		log.Warn("smtp setup failed", "error", err)
		metrics.RecordEmail(metrics.EmailFailed)
		return false
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		log.Warn("smtp send failed",
			"host", m.settings.Host,
			"port", m.settings.Port,
			"security", m.settings.Security().String(),
			"error", err,
		)
		metrics.RecordEmail(metrics.EmailFailed)
		return false
	}

	log.Info("email sent", "host", m.settings.Host)
	metrics.RecordEmail(metrics.EmailSent)
	return true
}

func (m *Mailer) build(ctx context.Context, filePath, fileName, toEmail string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.settings.sender()); err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	if err := msg.To(strings.TrimSpace(toEmail)); err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}
	msg.Subject(Subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := attach(msg, filePath, fileName); err != nil {
		logging.FromContext(ctx).Warn("attachment skipped", "file", filePath, "error", err)
	}
	return msg, nil
}

func attach(msg *mail.Msg, filePath, fileName string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	return msg.AttachReader(fileName, f,
		mail.WithFileContentType(mail.ContentType(spreadsheet.ContentType)))
}
