package mailer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"plantcam/internal/services"
)

const stageName = "send"

// TLS policies accepted by Options.TLS.
const (
	TLSMandatory     = "mandatory"
	TLSOpportunistic = "opportunistic"
	TLSNone          = "none"
)

// Options configures the SMTP connection.
type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	TLS      string
	Timeout  time.Duration
}

// Transport is the part of a go-mail client the sender needs.
type Transport interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Dialer builds a Transport for the given options.
type Dialer func(Options) (Transport, error)

// Option configures the sender.
type Option func(*SMTPSender)

// WithDialer swaps the transport factory (primarily for tests).
func WithDialer(dial Dialer) Option {
	return func(s *SMTPSender) {
		if dial != nil {
			s.dial = dial
		}
	}
}

// WithClock overrides the clock used for the Date header.
func WithClock(now func() time.Time) Option {
	return func(s *SMTPSender) {
		if now != nil {
			s.now = now
		}
	}
}

// SMTPSender sends messages through an SMTP relay.
type SMTPSender struct {
	opts Options
	dial Dialer
	now  func() time.Time
}

// NewSMTPSender validates opts and returns a sender.
func NewSMTPSender(opts Options, extra ...Option) (*SMTPSender, error) {
	opts.Host = strings.TrimSpace(opts.Host)
	if opts.Host == "" {
		return nil, errors.New("smtp host required")
	}
	if opts.Port <= 0 {
		return nil, fmt.Errorf("smtp port must be positive, got %d", opts.Port)
	}
	if opts.From == "" {
		opts.From = opts.Username
	}
	if _, err := tlsPolicy(opts.TLS); err != nil {
		return nil, err
	}
	sender := &SMTPSender{opts: opts, dial: dialSMTP, now: time.Now}
	for _, opt := range extra {
		opt(sender)
	}
	return sender, nil
}

// Send composes msg and delivers it within the configured timeout.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	composed, err := s.Compose(msg)
	if err != nil {
		return err
	}

	transport, err := s.dial(s.opts)
	if err != nil {
		return services.Wrap(services.ErrSend, stageName, "connect", s.endpoint(), err)
	}

	sendCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	if err := transport.DialAndSendWithContext(sendCtx, composed); err != nil {
		if errors.Is(sendCtx.Err(), context.DeadlineExceeded) {
			err = errors.Join(services.ErrTimeout, err)
		}
		return services.Wrap(services.ErrSend, stageName, "deliver", s.endpoint(), err)
	}
	return nil
}

// Compose builds the MIME message for msg without sending it.
func (s *SMTPSender) Compose(msg Message) (*mail.Msg, error) {
	if strings.TrimSpace(msg.Recipient) == "" {
		return nil, services.Wrap(services.ErrSend, stageName, "compose", "recipient required", nil)
	}
	info, err := os.Stat(msg.AttachmentPath)
	if err != nil {
		return nil, services.Wrap(services.ErrSend, stageName, "compose", "attachment unavailable", err)
	}
	if !info.Mode().IsRegular() {
		return nil, services.Wrap(services.ErrSend, stageName, "compose",
			fmt.Sprintf("attachment %s is not a regular file", msg.AttachmentPath), nil)
	}

	m := mail.NewMsg()
	if err := m.From(s.opts.From); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "compose", "invalid sender", err)
	}
	if err := m.To(msg.Recipient); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "compose", "invalid recipient", err)
	}
	m.Subject(msg.Subject)
	m.SetDateWithValue(s.now())
	m.SetMessageID()
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	m.AttachFile(msg.AttachmentPath, mail.WithFileName(filepath.Base(msg.AttachmentPath)))
	return m, nil
}

func (s *SMTPSender) endpoint() string {
	return fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
}

func dialSMTP(opts Options) (Transport, error) {
	return newClient(opts)
}

// newClient keeps the configured port as-is; the TLS policy never rewrites it.
func newClient(opts Options) (*mail.Client, error) {
	policy, err := tlsPolicy(opts.TLS)
	if err != nil {
		return nil, err
	}
	clientOpts := []mail.Option{
		mail.WithPort(opts.Port),
		mail.WithTLSPolicy(policy),
	}
	if opts.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(authMechanism(policy)),
			mail.WithUsername(opts.Username),
			mail.WithPassword(opts.Password),
		)
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, mail.WithTimeout(opts.Timeout))
	}
	return mail.NewClient(opts.Host, clientOpts...)
}

// authMechanism picks PLAIN, which go-mail refuses over a cleartext link
// unless the NoEnc variant is requested.
func authMechanism(policy mail.TLSPolicy) mail.SMTPAuthType {
	if policy == mail.NoTLS {
		return mail.SMTPAuthPlainNoEnc
	}
	return mail.SMTPAuthPlain
}

func tlsPolicy(value string) (mail.TLSPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", TLSMandatory:
		return mail.TLSMandatory, nil
	case TLSOpportunistic:
		return mail.TLSOpportunistic, nil
	case TLSNone:
		return mail.NoTLS, nil
	default:
		return mail.TLSMandatory, services.Wrap(services.ErrConfiguration, stageName, "tls",
			fmt.Sprintf("unsupported policy %q", value), nil)
	}
}
