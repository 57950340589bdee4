// Package mail sends report emails over SMTP
package mail

import (
	"context"

	gomail "github.com/wneessen/go-mail"

	perr "vaktpost/internal/platform/errors"
	"vaktpost/internal/platform/logger"
	pstrings "vaktpost/internal/platform/strings"
)

// Config carries SMTP connection settings
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// StartTLS opportunistically upgrades the connection; mandatory TLS
	// otherwise
	StartTLS bool
}

// Sender delivers rendered reports
type Sender struct {
	cfg Config
	log logger.Logger
}

// New builds a Sender. Host and From are programmer-mandatory; the cmd
// layer resolves them from env before we get here
func New(log logger.Logger, cfg Config) *Sender {
	pstrings.MustString(cfg.Host, "smtp host")
	pstrings.MustString(cfg.From, "smtp from address")
	return &Sender{cfg: cfg, log: log.With().Str("component", "mail").Logger()}
}

// Send delivers an HTML report with a plain-text alternative to the
// recipients. Delivery failures surface as unavailable so callers can retry
func (s *Sender) Send(ctx context.Context, to []string, subject, htmlBody, textBody string) error {
	if len(to) == 0 {
		return perr.InvalidArgf("no recipients")
	}

	msg := gomail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return perr.InvalidArgf("sender address %q: %v", s.cfg.From, err)
	}
	if err := msg.To(to...); err != nil {
		return perr.InvalidArgf("recipient addresses %v: %v", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, textBody)
	if htmlBody != "" {
		msg.AddAlternativeString(gomail.TypeTextHTML, htmlBody)
	}

	policy := gomail.TLSMandatory
	if s.cfg.StartTLS {
		policy = gomail.TLSOpportunistic
	}
	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithTLSPortPolicy(policy),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}

	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return perr.Unavailablef("smtp client for %s: %v", s.cfg.Host, err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return perr.Unavailablef("send report to %v: %v", to, err)
	}
	s.log.Info().Strs("to", to).Str("subject", subject).Msg("report delivered")
	return nil
}
