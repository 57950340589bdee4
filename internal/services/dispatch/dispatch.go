// Package dispatch renders match reports and delivers them by mail
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vaktpost/internal/platform/logger"
	"vaktpost/internal/services/monitor/domain"
)

// MailSender is the SMTP seam; satisfied by adapters/mail.Sender
type MailSender interface {
	Send(ctx context.Context, to []string, subject, htmlBody, textBody string) error
}

// Service implements the monitor's Dispatcher port
type Service struct {
	mail MailSender
	log  logger.Logger
	now  func() time.Time
}

// New constructs the dispatcher
func New(log logger.Logger, mail MailSender) *Service {
	if mail == nil {
		panic("dispatch.Service requires a mail sender")
	}
	return &Service{
		mail: mail,
		log:  log.With().Str("component", "dispatch").Logger(),
		now:  time.Now,
	}
}

// Deliver renders the report and mails it to the rule's recipients
// (comma-separated). An empty match set is a no-op
func (s *Service) Deliver(ctx context.Context, rule domain.Rule, matches []domain.Match) error {
	if len(matches) == 0 {
		return nil
	}
	at := s.now().UTC()

	html, err := RenderHTML(rule, matches, at)
	if err != nil {
		return err
	}
	text := RenderText(rule, matches, at)
	subject := fmt.Sprintf("Vaktpost: %d new %s for %q",
		len(matches), plural(len(matches)), rule.Name)

	to := recipients(rule.Recipient)
	if err := s.mail.Send(ctx, to, subject, html, text); err != nil {
		return err
	}
	s.log.Info().Str("rule", rule.Name).Int("matches", len(matches)).Msg("report dispatched")
	return nil
}

func plural(n int) string {
	if n == 1 {
		return "match"
	}
	return "matches"
}

func recipients(raw string) []string {
	var out []string
	for _, r := range strings.Split(raw, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
