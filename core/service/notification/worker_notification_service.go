package notification

import (
	"context"
	"errors"
	"fmt"

	"draft_worker/core/domain"
	"draft_worker/core/port/out"

	"github.com/rs/zerolog"
)

// Service fans a notification out to every configured channel.
type Service struct {
	channels []out.Notifier
	log      zerolog.Logger
}

// NewService creates a notification service. Nil channels are skipped.
func NewService(log zerolog.Logger, channels ...out.Notifier) *Service {
	s := &Service{log: log}
	for _, ch := range channels {
		if ch != nil {
			s.channels = append(s.channels, ch)
		}
	}
	return s
}

// Channels returns the names of the configured channels.
func (s *Service) Channels() []string {
	names := make([]string, len(s.channels))
	for i, ch := range s.channels {
		names[i] = ch.Name()
	}
	return names
}

// Send delivers n on every channel. A failing channel does not stop the others;
// the failures are returned joined.
func (s *Service) Send(ctx context.Context, n *domain.Notification) error {
	var errs []error
	for _, ch := range s.channels {
		if err := ch.Notify(ctx, n); err != nil {
			s.log.Warn().Err(err).Str("channel", ch.Name()).Msg("notification failed")
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
			continue
		}
		s.log.Debug().Str("channel", ch.Name()).Str("subject", n.Subject).Msg("notification sent")
	}
	return errors.Join(errs...)
}

// MailChannel sends notifications through the intake mailbox.
type MailChannel struct {
	mailbox out.Mailbox
	to      string
}

// NewMailChannel creates a mail channel. An empty to sends to the mailbox's own address.
func NewMailChannel(mailbox out.Mailbox, to string) *MailChannel {
	return &MailChannel{mailbox: mailbox, to: to}
}

func (c *MailChannel) Name() string { return "email" }

func (c *MailChannel) Notify(ctx context.Context, n *domain.Notification) error {
	to := c.to
	if to == "" {
		addr, err := c.mailbox.Address(ctx)
		if err != nil {
			return fmt.Errorf("resolve notify address: %w", err)
		}
		c.to, to = addr, addr
	}

	msg := &out.OutgoingMail{
		To:       to,
		Subject:  n.Subject,
		TextBody: n.Text,
		HTMLBody: n.HTML,
	}
	if n.Image != nil {
		msg.Attachments = []domain.Attachment{*n.Image}
	}
	return c.mailbox.Send(ctx, msg)
}
