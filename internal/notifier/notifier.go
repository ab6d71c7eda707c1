// Package notifier delivers alerts over Telegram, email and webhooks.
package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"TradeScout/internal/metrics"
)

// Notifier delivers a formatted message to one channel.
type Notifier interface {
	Send(ctx context.Context, text string) error
	Name() string
}

// Multi fans a message out to every channel. One failing channel does not
// stop the others.
type Multi struct {
	Channels []Notifier
	Log      zerolog.Logger
	Metrics  *metrics.Recorder
}

func (m *Multi) Name() string { return "multi" }

// Send delivers text to all channels and joins their errors.
func (m *Multi) Send(ctx context.Context, text string) error {
	var errs []error
	for _, ch := range m.Channels {
		err := ch.Send(ctx, text)
		m.Metrics.Notification(ch.Name(), err)
		if err != nil {
			m.Log.Error().Err(err).Str("channel", ch.Name()).Msg("notification failed")
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of configured channels.
func (m *Multi) Len() int { return len(m.Channels) }
