package notify

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
)

// Notifier delivers one message from a sender number to a recipient number.
type Notifier interface {
	Send(ctx context.Context, to, from, body string) error
}

// Fanout delivers the same message to every recipient. Delivery is
// best-effort per recipient: one failure never blocks the remaining sends.
// The combined error carries every failed recipient.
func Fanout(ctx context.Context, n Notifier, recipients []string, from, body string) error {
	var errs error
	for _, to := range recipients {
		if to == "" {
			continue
		}
		if err := n.Send(ctx, to, from, body); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("send to %s: %w", to, err))
		}
	}
	return errs
}
