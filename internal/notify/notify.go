// Package notify delivers a finished digest to its recipients.
package notify

import (
	"context"
	"errors"
	"log"

	"aidigest/internal/render"
)

// ErrDeliveryFailed marks a digest that was computed but could not be
// delivered. The digest itself remains valid.
var ErrDeliveryFailed = errors.New("delivery failed")

// Notifier accepts a rendered digest and delivers it.
type Notifier interface {
	Send(ctx context.Context, digest render.DigestResult, recipients []string) error
}

// LogNotifier writes the digest to a logger instead of delivering it. Used
// by preview and serve paths.
type LogNotifier struct {
	Logger *log.Logger
}

// Send implements Notifier.
func (n *LogNotifier) Send(_ context.Context, digest render.DigestResult, recipients []string) error {
	if n.Logger != nil {
		n.Logger.Printf("digest ready: subject=%q items=%d recipients=%d (not delivered)",
			digest.Subject, digest.ItemCount, len(recipients))
	}
	return nil
}
