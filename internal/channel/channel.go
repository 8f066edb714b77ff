// Package channel hosts the operator-facing surfaces: the local web
// dashboard and the optional Telegram line to the assistant.
package channel

import (
	"context"

	"github.com/lumenedu/schooldesk/internal/bus"
)

// Channel is one operator-facing surface wired to the message bus.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
	Send(msg bus.OutboundMessage) error
}

// BaseChannel carries the pieces every channel shares.
type BaseChannel struct {
	name      string
	bus       *bus.MessageBus
	allowFrom []string
}

func NewBaseChannel(name string, b *bus.MessageBus, allowFrom []string) BaseChannel {
	return BaseChannel{name: name, bus: b, allowFrom: allowFrom}
}

func (c *BaseChannel) Name() string {
	return c.name
}

// IsAllowed applies the channel's sender allow-list. An empty list
// allows everyone (single-tenant deployment on a trusted host).
func (c *BaseChannel) IsAllowed(senderID string) bool {
	if len(c.allowFrom) == 0 {
		return true
	}
	for _, allowed := range c.allowFrom {
		if allowed == senderID {
			return true
		}
	}
	return false
}
