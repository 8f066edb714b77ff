// Package bus decouples chat channels from the gateway loop with a pair
// of buffered queues.
package bus

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lumenedu/schooldesk/internal/store"
)

// InboundMessage is a user utterance arriving from a channel. View is
// the dashboard tab the client had active when it sent the message, so
// the assistant's context snapshot can include it.
type InboundMessage struct {
	Channel   string
	SenderID  string
	ChatID    string
	Content   string
	View      store.Tab
	Timestamp time.Time
}

// SessionKey identifies the conversation this message belongs to.
func (m *InboundMessage) SessionKey() string {
	return m.Channel + ":" + m.ChatID
}

// OutboundMessage is an assistant reply headed back to a channel.
type OutboundMessage struct {
	Channel string
	ChatID  string
	Content string
}

// MessageBus carries inbound messages to the gateway loop and fans
// outbound replies back to the channel that owns them.
type MessageBus struct {
	Inbound  chan InboundMessage
	Outbound chan OutboundMessage

	mu          sync.RWMutex
	subscribers map[string]func(OutboundMessage)
}

func NewMessageBus(bufSize int) *MessageBus {
	if bufSize <= 0 {
		bufSize = 1
	}
	return &MessageBus{
		Inbound:     make(chan InboundMessage, bufSize),
		Outbound:    make(chan OutboundMessage, bufSize),
		subscribers: make(map[string]func(OutboundMessage)),
	}
}

// SubscribeOutbound registers the delivery callback for one channel
// name. Later registrations replace earlier ones.
func (b *MessageBus) SubscribeOutbound(channel string, fn func(OutboundMessage)) {
	b.mu.Lock()
	b.subscribers[channel] = fn
	b.mu.Unlock()
}

// DispatchOutbound routes outbound messages to their channel's
// subscriber until ctx is done. Messages for unknown channels are
// dropped with a log line.
func (b *MessageBus) DispatchOutbound(ctx context.Context) {
	for {
		select {
		case msg := <-b.Outbound:
			b.mu.RLock()
			fn, ok := b.subscribers[msg.Channel]
			b.mu.RUnlock()
			if !ok {
				log.Printf("[bus] no subscriber for channel %q, dropping message", msg.Channel)
				continue
			}
			fn(msg)
		case <-ctx.Done():
			return
		}
	}
}
