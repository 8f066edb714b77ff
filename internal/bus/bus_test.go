package bus

import (
	"context"
	"testing"
	"time"
)

func TestSessionKey(t *testing.T) {
	msg := InboundMessage{Channel: "telegram", ChatID: "42"}
	if got := msg.SessionKey(); got != "telegram:42" {
		t.Errorf("SessionKey = %q, want telegram:42", got)
	}
}

func TestDispatchOutbound_RoutesToSubscriber(t *testing.T) {
	b := NewMessageBus(10)
	received := make(chan OutboundMessage, 1)
	b.SubscribeOutbound("webui", func(m OutboundMessage) { received <- m })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.DispatchOutbound(ctx)

	b.Outbound <- OutboundMessage{Channel: "webui", ChatID: "webui-1", Content: "hello"}

	select {
	case got := <-received:
		if got.Content != "hello" || got.ChatID != "webui-1" {
			t.Errorf("got = %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber never received the message")
	}
}

func TestDispatchOutbound_DropsUnknownChannel(t *testing.T) {
	b := NewMessageBus(10)
	received := make(chan OutboundMessage, 1)
	b.SubscribeOutbound("webui", func(m OutboundMessage) { received <- m })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.DispatchOutbound(ctx)

	b.Outbound <- OutboundMessage{Channel: "pigeon", Content: "lost"}
	b.Outbound <- OutboundMessage{Channel: "webui", Content: "found"}

	select {
	case got := <-received:
		if got.Content != "found" {
			t.Errorf("content = %q, want the webui message", got.Content)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch stalled on unknown channel")
	}
}

func TestNewMessageBus_MinimumBuffer(t *testing.T) {
	b := NewMessageBus(0)
	if cap(b.Inbound) < 1 || cap(b.Outbound) < 1 {
		t.Error("bus channels must be buffered")
	}
}
