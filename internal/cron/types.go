package cron

import (
	"time"

	"github.com/google/uuid"

	"github.com/lumenedu/schooldesk/internal/store"
)

// Schedule kinds.
const (
	KindCron = "cron" // recurring, Expr holds a cron expression with seconds
	KindAt   = "at"   // one-shot, AtMs holds a unix-millis instant
)

type Schedule struct {
	Kind string `json:"kind"`
	Expr string `json:"expr,omitempty"`
	AtMs int64  `json:"atMs,omitempty"`
}

// Payload is what a reminder does when it fires: the prompt is sent
// through the assistant and the reply is delivered to the channel/chat
// that created the reminder.
type Payload struct {
	Prompt  string    `json:"prompt"`
	Channel string    `json:"channel"`
	ChatID  string    `json:"chatId"`
	View    store.Tab `json:"view,omitempty"`
}

type RunState struct {
	LastRunAtMs int64  `json:"lastRunAtMs,omitempty"`
	LastStatus  string `json:"lastStatus,omitempty"`
	LastError   string `json:"lastError,omitempty"`
}

type Reminder struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Enabled        bool     `json:"enabled"`
	DeleteAfterRun bool     `json:"deleteAfterRun,omitempty"`
	Schedule       Schedule `json:"schedule"`
	Payload        Payload  `json:"payload"`
	State          RunState `json:"state"`
	CreatedAtMs    int64    `json:"createdAtMs"`
}

func NewReminder(name string, schedule Schedule, payload Payload) Reminder {
	r := Reminder{
		ID:          uuid.NewString(),
		Name:        name,
		Enabled:     true,
		Schedule:    schedule,
		Payload:     payload,
		CreatedAtMs: time.Now().UnixMilli(),
	}
	if schedule.Kind == KindAt {
		r.DeleteAfterRun = true
	}
	return r
}
