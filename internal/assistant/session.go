// Package assistant manages the conversation between the operator and
// the completion service, and applies returned tool invocations to the
// domain store.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cexll/agentsdk-go/pkg/model"
	"github.com/lumenedu/schooldesk/internal/store"
	"github.com/lumenedu/schooldesk/internal/tools"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Fixed transcript texts. Failures are never shown in detail to the
// operator; the underlying error goes to the diagnostic log only.
const (
	Greeting    = "Hello! The school assistant is ready. I can record expenses, add tasks, or log fees for you. Just tell me what to do."
	apologyText = "I encountered an issue processing that request. Please try again."
	placeholder = "Processing your request..."
)

// Message is one transcript entry. The transcript lives for the session
// only and is never persisted.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer is the completion-service boundary: one request carrying
// the user text, system instruction, and tool catalog; one response
// carrying optional narrative text and zero or more tool calls.
// Satisfied by agentsdk-go's model.Model.
type Completer interface {
	Complete(ctx context.Context, req model.Request) (*model.Response, error)
}

// Options configure a Session.
type Options struct {
	SchoolName  string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Session owns one growing transcript and serializes request/response
// cycles against the completion service. Tool calls from a successful
// response are applied in order through the registry before the
// narrative is appended; a failed round trip mutates nothing.
type Session struct {
	completer Completer
	registry  *tools.Registry
	store     *store.Store
	opts      Options

	mu         sync.Mutex
	transcript []Message
	seq        atomic.Uint64
}

func NewSession(completer Completer, registry *tools.Registry, st *store.Store, opts Options) *Session {
	return &Session{
		completer:  completer,
		registry:   registry,
		store:      st,
		opts:       opts,
		transcript: []Message{{Role: RoleAssistant, Content: Greeting}},
	}
}

// Transcript returns a copy of the conversation so far.
func (s *Session) Transcript() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.transcript...)
}

// Send runs one request/response cycle. Empty or whitespace-only input
// is a no-op: no transcript entry, no network call, empty reply.
// The returned string is the assistant's reply (narrative, placeholder,
// or the fixed apology); the error return is reserved for context
// cancellation before any work happened.
func (s *Session) Send(ctx context.Context, text string, view store.Tab) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// One cycle in flight per session. The sequence number ties log
	// lines from one cycle together.
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := s.seq.Add(1)

	s.transcript = append(s.transcript, Message{Role: RoleUser, Content: text})

	req := model.Request{
		Messages:  []model.Message{{Role: RoleUser, Content: text}},
		System:    s.systemPrompt(view),
		Tools:     s.registry.Definitions(),
		Model:     s.opts.Model,
		MaxTokens: s.opts.MaxTokens,
	}
	if s.opts.Temperature > 0 {
		temp := s.opts.Temperature
		req.Temperature = &temp
	}

	resp, err := s.completer.Complete(ctx, req)
	if err != nil || resp == nil {
		log.Printf("[assistant] request %d failed: %v", seq, err)
		s.transcript = append(s.transcript, Message{Role: RoleAssistant, Content: apologyText})
		return apologyText, nil
	}

	for _, call := range resp.Message.ToolCalls {
		if entry, err := s.registry.Apply(call); err != nil {
			log.Printf("[assistant] request %d: tool %s rejected: %v", seq, call.Name, err)
		} else {
			log.Printf("[assistant] request %d: %s", seq, entry.Action)
		}
	}

	narrative := strings.TrimSpace(resp.Message.Content)
	if narrative == "" {
		narrative = placeholder
	}
	s.transcript = append(s.transcript, Message{Role: RoleAssistant, Content: narrative})
	return narrative, nil
}

// contextSnapshot is the aggregate state embedded in the system
// instruction on every request.
type contextSnapshot struct {
	Finances        store.Totals `json:"finances"`
	InventoryStatus []string     `json:"inventoryStatus"`
	StaffCount      int          `json:"staffCount"`
	CurrentTab      store.Tab    `json:"currentTab"`
}

func (s *Session) systemPrompt(view store.Tab) string {
	if view == "" {
		view = store.TabDashboard
	}
	snapshot := contextSnapshot{
		Finances:        s.store.Totals(),
		InventoryStatus: s.store.NeededItems(),
		StaffCount:      s.store.StaffCount(),
		CurrentTab:      view,
	}
	ctxJSON, err := json.Marshal(snapshot)
	if err != nil {
		log.Printf("[assistant] snapshot marshal: %v", err)
		ctxJSON = []byte("{}")
	}

	name := s.opts.SchoolName
	if name == "" {
		name = "the school"
	}
	return fmt.Sprintf(`You are the administrative assistant for %s.
Current school context: %s.
You have tools to add expenses, income, and tasks.
If the administrator asks you to record something, use the tool.
Confirm every successful change in your text response.
Be professional and concise.`, name, ctxJSON)
}
