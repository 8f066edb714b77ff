package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cexll/agentsdk-go/pkg/model"

	"github.com/lumenedu/schooldesk/internal/store"
	"github.com/lumenedu/schooldesk/internal/tools"
)

// fakeCompleter returns canned responses and records the requests it saw.
type fakeCompleter struct {
	resp     *model.Response
	err      error
	requests []model.Request
}

func (f *fakeCompleter) Complete(ctx context.Context, req model.Request) (*model.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func newTestSession(t *testing.T, fc *fakeCompleter) (*Session, *store.Store) {
	t.Helper()
	st, err := store.NewStore(store.NewMemoryBackend())
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	sess := NewSession(fc, tools.NewRegistry(st), st, Options{
		SchoolName: "Lumen Bilingual School",
		Model:      "claude-sonnet-4-5-20250929",
		MaxTokens:  1024,
	})
	return sess, st
}

func textResponse(text string, calls ...model.ToolCall) *model.Response {
	return &model.Response{
		Message: model.Message{Role: RoleAssistant, Content: text, ToolCalls: calls},
	}
}

func TestNewSession_StartsWithGreeting(t *testing.T) {
	sess, _ := newTestSession(t, &fakeCompleter{resp: textResponse("hi")})

	transcript := sess.Transcript()
	if len(transcript) != 1 {
		t.Fatalf("transcript = %d entries, want 1", len(transcript))
	}
	if transcript[0].Role != RoleAssistant || transcript[0].Content != Greeting {
		t.Errorf("transcript[0] = %+v, want greeting", transcript[0])
	}
}

func TestSend_EmptyInputIsNoOp(t *testing.T) {
	fc := &fakeCompleter{resp: textResponse("hi")}
	sess, _ := newTestSession(t, fc)

	for _, input := range []string{"", "   ", "\n\t "} {
		reply, err := sess.Send(context.Background(), input, store.TabDashboard)
		if err != nil {
			t.Fatalf("Send(%q) error: %v", input, err)
		}
		if reply != "" {
			t.Errorf("Send(%q) = %q, want empty", input, reply)
		}
	}
	if len(fc.requests) != 0 {
		t.Error("empty input must not reach the completion service")
	}
	if len(sess.Transcript()) != 1 {
		t.Error("empty input must not grow the transcript")
	}
}

func TestSend_RequestShape(t *testing.T) {
	fc := &fakeCompleter{resp: textResponse("Done.")}
	sess, _ := newTestSession(t, fc)

	if _, err := sess.Send(context.Background(), "first", store.TabDashboard); err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if _, err := sess.Send(context.Background(), "second message", store.TabExpenses); err != nil {
		t.Fatalf("Send error: %v", err)
	}

	if len(fc.requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(fc.requests))
	}
	req := fc.requests[1]

	// Each request carries only the current utterance; the transcript
	// is display state, not request state.
	if len(req.Messages) != 1 || req.Messages[0].Content != "second message" {
		t.Errorf("messages = %+v, want only the current text", req.Messages)
	}
	if len(req.Tools) != 3 {
		t.Errorf("tools = %d, want full catalog of 3", len(req.Tools))
	}
	if req.Model != "claude-sonnet-4-5-20250929" {
		t.Errorf("model = %q", req.Model)
	}

	if !strings.Contains(req.System, "Lumen Bilingual School") {
		t.Errorf("system prompt missing school name: %q", req.System)
	}
	for _, key := range []string{`"finances"`, `"inventoryStatus"`, `"staffCount"`, `"currentTab":"expenses"`} {
		if !strings.Contains(req.System, key) {
			t.Errorf("system prompt missing %s: %q", key, req.System)
		}
	}
}

func TestSend_AppliesToolCallsThenNarrative(t *testing.T) {
	fc := &fakeCompleter{resp: textResponse("Recorded it.", model.ToolCall{
		ID:   "call-1",
		Name: "addExpense",
		Arguments: map[string]any{
			"amount":      float64(3200),
			"category":    "Utilities",
			"description": "Water bill",
		},
	})}
	sess, st := newTestSession(t, fc)
	before := len(st.Expenses())

	reply, err := sess.Send(context.Background(), "log the water bill of 3200", store.TabExpenses)
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if reply != "Recorded it." {
		t.Errorf("reply = %q", reply)
	}
	if len(st.Expenses()) != before+1 {
		t.Error("tool call was not applied")
	}
	if feed := st.ActivityFeed(store.TabExpenses); len(feed) != 1 {
		t.Errorf("activity feed = %d entries, want 1", len(feed))
	}

	transcript := sess.Transcript()
	last := transcript[len(transcript)-1]
	if last.Role != RoleAssistant || last.Content != "Recorded it." {
		t.Errorf("transcript tail = %+v", last)
	}
}

func TestSend_RejectedToolCallSkipped(t *testing.T) {
	fc := &fakeCompleter{resp: textResponse("Two things done.",
		model.ToolCall{Name: "addExpense", Arguments: map[string]any{
			// missing amount: rejected, no mutation
			"description": "mystery cost",
		}},
		model.ToolCall{Name: "addTask", Arguments: map[string]any{
			"title":    "Follow up",
			"dueDate":  "2024-06-20",
			"priority": "Low",
		}},
	)}
	sess, st := newTestSession(t, fc)
	expensesBefore := len(st.Expenses())
	tasksBefore := len(st.Tasks())

	if _, err := sess.Send(context.Background(), "do two things", store.TabDashboard); err != nil {
		t.Fatalf("Send error: %v", err)
	}

	if len(st.Expenses()) != expensesBefore {
		t.Error("rejected expense call must not mutate")
	}
	if len(st.Tasks()) != tasksBefore+1 {
		t.Error("valid task call after a rejected one must still apply")
	}
}

func TestSend_FailureLeavesStateUntouched(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("upstream 500")}
	sess, st := newTestSession(t, fc)
	expensesBefore := len(st.Expenses())
	feedBefore := len(st.ActivityFeed(""))

	reply, err := sess.Send(context.Background(), "add an expense of 99 for snacks", store.TabExpenses)
	if err != nil {
		t.Fatalf("Send error: %v (failures surface as the apology, not an error)", err)
	}
	if !strings.Contains(reply, "encountered an issue") {
		t.Errorf("reply = %q, want fixed apology", reply)
	}

	if len(st.Expenses()) != expensesBefore {
		t.Error("failed round trip must not mutate collections")
	}
	if len(st.ActivityFeed("")) != feedBefore {
		t.Error("failed round trip must not log activity")
	}

	transcript := sess.Transcript()
	last := transcript[len(transcript)-1]
	if last.Role != RoleAssistant || last.Content != apologyText {
		t.Errorf("transcript tail = %+v, want single apology", last)
	}
}

func TestSend_NilResponseIsFailure(t *testing.T) {
	fc := &fakeCompleter{resp: nil}
	sess, _ := newTestSession(t, fc)

	reply, err := sess.Send(context.Background(), "hello", store.TabDashboard)
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if reply != apologyText {
		t.Errorf("reply = %q, want apology", reply)
	}
}

func TestSend_EmptyNarrativeGetsPlaceholder(t *testing.T) {
	fc := &fakeCompleter{resp: textResponse("  ", model.ToolCall{
		Name: "addIncome",
		Arguments: map[string]any{
			"amount": float64(500),
			"source": "Admission",
		},
	})}
	sess, st := newTestSession(t, fc)

	reply, err := sess.Send(context.Background(), "log 500 admission fee", store.TabDashboard)
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if reply != placeholder {
		t.Errorf("reply = %q, want placeholder", reply)
	}
	if len(st.IncomeRecords()) != 1 {
		t.Error("tool call should still apply when narrative is blank")
	}
}

func TestSend_CancelledContext(t *testing.T) {
	fc := &fakeCompleter{resp: textResponse("hi")}
	sess, _ := newTestSession(t, fc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := sess.Send(ctx, "hello", store.TabDashboard); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if len(fc.requests) != 0 {
		t.Error("cancelled context must not reach the completion service")
	}
}
