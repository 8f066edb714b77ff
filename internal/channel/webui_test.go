package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/lumenedu/schooldesk/internal/bus"
	"github.com/lumenedu/schooldesk/internal/config"
	"github.com/lumenedu/schooldesk/internal/store"
)

func newChannelTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.NewStore(store.NewMemoryBackend())
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	return st
}

func newTestServer(t *testing.T) (*httptest.Server, *store.Store, *bus.MessageBus) {
	t.Helper()
	b := bus.NewMessageBus(10)
	st := newChannelTestStore(t)
	ch := NewWebUIChannel(config.WebUIConfig{Enabled: true}, config.GatewayConfig{}, st, b)

	mux, err := ch.handler()
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, st, b
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestWebUI_State(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/state")
	if err != nil {
		t.Fatalf("GET /api/state: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var state stateResponse
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(state.Expenses) != 3 {
		t.Errorf("expenses = %d, want 3 seeded", len(state.Expenses))
	}
	if len(state.Policies) != 2 {
		t.Errorf("policies = %d, want 2", len(state.Policies))
	}
	if !state.Totals.TotalExpenses.Equal(state.Totals.Net.Neg()) {
		t.Errorf("net = %s, want negative of expenses with no income", state.Totals.Net)
	}
}

func TestWebUI_AddExpense(t *testing.T) {
	srv, st, _ := newTestServer(t)
	before := len(st.Expenses())

	resp := postJSON(t, srv.URL+"/api/expenses",
		`{"amount":"450.25","category":"Supplies","description":"Report cards"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if len(st.Expenses()) != before+1 {
		t.Error("expense not recorded")
	}
}

func TestWebUI_AddExpense_Negative(t *testing.T) {
	srv, st, _ := newTestServer(t)
	before := len(st.Expenses())

	resp := postJSON(t, srv.URL+"/api/expenses",
		`{"amount":"-10","category":"X","description":"bad"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if len(st.Expenses()) != before {
		t.Error("negative expense must not be recorded")
	}
}

func TestWebUI_TaskLifecycle(t *testing.T) {
	srv, st, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/tasks", `{"title":"Paint gate","dueDate":"2024-07-01"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	var task store.Task
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if task.Priority != store.PriorityMedium {
		t.Errorf("priority = %q, want Medium default", task.Priority)
	}

	toggle := postJSON(t, fmt.Sprintf("%s/api/tasks/%s/toggle", srv.URL, task.ID), "")
	if toggle.StatusCode != http.StatusOK {
		t.Fatalf("toggle status = %d, want 200", toggle.StatusCode)
	}

	for _, got := range st.Tasks() {
		if got.ID == task.ID && !got.Completed {
			t.Error("task should be completed after toggle")
		}
	}

	missing := postJSON(t, srv.URL+"/api/tasks/nope/toggle", "")
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("toggle unknown status = %d, want 404", missing.StatusCode)
	}
}

func TestWebUI_Reset(t *testing.T) {
	srv, st, _ := newTestServer(t)

	unconfirmed := postJSON(t, srv.URL+"/api/finances/reset", `{"confirm":false}`)
	if unconfirmed.StatusCode != http.StatusBadRequest {
		t.Fatalf("unconfirmed status = %d, want 400", unconfirmed.StatusCode)
	}
	if len(st.Expenses()) == 0 {
		t.Fatal("unconfirmed reset must not clear expenses")
	}

	confirmed := postJSON(t, srv.URL+"/api/finances/reset", `{"confirm":true}`)
	if confirmed.StatusCode != http.StatusOK {
		t.Fatalf("confirmed status = %d, want 200", confirmed.StatusCode)
	}
	if len(st.Expenses()) != 0 || len(st.IncomeRecords()) != 0 {
		t.Error("confirmed reset must clear both collections")
	}
}

func TestWebUI_ActivityFilter(t *testing.T) {
	srv, st, _ := newTestServer(t)
	st.LogActivity(store.TabExpenses, "money entry")
	st.LogActivity(store.TabTasks, "task entry")

	resp, err := http.Get(srv.URL + "/api/activity?tab=tasks")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var feed []store.Activity
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(feed) != 1 || feed[0].Action != "task entry" {
		t.Errorf("feed = %+v, want only the tasks entry", feed)
	}
}

func TestWebUI_WebSocketFeedsBus(t *testing.T) {
	srv, _, b := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + srv.URL[len("http"):] + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	defer conn.CloseNow()

	data, _ := json.Marshal(wsMessage{Type: "message", Content: "add expense of 200", View: store.TabExpenses})
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("ws write: %v", err)
	}

	select {
	case inbound := <-b.Inbound:
		if inbound.Channel != "webui" {
			t.Errorf("channel = %q, want webui", inbound.Channel)
		}
		if inbound.Content != "add expense of 200" {
			t.Errorf("content = %q", inbound.Content)
		}
		if inbound.View != store.TabExpenses {
			t.Errorf("view = %q, want expenses", inbound.View)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("inbound message never arrived")
	}
}
