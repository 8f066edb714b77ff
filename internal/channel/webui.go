package channel

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/shopspring/decimal"

	"github.com/lumenedu/schooldesk/internal/bus"
	"github.com/lumenedu/schooldesk/internal/config"
	"github.com/lumenedu/schooldesk/internal/store"
)

//go:embed static
var staticFiles embed.FS

const webUIChannelName = "webui"

type wsMessage struct {
	Type    string    `json:"type"`
	Content string    `json:"content,omitempty"`
	View    store.Tab `json:"view,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	id   string
}

// WebUIChannel serves the dashboard: a REST API over the domain store
// plus a websocket endpoint that feeds chat messages into the bus.
type WebUIChannel struct {
	BaseChannel
	store   *store.Store
	port    int
	host    string
	server  *http.Server
	clients sync.Map
	nextID  atomic.Int64
}

func NewWebUIChannel(cfg config.WebUIConfig, gwCfg config.GatewayConfig, st *store.Store, b *bus.MessageBus) *WebUIChannel {
	port := gwCfg.Port
	if port == 0 {
		port = config.DefaultPort
	}

	return &WebUIChannel{
		BaseChannel: NewBaseChannel(webUIChannelName, b, cfg.AllowFrom),
		store:       st,
		port:        port,
		host:        gwCfg.Host,
	}
}

// handler builds the full route table: static dashboard, websocket
// chat, and the REST API over the store.
func (w *WebUIChannel) handler() (http.Handler, error) {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("embed static fs: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(staticFS)))
	mux.HandleFunc("/ws", w.handleWS)

	mux.HandleFunc("GET /api/state", w.handleState)
	mux.HandleFunc("GET /api/activity", w.handleActivity)
	mux.HandleFunc("POST /api/expenses", w.handleAddExpense)
	mux.HandleFunc("POST /api/income", w.handleAddIncome)
	mux.HandleFunc("POST /api/tasks", w.handleAddTask)
	mux.HandleFunc("POST /api/tasks/{id}/toggle", w.handleToggleTask)
	mux.HandleFunc("POST /api/staff", w.handleAddStaff)
	mux.HandleFunc("POST /api/staff/{id}/agreement", w.handleToggleAgreement)
	mux.HandleFunc("POST /api/routes", w.handleAddRoute)
	mux.HandleFunc("POST /api/finances/reset", w.handleReset)

	return mux, nil
}

func (w *WebUIChannel) Start(ctx context.Context) error {
	mux, err := w.handler()
	if err != nil {
		return err
	}

	w.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", w.host, w.port),
		Handler: mux,
	}

	go func() {
		log.Printf("[webui] listening on %s", w.server.Addr)
		if err := w.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[webui] server error: %v", err)
		}
	}()

	return nil
}

func (w *WebUIChannel) handleWS(wr http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(wr, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("[webui] websocket accept error: %v", err)
		return
	}

	clientID := fmt.Sprintf("webui-%d", w.nextID.Add(1))
	client := &wsClient{conn: conn, id: clientID}
	w.clients.Store(clientID, client)
	log.Printf("[webui] client connected: %s", clientID)

	defer func() {
		w.clients.Delete(clientID)
		conn.CloseNow()
		log.Printf("[webui] client disconnected: %s", clientID)
	}()

	for {
		_, data, err := conn.Read(r.Context())
		if err != nil {
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		if msg.Type != "message" || msg.Content == "" {
			continue
		}

		if !w.IsAllowed(clientID) {
			log.Printf("[webui] rejected message from %s", clientID)
			continue
		}

		w.bus.Inbound <- bus.InboundMessage{
			Channel:   webUIChannelName,
			SenderID:  clientID,
			ChatID:    clientID,
			Content:   msg.Content,
			View:      msg.View,
			Timestamp: time.Now(),
		}
	}
}

type stateResponse struct {
	Expenses  []store.Expense       `json:"expenses"`
	Income    []store.Income        `json:"income"`
	Totals    store.Totals          `json:"totals"`
	Inventory []store.InventoryItem `json:"inventory"`
	Tasks     []store.Task          `json:"tasks"`
	Staff     []store.StaffRecord   `json:"staff"`
	Routes    []store.BusSchedule   `json:"routes"`
	Policies  []store.Policy        `json:"policies"`
}

func (w *WebUIChannel) handleState(wr http.ResponseWriter, r *http.Request) {
	writeJSON(wr, http.StatusOK, stateResponse{
		Expenses:  w.store.Expenses(),
		Income:    w.store.IncomeRecords(),
		Totals:    w.store.Totals(),
		Inventory: w.store.Inventory(),
		Tasks:     w.store.Tasks(),
		Staff:     w.store.Staff(),
		Routes:    w.store.Routes(),
		Policies:  w.store.Policies(),
	})
}

func (w *WebUIChannel) handleActivity(wr http.ResponseWriter, r *http.Request) {
	tab := store.Tab(r.URL.Query().Get("tab"))
	writeJSON(wr, http.StatusOK, w.store.ActivityFeed(tab))
}

type amountPayload struct {
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Source      string          `json:"source"`
	Date        string          `json:"date"`
}

func (w *WebUIChannel) handleAddExpense(wr http.ResponseWriter, r *http.Request) {
	var p amountPayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(wr, http.StatusBadRequest, err)
		return
	}
	exp, err := w.store.AddExpense(store.ExpenseInput{
		Amount:      p.Amount,
		Category:    p.Category,
		Description: p.Description,
		Date:        p.Date,
	})
	if err != nil {
		writeError(wr, statusFor(err), err)
		return
	}
	writeJSON(wr, http.StatusCreated, exp)
}

func (w *WebUIChannel) handleAddIncome(wr http.ResponseWriter, r *http.Request) {
	var p amountPayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(wr, http.StatusBadRequest, err)
		return
	}
	inc, err := w.store.AddIncome(store.IncomeInput{
		Amount: p.Amount,
		Source: p.Source,
		Date:   p.Date,
	})
	if err != nil {
		writeError(wr, statusFor(err), err)
		return
	}
	writeJSON(wr, http.StatusCreated, inc)
}

func (w *WebUIChannel) handleAddTask(wr http.ResponseWriter, r *http.Request) {
	var p store.TaskInput
	if err := decodeJSON(r, &p); err != nil {
		writeError(wr, http.StatusBadRequest, err)
		return
	}
	writeJSON(wr, http.StatusCreated, w.store.AddTask(p))
}

func (w *WebUIChannel) handleToggleTask(wr http.ResponseWriter, r *http.Request) {
	task, err := w.store.ToggleTask(r.PathValue("id"))
	if err != nil {
		writeError(wr, statusFor(err), err)
		return
	}
	writeJSON(wr, http.StatusOK, task)
}

func (w *WebUIChannel) handleAddStaff(wr http.ResponseWriter, r *http.Request) {
	var p store.StaffInput
	if err := decodeJSON(r, &p); err != nil {
		writeError(wr, http.StatusBadRequest, err)
		return
	}
	writeJSON(wr, http.StatusCreated, w.store.AddStaff(p))
}

func (w *WebUIChannel) handleToggleAgreement(wr http.ResponseWriter, r *http.Request) {
	rec, err := w.store.ToggleAgreement(r.PathValue("id"))
	if err != nil {
		writeError(wr, statusFor(err), err)
		return
	}
	writeJSON(wr, http.StatusOK, rec)
}

func (w *WebUIChannel) handleAddRoute(wr http.ResponseWriter, r *http.Request) {
	var p store.RouteInput
	if err := decodeJSON(r, &p); err != nil {
		writeError(wr, http.StatusBadRequest, err)
		return
	}
	writeJSON(wr, http.StatusCreated, w.store.AddRoute(p))
}

func (w *WebUIChannel) handleReset(wr http.ResponseWriter, r *http.Request) {
	var p struct {
		Confirm bool `json:"confirm"`
	}
	if err := decodeJSON(r, &p); err != nil {
		writeError(wr, http.StatusBadRequest, err)
		return
	}
	if !p.Confirm {
		writeError(wr, http.StatusBadRequest, errors.New("reset requires confirm"))
		return
	}
	w.store.ResetFinances()
	writeJSON(wr, http.StatusOK, w.store.Totals())
}

func (w *WebUIChannel) Send(msg bus.OutboundMessage) error {
	data, err := json.Marshal(wsMessage{
		Type:    "message",
		Content: msg.Content,
	})
	if err != nil {
		return err
	}

	client, ok := w.clients.Load(msg.ChatID)
	if !ok {
		// Broadcast to all clients if no specific target
		w.clients.Range(func(key, value any) bool {
			c := value.(*wsClient)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = c.conn.Write(ctx, websocket.MessageText, data)
			return true
		})
		return nil
	}

	c := client.(*wsClient)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

func (w *WebUIChannel) Stop() error {
	if w.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := w.server.Shutdown(ctx); err != nil {
			log.Printf("[webui] shutdown error: %v", err)
		}
	}
	w.clients.Range(func(key, value any) bool {
		c := value.(*wsClient)
		c.conn.CloseNow()
		return true
	})
	log.Printf("[webui] stopped")
	return nil
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func writeJSON(wr http.ResponseWriter, status int, v any) {
	wr.Header().Set("Content-Type", "application/json")
	wr.WriteHeader(status)
	if err := json.NewEncoder(wr).Encode(v); err != nil {
		log.Printf("[webui] write response: %v", err)
	}
}

func writeError(wr http.ResponseWriter, status int, err error) {
	writeJSON(wr, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrNegativeAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
