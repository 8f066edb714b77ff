package gateway

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/lumenedu/schooldesk/internal/assistant"
	"github.com/lumenedu/schooldesk/internal/bus"
	"github.com/lumenedu/schooldesk/internal/channel"
	"github.com/lumenedu/schooldesk/internal/config"
	"github.com/lumenedu/schooldesk/internal/cron"
	"github.com/lumenedu/schooldesk/internal/store"
	"github.com/lumenedu/schooldesk/internal/tools"
)

// Reserved reminder prompt for the internal nightly store backup.
const backupPrompt = "__internal:store:backup"

// CompleterFactory creates the model completer (allows mocking in tests)
type CompleterFactory func(cfg *config.Config) (assistant.Completer, error)

// Options for creating a Gateway
type Options struct {
	CompleterFactory CompleterFactory
	Backend          store.Backend
	SignalChan       chan os.Signal // for testing signal handling
}

// Gateway wires the domain store, tool registry, assistant sessions,
// channels and the reminder scheduler together. Each chat gets its own
// session keyed by channel:chatID; all sessions share one store.
type Gateway struct {
	cfg       *config.Config
	bus       *bus.MessageBus
	store     *store.Store
	registry  *tools.Registry
	completer assistant.Completer
	channels  *channel.ChannelManager
	cron      *cron.Service

	mu       sync.Mutex
	sessions map[string]*assistant.Session

	signalChan chan os.Signal
}

// New creates a Gateway with default options
func New(cfg *config.Config) (*Gateway, error) {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions creates a Gateway with custom options for testing
func NewWithOptions(cfg *config.Config, opts Options) (*Gateway, error) {
	g := &Gateway{
		cfg:      cfg,
		sessions: make(map[string]*assistant.Session),
	}

	g.bus = bus.NewMessageBus(config.DefaultBufSize)

	backend := opts.Backend
	if backend == nil {
		dataDir := cfg.School.DataDir
		if dataDir == "" {
			dataDir = filepath.Join(config.ConfigDir(), "data")
		}
		fb, err := store.NewFileBackend(dataDir)
		if err != nil {
			return nil, fmt.Errorf("create data backend: %w", err)
		}
		backend = fb
	}
	st, err := store.NewStore(backend)
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	g.store = st
	g.registry = tools.NewRegistry(g.store)

	factory := opts.CompleterFactory
	if factory == nil {
		factory = assistant.NewCompleter
	}
	completer, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("create completer: %w", err)
	}
	g.completer = completer

	g.signalChan = opts.SignalChan

	cronStorePath := filepath.Join(config.ConfigDir(), "data", "cron", "reminders.json")
	g.cron = cron.NewService(cronStorePath)
	g.cron.OnFire = func(r cron.Reminder) (string, error) {
		if r.Payload.Prompt == backupPrompt {
			path := filepath.Join(config.ConfigDir(), "backups",
				"store-"+time.Now().Format("2006-01-02")+".json")
			return path, g.store.Backup(path)
		}

		sessionKey := r.Payload.Channel + ":" + r.Payload.ChatID
		result, err := g.session(sessionKey).Send(context.Background(), r.Payload.Prompt, r.Payload.View)
		if err != nil {
			return "", err
		}
		if result != "" && r.Payload.Channel != "" {
			g.bus.Outbound <- bus.OutboundMessage{
				Channel: r.Payload.Channel,
				ChatID:  r.Payload.ChatID,
				Content: result,
			}
		}
		return result, nil
	}

	chMgr, err := channel.NewChannelManager(cfg.Channels, cfg.Gateway, g.store, g.bus)
	if err != nil {
		return nil, fmt.Errorf("create channel manager: %w", err)
	}
	g.channels = chMgr

	return g, nil
}

// Store exposes the domain store, mainly for CLI status output.
func (g *Gateway) Store() *store.Store {
	return g.store
}

// Reminders exposes the reminder scheduler.
func (g *Gateway) Reminders() *cron.Service {
	return g.cron
}

// session returns the assistant session for a chat, creating it on
// first use.
func (g *Gateway) session(key string) *assistant.Session {
	g.mu.Lock()
	defer g.mu.Unlock()

	if sess, ok := g.sessions[key]; ok {
		return sess
	}
	sess := assistant.NewSession(g.completer, g.registry, g.store, assistant.Options{
		SchoolName:  g.cfg.School.Name,
		Model:       g.cfg.Assistant.Model,
		MaxTokens:   g.cfg.Assistant.MaxTokens,
		Temperature: g.cfg.Assistant.Temperature,
	})
	g.sessions[key] = sess
	return sess
}

func (g *Gateway) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go g.bus.DispatchOutbound(ctx)

	if err := g.channels.StartAll(ctx); err != nil {
		return fmt.Errorf("start channels: %w", err)
	}
	log.Printf("[gateway] channels started: %v", g.channels.EnabledChannels())

	if err := g.cron.Start(ctx); err != nil {
		log.Printf("[gateway] cron start warning: %v", err)
	}
	if err := g.ensureInternalJobs(); err != nil {
		log.Printf("[gateway] ensure internal jobs warning: %v", err)
	}

	go g.processLoop(ctx)

	log.Printf("[gateway] running on %s:%d", g.cfg.Gateway.Host, g.cfg.Gateway.Port)

	sigCh := g.signalChan
	if sigCh == nil {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	}
	<-sigCh

	log.Printf("[gateway] shutting down...")
	return g.Shutdown()
}

// ensureInternalJobs registers the nightly store backup if a previous
// run has not already persisted it.
func (g *Gateway) ensureInternalJobs() error {
	const name = "__internal_store_nightly_backup"
	for _, r := range g.cron.List() {
		if r.Name == name || r.Payload.Prompt == backupPrompt {
			return nil
		}
	}
	_, err := g.cron.Add(name, cron.Schedule{Kind: cron.KindCron, Expr: "0 0 2 * * *"},
		cron.Payload{Prompt: backupPrompt})
	return err
}

func (g *Gateway) processLoop(ctx context.Context) {
	for {
		select {
		case msg := <-g.bus.Inbound:
			log.Printf("[gateway] inbound from %s/%s: %s", msg.Channel, msg.SenderID, truncate(msg.Content, 80))

			result, err := g.session(msg.SessionKey()).Send(ctx, msg.Content, msg.View)
			if err != nil {
				log.Printf("[gateway] session error: %v", err)
				continue
			}

			if result != "" {
				g.bus.Outbound <- bus.OutboundMessage{
					Channel: msg.Channel,
					ChatID:  msg.ChatID,
					Content: result,
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (g *Gateway) Shutdown() error {
	g.cron.Stop()
	_ = g.channels.StopAll()
	log.Printf("[gateway] shutdown complete")
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
