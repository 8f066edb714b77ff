package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lumenedu/schooldesk/internal/assistant"
	"github.com/lumenedu/schooldesk/internal/config"
	"github.com/lumenedu/schooldesk/internal/gateway"
	"github.com/lumenedu/schooldesk/internal/store"
	"github.com/lumenedu/schooldesk/internal/tools"
)

// CompleterFactory creates the model completer (allows mocking in tests)
type CompleterFactory func(cfg *config.Config) (assistant.Completer, error)

// AssistantOptions for running the assistant with custom dependencies
type AssistantOptions struct {
	CompleterFactory CompleterFactory
	Backend          store.Backend
	Stdin            io.Reader
	Stdout           io.Writer
	Stderr           io.Writer
}

var rootCmd = &cobra.Command{
	Use:   "schooldesk",
	Short: "schooldesk - school administration dashboard with an AI assistant",
}

var assistantCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Talk to the assistant in single message or REPL mode",
	RunE:  runAssistant,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the full gateway (web dashboard + channels + reminders)",
	RunE:  runServe,
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize config and data directory",
	RunE:  runOnboard,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show schooldesk status",
	RunE:  runStatus,
}

var messageFlag string
var viewFlag string

func init() {
	assistantCmd.Flags().StringVarP(&messageFlag, "message", "m", "", "Single message to send")
	assistantCmd.Flags().StringVar(&viewFlag, "view", string(store.TabDashboard), "Dashboard tab the message is about")
	rootCmd.AddCommand(assistantCmd, serveCmd, onboardCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runAssistant is the command handler that uses default options
func runAssistant(cmd *cobra.Command, args []string) error {
	return runAssistantWithOptions(AssistantOptions{})
}

// runAssistantWithOptions runs the assistant with injectable dependencies for testing
func runAssistantWithOptions(opts AssistantOptions) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	factory := opts.CompleterFactory
	if factory == nil {
		factory = assistant.NewCompleter
	}
	completer, err := factory(cfg)
	if err != nil {
		return err
	}

	backend := opts.Backend
	if backend == nil {
		fb, err := store.NewFileBackend(dataDir(cfg))
		if err != nil {
			return fmt.Errorf("create data backend: %w", err)
		}
		backend = fb
	}
	st, err := store.NewStore(backend)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	registry := tools.NewRegistry(st)
	sess := assistant.NewSession(completer, registry, st, assistant.Options{
		SchoolName:  cfg.School.Name,
		Model:       cfg.Assistant.Model,
		MaxTokens:   cfg.Assistant.MaxTokens,
		Temperature: cfg.Assistant.Temperature,
	})

	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	ctx := context.Background()
	view := store.Tab(viewFlag)

	// Single message mode
	if messageFlag != "" {
		reply, err := sess.Send(ctx, messageFlag, view)
		if err != nil {
			return fmt.Errorf("assistant error: %w", err)
		}
		if reply != "" {
			fmt.Fprintln(stdout, reply)
		}
		return nil
	}

	// REPL mode
	fmt.Fprintln(stdout, assistant.Greeting)
	fmt.Fprintln(stdout, "(type 'exit' to quit)")
	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "\n> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		reply, err := sess.Send(ctx, input, view)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			continue
		}
		if reply != "" {
			fmt.Fprintln(stdout, reply)
		}
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.Provider.APIKey == "" {
		return fmt.Errorf("API key not set. Run 'schooldesk onboard' or set SCHOOLDESK_API_KEY / ANTHROPIC_API_KEY")
	}

	gw, err := gateway.New(cfg)
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	return gw.Run(context.Background())
}

func runOnboard(cmd *cobra.Command, args []string) error {
	cfgDir := config.ConfigDir()
	cfgPath := config.ConfigPath()

	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg := config.DefaultConfig()
		if err := config.SaveConfig(cfg); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Created config: %s\n", cfgPath)
	} else {
		fmt.Printf("Config already exists: %s\n", cfgPath)
	}

	cfg, _ := config.LoadConfig()
	dir := dataDir(cfg)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Loading the store seeds any missing collections on disk.
	fb, err := store.NewFileBackend(dir)
	if err != nil {
		return fmt.Errorf("create data backend: %w", err)
	}
	st, err := store.NewStore(fb)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	fmt.Printf("Data directory ready: %s (%d staff, %d tasks seeded)\n", dir, st.StaffCount(), len(st.Tasks()))
	fmt.Println("\nNext steps:")
	fmt.Printf("  1. Edit %s to set your API key\n", cfgPath)
	fmt.Println("  2. Or set SCHOOLDESK_API_KEY environment variable")
	fmt.Println("  3. Run 'schooldesk assistant -m \"Add an expense of 5000 for chalk\"' to test")

	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Config: error (%v)\n", err)
		return nil
	}

	fmt.Printf("Config: %s\n", config.ConfigPath())
	fmt.Printf("School: %s\n", cfg.School.Name)
	fmt.Printf("Model: %s\n", cfg.Assistant.Model)
	fmt.Printf("Provider: %s\n", providerDisplay(cfg.Provider.Type))
	if cfg.Provider.APIKey != "" && len(cfg.Provider.APIKey) > 8 {
		masked := cfg.Provider.APIKey[:4] + "..." + cfg.Provider.APIKey[len(cfg.Provider.APIKey)-4:]
		fmt.Printf("API Key: %s\n", masked)
	} else if cfg.Provider.APIKey != "" {
		fmt.Println("API Key: set")
	} else {
		fmt.Println("API Key: not set")
	}
	fmt.Printf("WebUI: enabled=%v port=%d\n", cfg.Channels.WebUI.Enabled, cfg.Gateway.Port)
	fmt.Printf("Telegram: enabled=%v\n", cfg.Channels.Telegram.Enabled)

	dir := dataDir(cfg)
	if _, err := os.Stat(dir); err != nil {
		fmt.Println("Data: not found (run 'schooldesk onboard')")
		return nil
	}

	fb, err := store.NewFileBackend(dir)
	if err != nil {
		fmt.Printf("Data: error (%v)\n", err)
		return nil
	}
	st, err := store.NewStore(fb)
	if err != nil {
		fmt.Printf("Data: error (%v)\n", err)
		return nil
	}
	totals := st.Totals()
	fmt.Printf("Data: %s\n", dir)
	fmt.Printf("Finances: income ₦%s, expenses ₦%s, net ₦%s\n",
		totals.TotalIncome, totals.TotalExpenses, totals.Net)
	fmt.Printf("Records: %d expenses, %d income, %d tasks, %d staff\n",
		len(st.Expenses()), len(st.IncomeRecords()), len(st.Tasks()), st.StaffCount())
	if needed := st.NeededItems(); len(needed) > 0 {
		fmt.Printf("Inventory attention: %s\n", strings.Join(needed, ", "))
	}

	return nil
}

func dataDir(cfg *config.Config) string {
	if cfg.School.DataDir != "" {
		return cfg.School.DataDir
	}
	return filepath.Join(config.ConfigDir(), "data")
}

func providerDisplay(t string) string {
	if t == "" {
		return "anthropic (default)"
	}
	return t
}
