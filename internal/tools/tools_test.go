package tools

import (
	"errors"
	"strings"
	"testing"

	"github.com/cexll/agentsdk-go/pkg/model"
	"github.com/shopspring/decimal"

	"github.com/lumenedu/schooldesk/internal/store"
)

func newTestRegistry(t *testing.T) (*Registry, *store.Store) {
	t.Helper()
	st, err := store.NewStore(store.NewMemoryBackend())
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	return NewRegistry(st), st
}

func TestDefinitions_CatalogOrder(t *testing.T) {
	r, _ := newTestRegistry(t)

	defs := r.Definitions()
	want := []string{"addExpense", "addTask", "addIncome"}
	if len(defs) != len(want) {
		t.Fatalf("len(defs) = %d, want %d", len(defs), len(want))
	}
	for i, name := range want {
		if defs[i].Name != name {
			t.Errorf("defs[%d] = %q, want %q", i, defs[i].Name, name)
		}
	}

	params := defs[0].Parameters
	required, _ := params["required"].([]string)
	if len(required) != 3 {
		t.Errorf("addExpense required = %v, want amount, category, description", required)
	}
}

func TestApply_UnknownTool(t *testing.T) {
	r, _ := newTestRegistry(t)

	_, err := r.Apply(model.ToolCall{Name: "deleteEverything"})
	if err == nil || !strings.Contains(err.Error(), "unknown tool") {
		t.Errorf("err = %v, want unknown tool error", err)
	}
}

func TestAddExpense_Applies(t *testing.T) {
	r, st := newTestRegistry(t)
	before := len(st.Expenses())

	entry, err := r.Apply(model.ToolCall{Name: "addExpense", Arguments: map[string]any{
		"amount":      float64(7500),
		"category":    "Maintenance",
		"description": "Fix borehole pump",
	}})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}

	expenses := st.Expenses()
	if len(expenses) != before+1 {
		t.Fatalf("expenses = %d, want %d", len(expenses), before+1)
	}
	rec := expenses[len(expenses)-1]
	if rec.Origin != store.OriginAssistant {
		t.Errorf("origin = %q, want assistant", rec.Origin)
	}
	if !strings.HasPrefix(rec.Description, assistantMarker) {
		t.Errorf("description = %q, want %q prefix", rec.Description, assistantMarker)
	}
	if !rec.Amount.Equal(decimal.NewFromInt(7500)) {
		t.Errorf("amount = %s, want 7500", rec.Amount)
	}
	if rec.Date != store.Today() {
		t.Errorf("date = %q, want today default", rec.Date)
	}

	if entry.Tab != store.TabExpenses {
		t.Errorf("activity tab = %q, want expenses", entry.Tab)
	}
	if !strings.Contains(entry.Action, "₦7500") || !strings.Contains(entry.Action, "Fix borehole pump") {
		t.Errorf("activity = %q, want amount and description", entry.Action)
	}
}

func TestAddExpense_DefaultCategory(t *testing.T) {
	r, st := newTestRegistry(t)

	_, err := r.Apply(model.ToolCall{Name: "addExpense", Arguments: map[string]any{
		"amount":      float64(100),
		"description": "Misc",
	}})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	expenses := st.Expenses()
	if got := expenses[len(expenses)-1].Category; got != defaultExpenseCategory {
		t.Errorf("category = %q, want %q", got, defaultExpenseCategory)
	}
}

func TestAddExpense_MissingFieldMutatesNothing(t *testing.T) {
	r, st := newTestRegistry(t)
	before := len(st.Expenses())
	feedBefore := len(st.ActivityFeed(""))

	_, err := r.Apply(model.ToolCall{Name: "addExpense", Arguments: map[string]any{
		"description": "no amount supplied",
	}})
	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingFieldError", err)
	}
	if missing.Field != "amount" {
		t.Errorf("field = %q, want amount", missing.Field)
	}
	if len(st.Expenses()) != before {
		t.Error("rejected call must not add an expense")
	}
	if len(st.ActivityFeed("")) != feedBefore {
		t.Error("rejected call must not log activity")
	}
}

func TestAddExpense_NegativeAmount(t *testing.T) {
	r, st := newTestRegistry(t)
	before := len(st.Expenses())

	_, err := r.Apply(model.ToolCall{Name: "addExpense", Arguments: map[string]any{
		"amount":      float64(-500),
		"description": "refund?",
	}})
	if !errors.Is(err, store.ErrNegativeAmount) {
		t.Fatalf("err = %v, want ErrNegativeAmount", err)
	}
	if len(st.Expenses()) != before {
		t.Error("negative amount must not be recorded")
	}
}

func TestAddExpense_StringAmount(t *testing.T) {
	r, st := newTestRegistry(t)

	_, err := r.Apply(model.ToolCall{Name: "addExpense", Arguments: map[string]any{
		"amount":      "2500.50",
		"description": "Printer toner",
	}})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	expenses := st.Expenses()
	if got := expenses[len(expenses)-1].Amount; !got.Equal(decimal.RequireFromString("2500.50")) {
		t.Errorf("amount = %s, want 2500.50", got)
	}
}

func TestAddTask_Applies(t *testing.T) {
	r, st := newTestRegistry(t)
	before := len(st.Tasks())

	entry, err := r.Apply(model.ToolCall{Name: "addTask", Arguments: map[string]any{
		"title":    "Call PTA chair",
		"dueDate":  "2024-06-10",
		"priority": "High",
	}})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}

	tasks := st.Tasks()
	if len(tasks) != before+1 {
		t.Fatalf("tasks = %d, want %d", len(tasks), before+1)
	}
	rec := tasks[len(tasks)-1]
	if rec.Priority != store.PriorityHigh {
		t.Errorf("priority = %q, want High", rec.Priority)
	}
	if rec.Completed {
		t.Error("tool-created task must start incomplete")
	}
	if rec.Origin != store.OriginAssistant {
		t.Errorf("origin = %q, want assistant", rec.Origin)
	}
	if entry.Tab != store.TabTasks {
		t.Errorf("activity tab = %q, want tasks", entry.Tab)
	}
}

func TestAddTask_UnrecognizedPriorityDefaultsToMedium(t *testing.T) {
	r, st := newTestRegistry(t)

	_, err := r.Apply(model.ToolCall{Name: "addTask", Arguments: map[string]any{
		"title":    "Sort library",
		"dueDate":  "2024-06-11",
		"priority": "URGENT!!",
	}})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	tasks := st.Tasks()
	if got := tasks[len(tasks)-1].Priority; got != store.PriorityMedium {
		t.Errorf("priority = %q, want Medium", got)
	}
}

func TestAddTask_MissingDueDate(t *testing.T) {
	r, st := newTestRegistry(t)
	before := len(st.Tasks())

	_, err := r.Apply(model.ToolCall{Name: "addTask", Arguments: map[string]any{
		"title": "No deadline",
	}})
	var missing *MissingFieldError
	if !errors.As(err, &missing) || missing.Field != "dueDate" {
		t.Fatalf("err = %v, want MissingFieldError for dueDate", err)
	}
	if len(st.Tasks()) != before {
		t.Error("rejected call must not add a task")
	}
}

func TestAddIncome_Applies(t *testing.T) {
	r, st := newTestRegistry(t)

	entry, err := r.Apply(model.ToolCall{Name: "addIncome", Arguments: map[string]any{
		"amount": float64(150000),
		"source": "School Fees",
	}})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}

	income := st.IncomeRecords()
	if len(income) != 1 {
		t.Fatalf("income = %d, want 1", len(income))
	}
	if income[0].Origin != store.OriginAssistant {
		t.Errorf("origin = %q, want assistant", income[0].Origin)
	}

	// Revenue activity lands on the expenses feed alongside spending.
	if entry.Tab != store.TabExpenses {
		t.Errorf("activity tab = %q, want expenses", entry.Tab)
	}
	if !strings.Contains(entry.Action, "School Fees") {
		t.Errorf("activity = %q, want source named", entry.Action)
	}
}

func TestAddIncome_TotalsExact(t *testing.T) {
	r, st := newTestRegistry(t)

	for i := 0; i < 3; i++ {
		if _, err := r.Apply(model.ToolCall{Name: "addIncome", Arguments: map[string]any{
			"amount": "0.10",
			"source": "Bake sale",
		}}); err != nil {
			t.Fatalf("Apply error: %v", err)
		}
	}
	if got := st.Totals().TotalIncome; !got.Equal(decimal.RequireFromString("0.30")) {
		t.Errorf("TotalIncome = %s, want exactly 0.30", got)
	}
}
