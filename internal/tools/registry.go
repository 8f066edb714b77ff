// Package tools declares the fixed catalog of mutation actions the
// assistant may invoke and applies invocations to the domain store.
// Schema and handler live side by side in the registry so the two
// cannot drift apart.
package tools

import (
	"fmt"

	"github.com/cexll/agentsdk-go/pkg/model"
	"github.com/lumenedu/schooldesk/internal/store"
)

// Handler applies one validated invocation to the store and returns the
// activity entry it produced.
type Handler func(args map[string]any) (store.Activity, error)

// Tool pairs a schema (sent verbatim to the completion service) with
// the handler that applies its invocations.
type Tool struct {
	Definition model.ToolDefinition
	run        Handler
}

// Registry is the immutable, ordered tool catalog bound to one store.
type Registry struct {
	store *store.Store
	tools []Tool
	index map[string]int
}

// NewRegistry builds the catalog: addExpense, addTask, addIncome.
func NewRegistry(st *store.Store) *Registry {
	r := &Registry{store: st, index: make(map[string]int)}

	r.register(Tool{
		Definition: model.ToolDefinition{
			Name:        "addExpense",
			Description: "Record a new school expense.",
			Parameters: objectSchema(map[string]any{
				"amount":      prop("number", "The cost in Naira."),
				"category":    prop("string", "Category (Operational, Salaries, Maintenance, Utilities, Supplies)."),
				"description": prop("string", "Detailed note about the expense."),
				"date":        prop("string", "ISO format date (YYYY-MM-DD)."),
			}, "amount", "category", "description"),
		},
		run: r.addExpense,
	})

	r.register(Tool{
		Definition: model.ToolDefinition{
			Name:        "addTask",
			Description: "Create a new administrative task or activity.",
			Parameters: objectSchema(map[string]any{
				"title":    prop("string", "Task title."),
				"dueDate":  prop("string", "Deadline (YYYY-MM-DD)."),
				"priority": prop("string", "High, Medium, or Low."),
			}, "title", "dueDate", "priority"),
		},
		run: r.addTask,
	})

	r.register(Tool{
		Definition: model.ToolDefinition{
			Name:        "addIncome",
			Description: "Log school revenue (fees, etc.).",
			Parameters: objectSchema(map[string]any{
				"amount": prop("number", "Amount in Naira."),
				"source": prop("string", "Source (School Fees, Admission, etc.)."),
				"date":   prop("string", "YYYY-MM-DD format."),
			}, "amount", "source"),
		},
		run: r.addIncome,
	})

	return r
}

func (r *Registry) register(t Tool) {
	r.index[t.Definition.Name] = len(r.tools)
	r.tools = append(r.tools, t)
}

// Definitions returns the catalog in registration order, for inclusion
// in every completion request.
func (r *Registry) Definitions() []model.ToolDefinition {
	defs := make([]model.ToolDefinition, len(r.tools))
	for i, t := range r.tools {
		defs[i] = t.Definition
	}
	return defs
}

// Apply validates and executes a single invocation. A failed invocation
// mutates nothing; the caller logs the error and moves on to the next.
func (r *Registry) Apply(call model.ToolCall) (store.Activity, error) {
	i, ok := r.index[call.Name]
	if !ok {
		return store.Activity{}, fmt.Errorf("unknown tool %q", call.Name)
	}
	return r.tools[i].run(call.Arguments)
}
