package tools

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/lumenedu/schooldesk/internal/store"
)

// Records created through the assistant carry this visible marker in
// their human-readable text, in addition to the Origin field.
const assistantMarker = "[AI]"

const defaultExpenseCategory = "Operational"

func (r *Registry) addExpense(args map[string]any) (store.Activity, error) {
	amount, err := requireAmount("addExpense", args)
	if err != nil {
		return store.Activity{}, err
	}
	description, err := requireString("addExpense", "description", args)
	if err != nil {
		return store.Activity{}, err
	}

	rec := store.Expense{
		ID:          uuid.NewString(),
		Date:        optionalDate(args),
		Category:    optionalString(args, "category", defaultExpenseCategory),
		Description: fmt.Sprintf("%s %s", assistantMarker, description),
		Amount:      amount,
		Origin:      store.OriginAssistant,
	}
	r.store.AppendExpense(rec)
	return r.store.LogActivity(store.TabExpenses,
		fmt.Sprintf("Recorded expense of ₦%s for %s", amount.String(), description)), nil
}

func (r *Registry) addTask(args map[string]any) (store.Activity, error) {
	title, err := requireString("addTask", "title", args)
	if err != nil {
		return store.Activity{}, err
	}
	dueDate, err := requireString("addTask", "dueDate", args)
	if err != nil {
		return store.Activity{}, err
	}

	rec := store.Task{
		ID:        uuid.NewString(),
		Title:     title,
		DueDate:   dueDate,
		Priority:  priorityOrDefault(args),
		Completed: false,
		Origin:    store.OriginAssistant,
	}
	r.store.AppendTask(rec)
	return r.store.LogActivity(store.TabTasks,
		fmt.Sprintf("Created new task: %s", title)), nil
}

func (r *Registry) addIncome(args map[string]any) (store.Activity, error) {
	amount, err := requireAmount("addIncome", args)
	if err != nil {
		return store.Activity{}, err
	}
	source, err := requireString("addIncome", "source", args)
	if err != nil {
		return store.Activity{}, err
	}

	rec := store.Income{
		ID:     uuid.NewString(),
		Date:   optionalDate(args),
		Source: source,
		Amount: amount,
		Origin: store.OriginAssistant,
	}
	r.store.AppendIncome(rec)
	// Income and expense activity share the expenses feed by design.
	return r.store.LogActivity(store.TabExpenses,
		fmt.Sprintf("Logged revenue of ₦%s from %s", amount.String(), source)), nil
}
