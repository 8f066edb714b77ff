package tools

import (
	"fmt"
	"strings"

	"github.com/lumenedu/schooldesk/internal/store"
	"github.com/shopspring/decimal"
)

// MissingFieldError names a required argument the completion service
// failed to supply. The invocation is rejected without mutating state.
type MissingFieldError struct {
	Tool  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing required argument %q", e.Tool, e.Field)
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

// requireAmount extracts a non-negative monetary magnitude. JSON
// numbers arrive as float64; tolerate integers and numeric strings too.
func requireAmount(tool string, args map[string]any) (decimal.Decimal, error) {
	raw, ok := args["amount"]
	if !ok || raw == nil {
		return decimal.Decimal{}, &MissingFieldError{Tool: tool, Field: "amount"}
	}
	var amount decimal.Decimal
	switch v := raw.(type) {
	case float64:
		amount = decimal.NewFromFloat(v)
	case int:
		amount = decimal.NewFromInt(int64(v))
	case int64:
		amount = decimal.NewFromInt(v)
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("%s: amount %q: %w", tool, v, err)
		}
		amount = parsed
	default:
		return decimal.Decimal{}, fmt.Errorf("%s: amount has unsupported type %T", tool, raw)
	}
	if amount.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%s: %w", tool, store.ErrNegativeAmount)
	}
	return amount, nil
}

func requireString(tool, field string, args map[string]any) (string, error) {
	if s := stringArg(args, field); s != "" {
		return s, nil
	}
	return "", &MissingFieldError{Tool: tool, Field: field}
}

func optionalString(args map[string]any, field, def string) string {
	if s := stringArg(args, field); s != "" {
		return s
	}
	return def
}

// optionalDate defaults to the current date when absent.
func optionalDate(args map[string]any) string {
	if s := stringArg(args, "date"); s != "" {
		return s
	}
	return store.Today()
}

func priorityOrDefault(args map[string]any) string {
	switch stringArg(args, "priority") {
	case store.PriorityHigh:
		return store.PriorityHigh
	case store.PriorityLow:
		return store.PriorityLow
	default:
		return store.PriorityMedium
	}
}

func stringArg(args map[string]any, field string) string {
	raw, ok := args[field]
	if !ok {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
