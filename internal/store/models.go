package store

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Tab identifies a dashboard view. Activity entries are tagged with the
// view they pertain to so each view can surface its own feed.
type Tab string

const (
	TabDashboard Tab = "dashboard"
	TabExpenses  Tab = "expenses"
	TabInventory Tab = "inventory"
	TabTasks     Tab = "tasks"
	TabStaff     Tab = "staff"
	TabTransport Tab = "transport"
	TabPolicies  Tab = "policies"
)

// Origin records whether an entry came from a direct form submission or
// from the assistant's tool path.
type Origin string

const (
	OriginUser      Origin = "user"
	OriginAssistant Origin = "assistant"
)

// Priority levels for tasks.
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// Inventory stock states.
const (
	StatusInStock    = "In Stock"
	StatusLow        = "Low"
	StatusOutOfStock = "Out of Stock"
)

// DateLayout is the calendar-date format used across all collections.
const DateLayout = "2006-01-02"

// Today returns the current date in DateLayout.
func Today() string {
	return time.Now().Format(DateLayout)
}

// Expense is a single outgoing monetary record. Amount is always a
// non-negative magnitude; direction is implied by the collection.
type Expense struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Origin      Origin          `json:"origin"`
}

// Income is a single incoming monetary record.
type Income struct {
	ID     string          `json:"id"`
	Date   string          `json:"date"`
	Source string          `json:"source"`
	Amount decimal.Decimal `json:"amount"`
	Origin Origin          `json:"origin"`
}

// InventoryItem tracks a stocked asset. The "needed" flag is derived
// from Status rather than stored, so the two cannot disagree.
type InventoryItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
	Status   string `json:"status"`
}

// Needed reports whether the item should appear on the restock list.
func (i InventoryItem) Needed() bool {
	return i.Status != StatusInStock
}

// MarshalJSON emits the derived needed flag alongside the stored
// fields so consumers keep their existing shape.
func (i InventoryItem) MarshalJSON() ([]byte, error) {
	type alias InventoryItem
	return json.Marshal(struct {
		alias
		Needed bool `json:"needed"`
	}{alias(i), i.Needed()})
}

// Task is an administrative to-do.
type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	DueDate   string `json:"dueDate"`
	Priority  string `json:"priority"`
	Completed bool   `json:"completed"`
	Origin    Origin `json:"origin"`
}

// Guarantor backs a staff member's employment agreement.
type Guarantor struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// StaffRecord holds one staff member's particulars.
type StaffRecord struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Role            string    `json:"role"`
	Phone           string    `json:"phone"`
	Email           string    `json:"email"`
	JoiningDate     string    `json:"joiningDate"`
	AgreementSigned bool      `json:"agreementSigned"`
	Guarantor       Guarantor `json:"guarantor"`
}

// Driver identifies who operates a bus route.
type Driver struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	HomeAddress   string `json:"homeAddress"`
	AgencyDetails string `json:"agencyDetails"`
}

// BusSchedule is one transport route.
type BusSchedule struct {
	ID         string `json:"id"`
	BusNumber  string `json:"busNumber"`
	Route      string `json:"route"`
	PickupTime string `json:"pickupTime"`
	Driver     Driver `json:"driver"`
}

// Policy is read-only reference data surfaced by the policy view.
type Policy struct {
	ID      string `json:"id"`
	Target  string `json:"target"` // Teachers | Students | Parents
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Activity is one entry in the assistant activity feed.
type Activity struct {
	ID        string    `json:"id"`
	Tab       Tab       `json:"tab"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// Totals are the derived financial aggregates. They are recomputed from
// the monetary collections on every read and never stored.
type Totals struct {
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	Net           decimal.Decimal `json:"netBalance"`
}
