package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Collection keys in the persistence backend.
const (
	keyExpenses  = "expenses"
	keyIncome    = "income"
	keyInventory = "inventory"
	keyTasks     = "tasks"
	keyStaff     = "staff"
	keyRoutes    = "busSchedules"
	keyActivity  = "aiActivity"
)

// maxActivityEntries bounds the assistant activity feed; inserting past
// the cap evicts the oldest entry.
const maxActivityEntries = 20

var (
	ErrNotFound       = errors.New("record not found")
	ErrNegativeAmount = errors.New("amount must not be negative")
)

// Store holds every domain collection behind a single lock. There is
// exactly one writer role (the local session), so a RWMutex is enough.
// Collections are loaded once at construction and written back through
// the Backend after every change; persistence failures are logged and
// never block the caller.
type Store struct {
	mu      sync.RWMutex
	backend Backend

	expenses  []Expense
	income    []Income
	inventory []InventoryItem
	tasks     []Task
	staff     []StaffRecord
	routes    []BusSchedule
	policies  []Policy
	activity  []Activity
}

// NewStore loads all collections from backend, seeding any that are
// absent or unparsable.
func NewStore(backend Backend) (*Store, error) {
	if backend == nil {
		return nil, errors.New("store backend is required")
	}
	s := &Store{backend: backend}
	s.expenses = loadOr(backend, keyExpenses, seedExpenses())
	s.income = loadOr(backend, keyIncome, []Income{})
	s.inventory = loadOr(backend, keyInventory, seedInventory())
	s.tasks = loadOr(backend, keyTasks, seedTasks())
	s.staff = loadOr(backend, keyStaff, seedStaff())
	s.routes = loadOr(backend, keyRoutes, seedRoutes())
	s.activity = loadOr(backend, keyActivity, []Activity{})
	s.policies = seedPolicies() // read-only reference data, not persisted
	return s, nil
}

func loadOr[T any](b Backend, key string, def []T) []T {
	var out []T
	found, err := b.Load(key, &out)
	if err != nil {
		log.Printf("[store] load %s: %v (falling back to defaults)", key, err)
		return def
	}
	if !found {
		return def
	}
	if out == nil {
		out = []T{}
	}
	return out
}

func (s *Store) persist(key string, v any) {
	if err := s.backend.Save(key, v); err != nil {
		log.Printf("[store] persist %s: %v", key, err)
	}
}

// --- read paths -------------------------------------------------------

func (s *Store) Expenses() []Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Expense(nil), s.expenses...)
}

func (s *Store) IncomeRecords() []Income {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Income(nil), s.income...)
}

func (s *Store) Inventory() []InventoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]InventoryItem(nil), s.inventory...)
}

func (s *Store) Tasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Task(nil), s.tasks...)
}

func (s *Store) Staff() []StaffRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]StaffRecord(nil), s.staff...)
}

func (s *Store) Routes() []BusSchedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]BusSchedule(nil), s.routes...)
}

func (s *Store) Policies() []Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Policy(nil), s.policies...)
}

// Totals recomputes the financial aggregates from the monetary
// collections. Never cached.
func (s *Store) Totals() Totals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var t Totals
	for _, e := range s.expenses {
		t.TotalExpenses = t.TotalExpenses.Add(e.Amount)
	}
	for _, i := range s.income {
		t.TotalIncome = t.TotalIncome.Add(i.Amount)
	}
	t.Net = t.TotalIncome.Sub(t.TotalExpenses)
	return t
}

// NeededItems lists the names of inventory items flagged for restock.
func (s *Store) NeededItems() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := []string{}
	for _, item := range s.inventory {
		if item.Needed() {
			names = append(names, item.Name)
		}
	}
	return names
}

func (s *Store) StaffCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.staff)
}

// --- direct (UI) write paths -----------------------------------------

type ExpenseInput struct {
	Amount      decimal.Decimal
	Category    string
	Description string
	Date        string
}

type IncomeInput struct {
	Amount decimal.Decimal
	Source string
	Date   string
}

type TaskInput struct {
	Title    string
	DueDate  string
	Priority string
}

type StaffInput struct {
	Name  string
	Role  string
	Phone string
	Email string
}

type RouteInput struct {
	BusNumber  string
	Route      string
	PickupTime string
	Driver     Driver
}

func (s *Store) AddExpense(in ExpenseInput) (Expense, error) {
	if in.Amount.IsNegative() {
		return Expense{}, ErrNegativeAmount
	}
	e := Expense{
		ID:          uuid.NewString(),
		Date:        orToday(in.Date),
		Category:    in.Category,
		Description: in.Description,
		Amount:      in.Amount,
		Origin:      OriginUser,
	}
	s.AppendExpense(e)
	return e, nil
}

func (s *Store) AddIncome(in IncomeInput) (Income, error) {
	if in.Amount.IsNegative() {
		return Income{}, ErrNegativeAmount
	}
	rec := Income{
		ID:     uuid.NewString(),
		Date:   orToday(in.Date),
		Source: in.Source,
		Amount: in.Amount,
		Origin: OriginUser,
	}
	s.AppendIncome(rec)
	return rec, nil
}

func (s *Store) AddTask(in TaskInput) Task {
	t := Task{
		ID:       uuid.NewString(),
		Title:    in.Title,
		DueDate:  in.DueDate,
		Priority: in.Priority,
		Origin:   OriginUser,
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	s.AppendTask(t)
	return t
}

func (s *Store) AddStaff(in StaffInput) StaffRecord {
	rec := StaffRecord{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Role:        in.Role,
		Phone:       in.Phone,
		Email:       in.Email,
		JoiningDate: Today(),
	}
	s.mu.Lock()
	s.staff = append(s.staff, rec)
	snapshot := append([]StaffRecord(nil), s.staff...)
	s.mu.Unlock()
	s.persist(keyStaff, snapshot)
	return rec
}

func (s *Store) AddRoute(in RouteInput) BusSchedule {
	rec := BusSchedule{
		ID:         uuid.NewString(),
		BusNumber:  in.BusNumber,
		Route:      in.Route,
		PickupTime: in.PickupTime,
		Driver:     in.Driver,
	}
	if rec.PickupTime == "" {
		rec.PickupTime = "06:30 AM"
	}
	if rec.Driver.Name == "" {
		rec.Driver.Name = "Unassigned"
	}
	s.mu.Lock()
	s.routes = append(s.routes, rec)
	snapshot := append([]BusSchedule(nil), s.routes...)
	s.mu.Unlock()
	s.persist(keyRoutes, snapshot)
	return rec
}

// ToggleTask flips a task's completed flag.
func (s *Store) ToggleTask(id string) (Task, error) {
	s.mu.Lock()
	var toggled Task
	found := false
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i].Completed = !s.tasks[i].Completed
			toggled = s.tasks[i]
			found = true
			break
		}
	}
	snapshot := append([]Task(nil), s.tasks...)
	s.mu.Unlock()
	if !found {
		return Task{}, fmt.Errorf("toggle task %s: %w", id, ErrNotFound)
	}
	s.persist(keyTasks, snapshot)
	return toggled, nil
}

// ToggleAgreement flips a staff member's agreement-signed flag.
func (s *Store) ToggleAgreement(id string) (StaffRecord, error) {
	s.mu.Lock()
	var toggled StaffRecord
	found := false
	for i := range s.staff {
		if s.staff[i].ID == id {
			s.staff[i].AgreementSigned = !s.staff[i].AgreementSigned
			toggled = s.staff[i]
			found = true
			break
		}
	}
	snapshot := append([]StaffRecord(nil), s.staff...)
	s.mu.Unlock()
	if !found {
		return StaffRecord{}, fmt.Errorf("toggle agreement %s: %w", id, ErrNotFound)
	}
	s.persist(keyStaff, snapshot)
	return toggled, nil
}

// ResetFinances clears both monetary collections. Irreversible; callers
// gate it behind an explicit confirmation. The wipe is logged to the
// activity feed.
func (s *Store) ResetFinances() {
	s.mu.Lock()
	s.expenses = []Expense{}
	s.income = []Income{}
	entry := s.appendActivityLocked(TabExpenses, "Performed a complete treasury reset.")
	activitySnapshot := append([]Activity(nil), s.activity...)
	s.mu.Unlock()
	s.persist(keyExpenses, []Expense{})
	s.persist(keyIncome, []Income{})
	s.persist(keyActivity, activitySnapshot)
	log.Printf("[store] treasury reset (%s)", entry.ID)
}

// --- assistant (executor) write paths --------------------------------
//
// The tool executor constructs fully-formed records and appends them
// here; these never update or delete existing records.

func (s *Store) AppendExpense(e Expense) {
	s.mu.Lock()
	s.expenses = append(s.expenses, e)
	snapshot := append([]Expense(nil), s.expenses...)
	s.mu.Unlock()
	s.persist(keyExpenses, snapshot)
}

func (s *Store) AppendIncome(rec Income) {
	s.mu.Lock()
	s.income = append(s.income, rec)
	snapshot := append([]Income(nil), s.income...)
	s.mu.Unlock()
	s.persist(keyIncome, snapshot)
}

func (s *Store) AppendTask(t Task) {
	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	snapshot := append([]Task(nil), s.tasks...)
	s.mu.Unlock()
	s.persist(keyTasks, snapshot)
}

// --- activity feed ----------------------------------------------------

// LogActivity prepends an entry to the activity feed, evicting past the
// cap, and persists the feed.
func (s *Store) LogActivity(tab Tab, action string) Activity {
	s.mu.Lock()
	entry := s.appendActivityLocked(tab, action)
	snapshot := append([]Activity(nil), s.activity...)
	s.mu.Unlock()
	s.persist(keyActivity, snapshot)
	return entry
}

func (s *Store) appendActivityLocked(tab Tab, action string) Activity {
	entry := Activity{
		ID:        uuid.NewString(),
		Tab:       tab,
		Action:    action,
		Timestamp: time.Now(),
	}
	s.activity = append([]Activity{entry}, s.activity...)
	if len(s.activity) > maxActivityEntries {
		s.activity = s.activity[:maxActivityEntries]
	}
	return entry
}

// ActivityFeed returns the feed newest-first, optionally filtered by
// tab. Pass an empty Tab for the unfiltered feed.
func (s *Store) ActivityFeed(tab Tab) []Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tab == "" {
		return append([]Activity(nil), s.activity...)
	}
	out := []Activity{}
	for _, a := range s.activity {
		if a.Tab == tab {
			out = append(out, a)
		}
	}
	return out
}

// Backup writes every persisted collection to a single JSON file at
// path, creating parent directories as needed.
func (s *Store) Backup(path string) error {
	s.mu.RLock()
	dump := map[string]any{
		keyExpenses:  s.expenses,
		keyIncome:    s.income,
		keyInventory: s.inventory,
		keyTasks:     s.tasks,
		keyStaff:     s.staff,
		keyRoutes:    s.routes,
		keyActivity:  s.activity,
	}
	data, err := json.MarshalIndent(dump, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal backup: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func orToday(date string) string {
	if date == "" {
		return Today()
	}
	return date
}
