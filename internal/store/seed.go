package store

import "github.com/shopspring/decimal"

// Seed records used when a collection has never been persisted, so a
// fresh install shows a populated dashboard.

func seedExpenses() []Expense {
	return []Expense{
		{ID: "seed-exp-1", Date: "2024-05-10", Category: "Maintenance", Description: "Repair classroom AC", Amount: decimal.NewFromInt(250), Origin: OriginUser},
		{ID: "seed-exp-2", Date: "2024-05-11", Category: "Supplies", Description: "Whiteboard markers and chalk", Amount: decimal.NewFromInt(45), Origin: OriginUser},
		{ID: "seed-exp-3", Date: "2024-05-12", Category: "Utilities", Description: "Electricity Bill", Amount: decimal.NewFromInt(1200), Origin: OriginUser},
	}
}

func seedInventory() []InventoryItem {
	return []InventoryItem{
		{ID: "seed-inv-1", Name: "Exercise Books", Category: "Stationery", Quantity: 15, Status: StatusLow},
		{ID: "seed-inv-2", Name: "Floor Cleaner", Category: "Cleaning", Quantity: 50, Status: StatusInStock},
		{ID: "seed-inv-3", Name: "Printing Paper (A4)", Category: "Office", Quantity: 2, Status: StatusLow},
	}
}

func seedTasks() []Task {
	return []Task{
		{ID: "seed-task-1", Title: "Review Parent-Teacher Meeting Agenda", DueDate: "2024-05-15", Priority: PriorityHigh, Origin: OriginUser},
		{ID: "seed-task-2", Title: "Renew School Bus Insurance", DueDate: "2024-05-20", Priority: PriorityMedium, Origin: OriginUser},
		{ID: "seed-task-3", Title: "Distribute Mid-term reports", DueDate: "2024-05-14", Priority: PriorityHigh, Completed: true, Origin: OriginUser},
	}
}

func seedStaff() []StaffRecord {
	return []StaffRecord{
		{
			ID: "seed-staff-1", Name: "Sarah Mensah", Role: "Primary 4 Teacher",
			Phone: "+233 24 555 0101", Email: "sarah.m@lumen.edu",
			JoiningDate: "2022-09-01", AgreementSigned: true,
			Guarantor: Guarantor{Name: "John Mensah", Phone: "+233 20 555 0202", Address: "Plot 45, Airport Residential Area, Accra"},
		},
		{
			ID: "seed-staff-2", Name: "David Okafor", Role: "French Language Instructor",
			Phone: "+233 50 111 2233", Email: "d.okafor@lumen.edu",
			JoiningDate: "2023-01-15", AgreementSigned: true,
			Guarantor: Guarantor{Name: "Beatrice Okafor", Phone: "+233 24 333 4455", Address: "House B12, East Legon"},
		},
	}
}

func seedRoutes() []BusSchedule {
	return []BusSchedule{
		{
			ID: "seed-bus-1", BusNumber: "SD-01", Route: "Route Alpha: Airport - Cantonments", PickupTime: "06:30 AM",
			Driver: Driver{Name: "Kofi Boateng", Phone: "+233 24 999 8877", HomeAddress: "Spintex Road, Behind Junction Mall", AgencyDetails: "SecureDrive Agency, Osu Office"},
		},
		{
			ID: "seed-bus-2", BusNumber: "SD-02", Route: "Route Beta: Labone - Osu", PickupTime: "06:45 AM",
			Driver: Driver{Name: "Emmanuel Tetteh", Phone: "+233 55 222 3344", HomeAddress: "Teshie Nungua Estates", AgencyDetails: "Independent Contractor"},
		},
	}
}

func seedPolicies() []Policy {
	return []Policy{
		{
			ID: "seed-pol-1", Target: "Teachers", Title: "Punctuality and Dress Code",
			Content: "All teachers must be present on school premises by 7:15 AM. Attire must be professional and formal at all times. Use of mobile phones during instructional hours is strictly prohibited unless for emergency cases.",
		},
		{
			ID: "seed-pol-2", Target: "Parents", Title: "Fee Payment Policy",
			Content: "School fees are to be paid in full before the commencement of each term. A grace period of 5 working days is allowed, after which a 5% late fee penalty applies.",
		},
	}
}
