package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/buildgrid/cpm"
	"github.com/buildgrid/cpm/postgres"
)

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	// Wire up the postgres implementation behind the Store interface.
	var store cpm.Store = postgres.New(pool)

	// 1. Create tables
	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}
	fmt.Println("schema created")

	// ── Bulk import using refs ────────────────────────────────────────
	start := cpm.NewDate(2025, time.March, 3)
	plan := &cpm.ProjectPlan{
		Project: cpm.Project{
			ID:        "kitchen-renovation",
			Name:      "Kitchen renovation",
			StartDate: &start,
			Budget:    40000,
		},
		Tasks: []cpm.Task{
			{Ref: "demo", Name: "Demolition", DurationDays: 3, CostPlanned: 4000},
			{Ref: "electrical", Name: "Electrical rough-in", DurationDays: 4, CostPlanned: 6500},
			{Ref: "plumbing", Name: "Plumbing rough-in", DurationDays: 5, CostPlanned: 8000},
			{Ref: "drywall", Name: "Drywall and paint", DurationDays: 6, CostPlanned: 7500},
		},
		Dependencies: []cpm.Dependency{
			{PredecessorRef: "demo", SuccessorRef: "electrical"},
			{PredecessorRef: "demo", SuccessorRef: "plumbing"},
			{PredecessorRef: "electrical", SuccessorRef: "drywall"},
			{PredecessorRef: "plumbing", SuccessorRef: "drywall"},
		},
	}

	imported, err := store.ImportPlan(ctx, plan)
	if err != nil {
		log.Fatalf("import plan: %v", err)
	}
	fmt.Println("plan imported (bulk with refs)")
	printJSON(imported)

	// ── Compute the critical path ─────────────────────────────────────
	projectSched, taskScheds, err := cpm.Compute(imported.Project, imported.Tasks, imported.Dependencies)
	if err != nil {
		log.Fatalf("compute: %v", err)
	}
	if err := store.SavePlannedDates(ctx, imported.Project.ID, taskScheds); err != nil {
		log.Fatalf("save planned dates: %v", err)
	}
	fmt.Println("\nschedule computed:")
	printJSON(projectSched)

	// ── Granular: add a single task ───────────────────────────────────
	cabinetsID, err := store.AddTask(ctx, "kitchen-renovation", &cpm.Task{
		Name:         "Cabinet install",
		DurationDays: 4,
		CostPlanned:  9000,
	})
	if err != nil {
		log.Fatalf("add task: %v", err)
	}
	fmt.Printf("\nadded task: %s\n", cabinetsID)

	// ── Granular: add a dependency drywall → cabinets ─────────────────
	drywallID := imported.Tasks[3].ID
	depID, err := store.AddDependency(ctx, "kitchen-renovation", &cpm.Dependency{
		PredecessorID: drywallID,
		SuccessorID:   cabinetsID,
	})
	if err != nil {
		log.Fatalf("add dependency: %v", err)
	}
	fmt.Printf("added dependency: %s\n", depID)

	// ── Reschedule with the new task ──────────────────────────────────
	refreshed, err := store.GetPlan(ctx, "kitchen-renovation")
	if err != nil {
		log.Fatalf("get plan: %v", err)
	}
	projectSched, taskScheds, err = cpm.Compute(refreshed.Project, refreshed.Tasks, refreshed.Dependencies)
	if err != nil {
		log.Fatalf("compute: %v", err)
	}
	if err := store.SavePlannedDates(ctx, "kitchen-renovation", taskScheds); err != nil {
		log.Fatalf("save planned dates: %v", err)
	}
	fmt.Printf("\nfinish after cabinet install: %s\n", projectSched.FinishDate)

	// ── Costs and alerts ──────────────────────────────────────────────
	tasks, err := store.ListTasks(ctx, "kitchen-renovation")
	if err != nil {
		log.Fatalf("list tasks: %v", err)
	}
	fmt.Println("\ncosts:")
	printJSON(cpm.ProjectCosts("kitchen-renovation", tasks))
	fmt.Println("\nalerts:")
	printJSON(cpm.ScheduleAlerts(tasks, cpm.DateOf(time.Now())))

	// ── Cleanup ───────────────────────────────────────────────────────
	if err := store.DeleteProject(ctx, "kitchen-renovation"); err != nil {
		log.Fatalf("delete: %v", err)
	}
	fmt.Println("\nproject deleted")
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
