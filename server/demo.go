package main

import (
	"time"

	"github.com/buildgrid/cpm"
)

// demoPlan is a small residential construction project for trying the API.
// The framing fan-out makes the critical path non-obvious: plumbing drives
// the interior start while roofing and electrical carry float.
func demoPlan() *cpm.ProjectPlan {
	start := cpm.DateOf(time.Now())
	return &cpm.ProjectPlan{
		Project: cpm.Project{
			Name:        "Demo Residential Build",
			Description: "A sample 3-bedroom house build",
			StartDate:   &start,
			Budget:      2500000,
		},
		Tasks: []cpm.Task{
			{Ref: "site", Name: "Site preparation", DurationDays: 5, CostPlanned: 120000},
			{Ref: "foundation", Name: "Foundation and footings", DurationDays: 10, CostPlanned: 450000},
			{Ref: "framing", Name: "Structural framing", DurationDays: 15, CostPlanned: 600000},
			{Ref: "roofing", Name: "Roofing", DurationDays: 7, CostPlanned: 250000},
			{Ref: "plumbing", Name: "Plumbing rough-in", DurationDays: 8, CostPlanned: 180000},
			{Ref: "electrical", Name: "Electrical rough-in", DurationDays: 6, CostPlanned: 150000},
			{Ref: "interior", Name: "Interior finishing", DurationDays: 20, CostPlanned: 700000},
			{Ref: "inspection", Name: "Final inspection", DurationDays: 2, CostPlanned: 50000},
		},
		Dependencies: []cpm.Dependency{
			{PredecessorRef: "site", SuccessorRef: "foundation"},
			{PredecessorRef: "foundation", SuccessorRef: "framing"},
			{PredecessorRef: "framing", SuccessorRef: "roofing"},
			{PredecessorRef: "framing", SuccessorRef: "plumbing"},
			{PredecessorRef: "framing", SuccessorRef: "electrical"},
			{PredecessorRef: "roofing", SuccessorRef: "interior"},
			{PredecessorRef: "plumbing", SuccessorRef: "interior"},
			{PredecessorRef: "electrical", SuccessorRef: "interior"},
			{PredecessorRef: "interior", SuccessorRef: "inspection"},
		},
	}
}
