package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/buildgrid/cpm"
)

// ImportPlan saves a full project plan (project + tasks + dependencies) in
// one transaction. Tasks and dependencies without IDs get auto-generated
// UUIDs. Dependency refs (PredecessorRef/SuccessorRef) are resolved to real
// task IDs. The plan must be schedulable: unique task ids, no dangling
// references, no cycles. Existing tasks and dependencies of the project are
// replaced.
// Returns the plan with all IDs filled in.
func (s *PGStore) ImportPlan(ctx context.Context, plan *cpm.ProjectPlan) (*cpm.ProjectPlan, error) {
	project := &plan.Project
	if project.ID == "" {
		project.ID = uuid.NewString()
	}

	// Build ref → UUID mapping and assign IDs to tasks.
	refMap := make(map[string]string)
	for i := range plan.Tasks {
		t := &plan.Tasks[i]
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		t.ProjectID = project.ID
		if t.Ref != "" {
			refMap[t.Ref] = t.ID
		}
	}

	// Resolve dependency refs and assign IDs to edges.
	for i := range plan.Dependencies {
		d := &plan.Dependencies[i]
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		d.ProjectID = project.ID
		if d.PredecessorRef != "" {
			id, ok := refMap[d.PredecessorRef]
			if !ok {
				return nil, fmt.Errorf("%w: unknown predecessor_ref %q", cpm.ErrInvalidInput, d.PredecessorRef)
			}
			d.PredecessorID = id
		}
		if d.SuccessorRef != "" {
			id, ok := refMap[d.SuccessorRef]
			if !ok {
				return nil, fmt.Errorf("%w: unknown successor_ref %q", cpm.ErrInvalidInput, d.SuccessorRef)
			}
			d.SuccessorID = id
		}
	}

	// Reject duplicate ids, dangling references and cycles up front.
	if err := cpm.Validate(plan.Tasks, plan.Dependencies); err != nil {
		return nil, err
	}

	// Persist in a single transaction.
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("cpm: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO projects (id, name, description, start_date, budget) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET name = $2, description = $3, start_date = $4, budget = $5`,
		project.ID, project.Name, project.Description, dateArg(project.StartDate), project.Budget,
	); err != nil {
		return nil, fmt.Errorf("cpm: upsert project: %w", err)
	}

	// Delete existing plan data if any (replace semantics).
	if _, err := tx.Exec(ctx, `DELETE FROM task_dependencies WHERE project_id = $1`, project.ID); err != nil {
		return nil, fmt.Errorf("cpm: delete dependencies: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE project_id = $1`, project.ID); err != nil {
		return nil, fmt.Errorf("cpm: delete tasks: %w", err)
	}

	for _, t := range plan.Tasks {
		if _, err := tx.Exec(ctx,
			`INSERT INTO tasks (id, project_id, name, duration_days, planned_start_date, planned_finish_date,
				cost_planned, cost_actual, percent_complete, notes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			t.ID, project.ID, t.Name, t.DurationDays, dateArg(t.PlannedStart), dateArg(t.PlannedFinish),
			t.CostPlanned, t.CostActual, t.PercentComplete, t.Notes,
		); err != nil {
			return nil, fmt.Errorf("cpm: insert task %s: %w", t.ID, err)
		}
	}

	for _, d := range plan.Dependencies {
		if _, err := tx.Exec(ctx,
			`INSERT INTO task_dependencies (id, project_id, predecessor_id, successor_id) VALUES ($1, $2, $3, $4)`,
			d.ID, project.ID, d.PredecessorID, d.SuccessorID,
		); err != nil {
			return nil, fmt.Errorf("cpm: insert dependency %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("cpm: commit: %w", err)
	}

	// Clear ref fields from the response — they are not persisted.
	for i := range plan.Tasks {
		plan.Tasks[i].Ref = ""
	}
	for i := range plan.Dependencies {
		plan.Dependencies[i].PredecessorRef = ""
		plan.Dependencies[i].SuccessorRef = ""
	}

	return plan, nil
}

// GetPlan retrieves a full project plan (project + tasks + dependencies).
// Returns nil, nil if the project doesn't exist.
func (s *PGStore) GetPlan(ctx context.Context, projectID string) (*cpm.ProjectPlan, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, nil
	}

	tasks, err := s.ListTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}
	deps, err := s.ListDependencies(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return &cpm.ProjectPlan{Project: *project, Tasks: tasks, Dependencies: deps}, nil
}
