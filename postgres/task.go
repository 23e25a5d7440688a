package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/buildgrid/cpm"
)

const taskColumns = `id, project_id, name, duration_days, planned_start_date, planned_finish_date,
	cost_planned, cost_actual, percent_complete, notes`

// AddTask inserts a single task into a project.
// If task.ID is empty, a UUID is auto-generated.
// Returns the task ID (generated or provided).
func (s *PGStore) AddTask(ctx context.Context, projectID string, task *cpm.Task) (string, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.ProjectID = projectID

	_, err := s.db.Exec(ctx,
		`INSERT INTO tasks (id, project_id, name, duration_days, planned_start_date, planned_finish_date,
			cost_planned, cost_actual, percent_complete, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		task.ID, projectID, task.Name, task.DurationDays, dateArg(task.PlannedStart), dateArg(task.PlannedFinish),
		task.CostPlanned, task.CostActual, task.PercentComplete, task.Notes,
	)
	if err != nil {
		return "", fmt.Errorf("cpm: insert task: %w", err)
	}

	return task.ID, nil
}

// GetTask fetches a single task by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetTask(ctx context.Context, taskID string) (*cpm.Task, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, taskID)

	t, err := scanTask(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cpm: get task: %w", err)
	}

	return t, nil
}

// UpdateTask replaces a task's editable fields: name, duration, costs,
// percent complete and notes. Planned dates are written only by
// SavePlannedDates, so computed schedules cannot be edited by hand.
// Returns ErrTaskNotFound if the task doesn't exist.
func (s *PGStore) UpdateTask(ctx context.Context, task *cpm.Task) error {
	ct, err := s.db.Exec(ctx,
		`UPDATE tasks SET name = $1, duration_days = $2, cost_planned = $3, cost_actual = $4,
			percent_complete = $5, notes = $6 WHERE id = $7`,
		task.Name, task.DurationDays, task.CostPlanned, task.CostActual,
		task.PercentComplete, task.Notes, task.ID,
	)
	if err != nil {
		return fmt.Errorf("cpm: update task: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return cpm.ErrTaskNotFound
	}
	return nil
}

// DeleteTask deletes a task by its ID.
// Dependencies touching the task are cascade-deleted by the DB.
// No error if the task doesn't exist.
func (s *PGStore) DeleteTask(ctx context.Context, taskID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, taskID)
	if err != nil {
		return fmt.Errorf("cpm: delete task: %w", err)
	}
	return nil
}

// ListTasks returns all tasks for a project, ordered by created_at.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListTasks(ctx context.Context, projectID string) ([]cpm.Task, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE project_id = $1 ORDER BY created_at`, projectID)
	if err != nil {
		return nil, fmt.Errorf("cpm: list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []cpm.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("cpm: scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cpm: rows tasks: %w", err)
	}

	return tasks, nil
}

// scanTask reads one task row in taskColumns order.
func scanTask(row interface{ Scan(dest ...any) error }) (*cpm.Task, error) {
	var (
		t             cpm.Task
		start, finish *time.Time
	)
	err := row.Scan(&t.ID, &t.ProjectID, &t.Name, &t.DurationDays, &start, &finish,
		&t.CostPlanned, &t.CostActual, &t.PercentComplete, &t.Notes)
	if err != nil {
		return nil, err
	}
	t.PlannedStart = dateVal(start)
	t.PlannedFinish = dateVal(finish)
	return &t, nil
}
