package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/buildgrid/cpm"
)

// AddDependency inserts a single precedence edge into a project.
// If dep.ID is empty, a UUID is auto-generated.
// Validates that both endpoints exist in the project and that the edge does
// not create a cycle.
// Returns the dependency ID (generated or provided).
func (s *PGStore) AddDependency(ctx context.Context, projectID string, dep *cpm.Dependency) (string, error) {
	if dep.ID == "" {
		dep.ID = uuid.NewString()
	}
	dep.ProjectID = projectID

	// Fetch the project's tasks and edges so the candidate edge can be
	// checked for dangling endpoints and cycles before it is inserted.
	tasks, err := s.ListTasks(ctx, projectID)
	if err != nil {
		return "", err
	}
	deps, err := s.ListDependencies(ctx, projectID)
	if err != nil {
		return "", err
	}

	deps = append(deps, *dep)
	if err := cpm.Validate(tasks, deps); err != nil {
		return "", err
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO task_dependencies (id, project_id, predecessor_id, successor_id) VALUES ($1, $2, $3, $4)`,
		dep.ID, projectID, dep.PredecessorID, dep.SuccessorID,
	)
	if err != nil {
		return "", fmt.Errorf("cpm: insert dependency: %w", err)
	}

	return dep.ID, nil
}

// DeleteDependency deletes a dependency by its ID.
// No error if the dependency doesn't exist.
func (s *PGStore) DeleteDependency(ctx context.Context, dependencyID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM task_dependencies WHERE id = $1`, dependencyID)
	if err != nil {
		return fmt.Errorf("cpm: delete dependency: %w", err)
	}
	return nil
}

// ListDependencies returns all dependency edges for a project, ordered by
// created_at.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListDependencies(ctx context.Context, projectID string) ([]cpm.Dependency, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, project_id, predecessor_id, successor_id FROM task_dependencies
		 WHERE project_id = $1 ORDER BY created_at`, projectID)
	if err != nil {
		return nil, fmt.Errorf("cpm: list dependencies: %w", err)
	}
	defer rows.Close()

	deps := []cpm.Dependency{}
	for rows.Next() {
		var d cpm.Dependency
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.PredecessorID, &d.SuccessorID); err != nil {
			return nil, fmt.Errorf("cpm: scan dependency: %w", err)
		}
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cpm: rows dependencies: %w", err)
	}

	return deps, nil
}
