package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/buildgrid/cpm"
)

// CreateProject inserts a project row.
// If project.ID is empty, a UUID is auto-generated.
// Returns the project ID (generated or provided).
func (s *PGStore) CreateProject(ctx context.Context, project *cpm.Project) (string, error) {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO projects (id, name, description, start_date, budget) VALUES ($1, $2, $3, $4, $5)`,
		project.ID, project.Name, project.Description, dateArg(project.StartDate), project.Budget,
	)
	if err != nil {
		return "", fmt.Errorf("cpm: insert project: %w", err)
	}

	return project.ID, nil
}

// GetProject fetches a single project by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetProject(ctx context.Context, projectID string) (*cpm.Project, error) {
	var (
		p     cpm.Project
		start *time.Time
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, name, description, start_date, budget FROM projects WHERE id = $1`, projectID,
	).Scan(&p.ID, &p.Name, &p.Description, &start, &p.Budget)

	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cpm: get project: %w", err)
	}

	p.StartDate = dateVal(start)
	return &p, nil
}

// UpdateProject replaces a project's name, description, start date and
// budget. Returns ErrProjectNotFound if the project doesn't exist.
func (s *PGStore) UpdateProject(ctx context.Context, project *cpm.Project) error {
	ct, err := s.db.Exec(ctx,
		`UPDATE projects SET name = $1, description = $2, start_date = $3, budget = $4 WHERE id = $5`,
		project.Name, project.Description, dateArg(project.StartDate), project.Budget, project.ID,
	)
	if err != nil {
		return fmt.Errorf("cpm: update project: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return cpm.ErrProjectNotFound
	}
	return nil
}

// DeleteProject deletes a project by its ID.
// Its tasks and dependencies are cascade-deleted by the DB.
// No error if the project doesn't exist.
func (s *PGStore) DeleteProject(ctx context.Context, projectID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, projectID)
	if err != nil {
		return fmt.Errorf("cpm: delete project: %w", err)
	}
	return nil
}

// ListProjects returns all projects, ordered by created_at.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListProjects(ctx context.Context) ([]cpm.Project, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, description, start_date, budget FROM projects ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("cpm: list projects: %w", err)
	}
	defer rows.Close()

	projects := []cpm.Project{}
	for rows.Next() {
		var (
			p     cpm.Project
			start *time.Time
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &start, &p.Budget); err != nil {
			return nil, fmt.Errorf("cpm: scan project: %w", err)
		}
		p.StartDate = dateVal(start)
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cpm: rows projects: %w", err)
	}

	return projects, nil
}
