package cpm

import (
	"context"
	"errors"
)

var (
	// ErrInvalidInput marks input the scheduler cannot work with: a missing
	// project start date, duplicate task ids, or a dependency referencing an
	// unknown task.
	ErrInvalidInput = errors.New("cpm: invalid input")

	// ErrCycleDetected means the dependency graph is not acyclic and no task
	// order exists. Errors carrying it are usually a *CycleError with the ids
	// that could not be ordered.
	ErrCycleDetected = errors.New("cpm: cycle detected, dependency graph is not acyclic")

	ErrProjectNotFound    = errors.New("cpm: project not found")
	ErrTaskNotFound       = errors.New("cpm: task not found")
	ErrDependencyNotFound = errors.New("cpm: dependency not found")
)

// Store defines the contract for persisting projects, tasks and dependency
// edges, and for writing computed schedules back. Compute never touches a
// Store; callers load a plan, compute, then save the planned dates.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Plans (bulk operations)
	ImportPlan(ctx context.Context, plan *ProjectPlan) (*ProjectPlan, error)
	GetPlan(ctx context.Context, projectID string) (*ProjectPlan, error)

	// Projects
	CreateProject(ctx context.Context, project *Project) (string, error)
	GetProject(ctx context.Context, projectID string) (*Project, error)
	UpdateProject(ctx context.Context, project *Project) error
	DeleteProject(ctx context.Context, projectID string) error
	ListProjects(ctx context.Context) ([]Project, error)

	// Tasks
	AddTask(ctx context.Context, projectID string, task *Task) (string, error)
	GetTask(ctx context.Context, taskID string) (*Task, error)
	UpdateTask(ctx context.Context, task *Task) error
	DeleteTask(ctx context.Context, taskID string) error
	ListTasks(ctx context.Context, projectID string) ([]Task, error)

	// Dependencies
	AddDependency(ctx context.Context, projectID string, dep *Dependency) (string, error)
	DeleteDependency(ctx context.Context, dependencyID string) error
	ListDependencies(ctx context.Context, projectID string) ([]Dependency, error)

	// SavePlannedDates persists each task's computed early start and finish
	// as its planned dates, atomically for the whole project.
	SavePlannedDates(ctx context.Context, projectID string, schedules map[string]*TaskSchedule) error
}
