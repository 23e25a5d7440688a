package cpm

// Project is the scheduling context for a set of tasks. StartDate anchors the
// early start of every task without predecessors; a project cannot be
// scheduled without one.
type Project struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description,omitempty"`
	StartDate   *Date   `json:"start_date,omitempty"`
	Budget      float64 `json:"budget,omitempty" validate:"gte=0"`
}

// Task is a unit of work with a duration in whole calendar days. The
// scheduling passes read only ID and DurationDays; the remaining fields are
// carried for cost tracking and progress alerts.
// Ref is a temporary key used only during ImportPlan for dependency wiring — it is never persisted.
type Task struct {
	ID              string  `json:"id,omitempty"`
	Ref             string  `json:"ref,omitempty"`
	ProjectID       string  `json:"project_id,omitempty"`
	Name            string  `json:"name" validate:"required"`
	DurationDays    int     `json:"duration_days" validate:"gte=0"`
	PlannedStart    *Date   `json:"planned_start_date,omitempty"`
	PlannedFinish   *Date   `json:"planned_finish_date,omitempty"`
	CostPlanned     float64 `json:"cost_planned,omitempty" validate:"gte=0"`
	CostActual      float64 `json:"cost_actual,omitempty" validate:"gte=0"`
	PercentComplete float64 `json:"percent_complete,omitempty" validate:"gte=0,lte=100"`
	Notes           string  `json:"notes,omitempty"`
}

// Dependency is a directed precedence edge: the successor cannot start before
// the predecessor finishes.
// PredecessorRef / SuccessorRef are temporary keys used only during ImportPlan — they are never persisted.
type Dependency struct {
	ID             string `json:"id,omitempty"`
	ProjectID      string `json:"project_id,omitempty"`
	PredecessorID  string `json:"predecessor_id,omitempty"`
	SuccessorID    string `json:"successor_id,omitempty"`
	PredecessorRef string `json:"predecessor_ref,omitempty"`
	SuccessorRef   string `json:"successor_ref,omitempty"`
}

// ProjectPlan bundles a project with its complete task list and dependency
// edges, for bulk import and for loading everything the scheduler needs in
// one call.
type ProjectPlan struct {
	Project      Project      `json:"project"`
	Tasks        []Task       `json:"tasks" validate:"dive"`
	Dependencies []Dependency `json:"dependencies" validate:"dive"`
}

// TaskSchedule holds the computed dates for a single task. TotalFloatDays is
// the number of days the task can slip without moving the project finish;
// zero float marks the task critical.
type TaskSchedule struct {
	TaskID         string `json:"task_id"`
	EarlyStart     Date   `json:"early_start"`
	EarlyFinish    Date   `json:"early_finish"`
	LateStart      Date   `json:"late_start"`
	LateFinish     Date   `json:"late_finish"`
	TotalFloatDays int    `json:"total_float_days"`
	IsCritical     bool   `json:"is_critical"`
}

// ProjectSchedule summarises one computation: the project finish date and the
// ids of the zero-float tasks, in topological order.
type ProjectSchedule struct {
	ProjectID           string   `json:"project_id,omitempty"`
	StartDate           Date     `json:"start_date"`
	FinishDate          Date     `json:"finish_date"`
	CriticalPathTaskIDs []string `json:"critical_path_task_ids"`
}
