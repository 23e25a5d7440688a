package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildgrid/cpm"
)

// fakeStore is an in-memory cpm.Store mirroring the postgres semantics:
// insertion order on lists, nil for missing rows, empty slices instead of
// nil, and validation before new dependency edges are accepted.
type fakeStore struct {
	projects     map[string]cpm.Project
	projectOrder []string
	tasks        map[string]cpm.Task
	taskOrder    []string
	deps         map[string]cpm.Dependency
	depOrder     []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects: map[string]cpm.Project{},
		tasks:    map[string]cpm.Task{},
		deps:     map[string]cpm.Dependency{},
	}
}

func (s *fakeStore) CreateSchema(ctx context.Context) error { return nil }
func (s *fakeStore) DropSchema(ctx context.Context) error   { return nil }

func (s *fakeStore) ImportPlan(ctx context.Context, plan *cpm.ProjectPlan) (*cpm.ProjectPlan, error) {
	project := &plan.Project
	if project.ID == "" {
		project.ID = uuid.NewString()
	}

	refMap := map[string]string{}
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

	if err := cpm.Validate(plan.Tasks, plan.Dependencies); err != nil {
		return nil, err
	}

	if _, exists := s.projects[project.ID]; !exists {
		s.projectOrder = append(s.projectOrder, project.ID)
	}
	s.projects[project.ID] = *project
	s.removeProjectData(project.ID)
	for i := range plan.Tasks {
		plan.Tasks[i].Ref = ""
		s.tasks[plan.Tasks[i].ID] = plan.Tasks[i]
		s.taskOrder = append(s.taskOrder, plan.Tasks[i].ID)
	}
	for i := range plan.Dependencies {
		plan.Dependencies[i].PredecessorRef = ""
		plan.Dependencies[i].SuccessorRef = ""
		s.deps[plan.Dependencies[i].ID] = plan.Dependencies[i]
		s.depOrder = append(s.depOrder, plan.Dependencies[i].ID)
	}
	return plan, nil
}

func (s *fakeStore) GetPlan(ctx context.Context, projectID string) (*cpm.ProjectPlan, error) {
	project, ok := s.projects[projectID]
	if !ok {
		return nil, nil
	}
	tasks, _ := s.ListTasks(ctx, projectID)
	deps, _ := s.ListDependencies(ctx, projectID)
	return &cpm.ProjectPlan{Project: project, Tasks: tasks, Dependencies: deps}, nil
}

func (s *fakeStore) CreateProject(ctx context.Context, project *cpm.Project) (string, error) {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	s.projects[project.ID] = *project
	s.projectOrder = append(s.projectOrder, project.ID)
	return project.ID, nil
}

func (s *fakeStore) GetProject(ctx context.Context, projectID string) (*cpm.Project, error) {
	p, ok := s.projects[projectID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *fakeStore) UpdateProject(ctx context.Context, project *cpm.Project) error {
	if _, ok := s.projects[project.ID]; !ok {
		return cpm.ErrProjectNotFound
	}
	s.projects[project.ID] = *project
	return nil
}

func (s *fakeStore) DeleteProject(ctx context.Context, projectID string) error {
	delete(s.projects, projectID)
	for i, id := range s.projectOrder {
		if id == projectID {
			s.projectOrder = append(s.projectOrder[:i], s.projectOrder[i+1:]...)
			break
		}
	}
	s.removeProjectData(projectID)
	return nil
}

func (s *fakeStore) ListProjects(ctx context.Context) ([]cpm.Project, error) {
	projects := []cpm.Project{}
	for _, id := range s.projectOrder {
		projects = append(projects, s.projects[id])
	}
	return projects, nil
}

func (s *fakeStore) AddTask(ctx context.Context, projectID string, task *cpm.Task) (string, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.ProjectID = projectID
	s.tasks[task.ID] = *task
	s.taskOrder = append(s.taskOrder, task.ID)
	return task.ID, nil
}

func (s *fakeStore) GetTask(ctx context.Context, taskID string) (*cpm.Task, error) {
	t, ok := s.tasks[taskID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *fakeStore) UpdateTask(ctx context.Context, task *cpm.Task) error {
	existing, ok := s.tasks[task.ID]
	if !ok {
		return cpm.ErrTaskNotFound
	}
	existing.Name = task.Name
	existing.DurationDays = task.DurationDays
	existing.CostPlanned = task.CostPlanned
	existing.CostActual = task.CostActual
	existing.PercentComplete = task.PercentComplete
	existing.Notes = task.Notes
	s.tasks[task.ID] = existing
	return nil
}

func (s *fakeStore) DeleteTask(ctx context.Context, taskID string) error {
	delete(s.tasks, taskID)
	var taskOrder []string
	for _, id := range s.taskOrder {
		if id != taskID {
			taskOrder = append(taskOrder, id)
		}
	}
	s.taskOrder = taskOrder

	var depOrder []string
	for _, id := range s.depOrder {
		d := s.deps[id]
		if d.PredecessorID == taskID || d.SuccessorID == taskID {
			delete(s.deps, id)
			continue
		}
		depOrder = append(depOrder, id)
	}
	s.depOrder = depOrder
	return nil
}

func (s *fakeStore) ListTasks(ctx context.Context, projectID string) ([]cpm.Task, error) {
	tasks := []cpm.Task{}
	for _, id := range s.taskOrder {
		if s.tasks[id].ProjectID == projectID {
			tasks = append(tasks, s.tasks[id])
		}
	}
	return tasks, nil
}

func (s *fakeStore) AddDependency(ctx context.Context, projectID string, dep *cpm.Dependency) (string, error) {
	if dep.ID == "" {
		dep.ID = uuid.NewString()
	}
	dep.ProjectID = projectID

	tasks, _ := s.ListTasks(ctx, projectID)
	deps, _ := s.ListDependencies(ctx, projectID)
	deps = append(deps, *dep)
	if err := cpm.Validate(tasks, deps); err != nil {
		return "", err
	}

	s.deps[dep.ID] = *dep
	s.depOrder = append(s.depOrder, dep.ID)
	return dep.ID, nil
}

func (s *fakeStore) DeleteDependency(ctx context.Context, dependencyID string) error {
	delete(s.deps, dependencyID)
	var depOrder []string
	for _, id := range s.depOrder {
		if id != dependencyID {
			depOrder = append(depOrder, id)
		}
	}
	s.depOrder = depOrder
	return nil
}

func (s *fakeStore) ListDependencies(ctx context.Context, projectID string) ([]cpm.Dependency, error) {
	deps := []cpm.Dependency{}
	for _, id := range s.depOrder {
		if s.deps[id].ProjectID == projectID {
			deps = append(deps, s.deps[id])
		}
	}
	return deps, nil
}

func (s *fakeStore) SavePlannedDates(ctx context.Context, projectID string, schedules map[string]*cpm.TaskSchedule) error {
	for taskID, sched := range schedules {
		t, ok := s.tasks[taskID]
		if !ok || t.ProjectID != projectID {
			return fmt.Errorf("cpm: save planned dates for task %s: %w", taskID, cpm.ErrTaskNotFound)
		}
		es, ef := sched.EarlyStart, sched.EarlyFinish
		t.PlannedStart = &es
		t.PlannedFinish = &ef
		s.tasks[taskID] = t
	}
	return nil
}

func (s *fakeStore) removeProjectData(projectID string) {
	var taskOrder []string
	for _, id := range s.taskOrder {
		if s.tasks[id].ProjectID == projectID {
			delete(s.tasks, id)
			continue
		}
		taskOrder = append(taskOrder, id)
	}
	s.taskOrder = taskOrder

	var depOrder []string
	for _, id := range s.depOrder {
		if s.deps[id].ProjectID == projectID {
			delete(s.deps, id)
			continue
		}
		depOrder = append(depOrder, id)
	}
	s.depOrder = depOrder
}

func testApp(t *testing.T) (*fiber.App, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	logger := newLogger("error", "text", io.Discard)
	app := newApp(store, logger, config{Environment: "test", AllowedOrigins: []string{"*"}})
	return app, store
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func datePtr(t *testing.T, s string) *cpm.Date {
	t.Helper()
	d, err := cpm.ParseDate(s)
	require.NoError(t, err)
	return &d
}

const chainPlanJSON = `{
	"project": {"name": "chain", "start_date": "2024-01-01"},
	"tasks": [
		{"ref": "a", "name": "A", "duration_days": 3, "cost_planned": 100, "cost_actual": 150},
		{"ref": "b", "name": "B", "duration_days": 2, "cost_planned": 50},
		{"ref": "c", "name": "C", "duration_days": 1, "cost_planned": 25}
	],
	"dependencies": [
		{"predecessor_ref": "a", "successor_ref": "b"},
		{"predecessor_ref": "b", "successor_ref": "c"}
	]
}`

func importChain(t *testing.T, app *fiber.App) cpm.ProjectPlan {
	t.Helper()
	resp := doJSON(t, app, "POST", "/projects/import", chainPlanJSON)
	require.Equal(t, 201, resp.StatusCode)
	var plan cpm.ProjectPlan
	decodeJSON(t, resp, &plan)
	require.Len(t, plan.Tasks, 3)
	require.Len(t, plan.Dependencies, 2)
	return plan
}

func TestHealth(t *testing.T) {
	app, _ := testApp(t)

	resp := doJSON(t, app, "GET", "/health", "")
	require.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	decodeJSON(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, version, body["version"])
}

func TestMiddlewareHeaders(t *testing.T) {
	app, _ := testApp(t)

	resp := doJSON(t, app, "GET", "/health", "")
	assert.NotEmpty(t, resp.Header.Get("X-Process-Time"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestMetrics(t *testing.T) {
	app, _ := testApp(t)

	doJSON(t, app, "GET", "/health", "")
	resp := doJSON(t, app, "GET", "/metrics", "")
	require.Equal(t, 200, resp.StatusCode)

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "cpm_http_request_duration_seconds")
}

func TestProjectLifecycle(t *testing.T) {
	app, _ := testApp(t)

	resp := doJSON(t, app, "POST", "/projects", `{"name": "Tower A", "start_date": "2024-01-01", "budget": 100000}`)
	require.Equal(t, 201, resp.StatusCode)
	var created map[string]string
	decodeJSON(t, resp, &created)
	id := created["id"]
	require.NotEmpty(t, id)

	resp = doJSON(t, app, "GET", "/projects/"+id, "")
	require.Equal(t, 200, resp.StatusCode)
	var project cpm.Project
	decodeJSON(t, resp, &project)
	assert.Equal(t, "Tower A", project.Name)
	require.NotNil(t, project.StartDate)
	assert.Equal(t, "2024-01-01", project.StartDate.String())

	resp = doJSON(t, app, "PUT", "/projects/"+id, `{"name": "Tower A2", "start_date": "2024-02-01"}`)
	require.Equal(t, 204, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/projects", "")
	var projects []cpm.Project
	decodeJSON(t, resp, &projects)
	require.Len(t, projects, 1)
	assert.Equal(t, "Tower A2", projects[0].Name)

	resp = doJSON(t, app, "DELETE", "/projects/"+id, "")
	require.Equal(t, 204, resp.StatusCode)
	resp = doJSON(t, app, "GET", "/projects/"+id, "")
	assert.Equal(t, 404, resp.StatusCode)
}

func TestProjectValidation(t *testing.T) {
	app, _ := testApp(t)

	resp := doJSON(t, app, "POST", "/projects", `{"budget": 10}`)
	assert.Equal(t, 400, resp.StatusCode)

	resp = doJSON(t, app, "POST", "/projects", `{"name": "x", "budget": -5}`)
	assert.Equal(t, 400, resp.StatusCode)

	resp = doJSON(t, app, "POST", "/projects", `{"name": "x", "start_date": "not-a-date"}`)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestProjectNotFound(t *testing.T) {
	app, _ := testApp(t)

	resp := doJSON(t, app, "GET", "/projects/nope", "")
	assert.Equal(t, 404, resp.StatusCode)
	resp = doJSON(t, app, "PUT", "/projects/nope", `{"name": "x"}`)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestTaskLifecycle(t *testing.T) {
	app, _ := testApp(t)

	resp := doJSON(t, app, "POST", "/projects", `{"name": "p", "start_date": "2024-01-01"}`)
	require.Equal(t, 201, resp.StatusCode)
	var created map[string]string
	decodeJSON(t, resp, &created)
	projectID := created["id"]

	resp = doJSON(t, app, "POST", "/projects/"+projectID+"/tasks", `{"name": "digging", "duration_days": 4, "notes": "rented excavator"}`)
	require.Equal(t, 201, resp.StatusCode)
	decodeJSON(t, resp, &created)
	taskID := created["id"]

	resp = doJSON(t, app, "GET", "/tasks/"+taskID, "")
	require.Equal(t, 200, resp.StatusCode)
	var task cpm.Task
	decodeJSON(t, resp, &task)
	assert.Equal(t, "digging", task.Name)
	assert.Equal(t, 4, task.DurationDays)
	assert.Equal(t, projectID, task.ProjectID)

	resp = doJSON(t, app, "PUT", "/tasks/"+taskID, `{"name": "digging", "duration_days": 6, "percent_complete": 50}`)
	require.Equal(t, 204, resp.StatusCode)
	resp = doJSON(t, app, "GET", "/projects/"+projectID+"/tasks", "")
	var tasks []cpm.Task
	decodeJSON(t, resp, &tasks)
	require.Len(t, tasks, 1)
	assert.Equal(t, 6, tasks[0].DurationDays)
	assert.InDelta(t, 50, tasks[0].PercentComplete, 1e-9)

	resp = doJSON(t, app, "DELETE", "/tasks/"+taskID, "")
	require.Equal(t, 204, resp.StatusCode)
	resp = doJSON(t, app, "GET", "/tasks/"+taskID, "")
	assert.Equal(t, 404, resp.StatusCode)
}

func TestTaskValidationAndMissingProject(t *testing.T) {
	app, _ := testApp(t)

	resp := doJSON(t, app, "POST", "/projects/ghost/tasks", `{"name": "x", "duration_days": 1}`)
	assert.Equal(t, 404, resp.StatusCode)

	resp = doJSON(t, app, "POST", "/projects", `{"name": "p"}`)
	var created map[string]string
	decodeJSON(t, resp, &created)
	projectID := created["id"]

	resp = doJSON(t, app, "POST", "/projects/"+projectID+"/tasks", `{"name": "x", "duration_days": -1}`)
	assert.Equal(t, 400, resp.StatusCode)
	resp = doJSON(t, app, "POST", "/projects/"+projectID+"/tasks", `{"name": "x", "percent_complete": 150}`)
	assert.Equal(t, 400, resp.StatusCode)
	resp = doJSON(t, app, "POST", "/projects/"+projectID+"/tasks", `{"duration_days": 1}`)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestDependencyRejections(t *testing.T) {
	app, _ := testApp(t)

	resp := doJSON(t, app, "POST", "/projects", `{"name": "p", "start_date": "2024-01-01"}`)
	var created map[string]string
	decodeJSON(t, resp, &created)
	projectID := created["id"]

	var taskIDs []string
	for _, name := range []string{"a", "b"} {
		resp = doJSON(t, app, "POST", "/projects/"+projectID+"/tasks", `{"name": "`+name+`", "duration_days": 1}`)
		require.Equal(t, 201, resp.StatusCode)
		decodeJSON(t, resp, &created)
		taskIDs = append(taskIDs, created["id"])
	}

	resp = doJSON(t, app, "POST", "/projects/"+projectID+"/dependencies",
		`{"predecessor_id": "`+taskIDs[0]+`", "successor_id": "`+taskIDs[1]+`"}`)
	require.Equal(t, 201, resp.StatusCode)

	// The reverse edge closes a cycle.
	resp = doJSON(t, app, "POST", "/projects/"+projectID+"/dependencies",
		`{"predecessor_id": "`+taskIDs[1]+`", "successor_id": "`+taskIDs[0]+`"}`)
	assert.Equal(t, 422, resp.StatusCode)

	// Unknown endpoints are invalid input.
	resp = doJSON(t, app, "POST", "/projects/"+projectID+"/dependencies",
		`{"predecessor_id": "`+taskIDs[0]+`", "successor_id": "ghost"}`)
	assert.Equal(t, 422, resp.StatusCode)

	resp = doJSON(t, app, "POST", "/projects/ghost/dependencies", `{"predecessor_id": "a", "successor_id": "b"}`)
	assert.Equal(t, 404, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/projects/"+projectID+"/dependencies", "")
	var deps []cpm.Dependency
	decodeJSON(t, resp, &deps)
	assert.Len(t, deps, 1)
}

func TestImportPlan(t *testing.T) {
	app, _ := testApp(t)

	plan := importChain(t, app)
	assert.NotEmpty(t, plan.Project.ID)
	for _, task := range plan.Tasks {
		assert.NotEmpty(t, task.ID)
		assert.Empty(t, task.Ref)
		assert.Equal(t, plan.Project.ID, task.ProjectID)
	}
	// Refs resolved to the generated task ids.
	assert.Equal(t, plan.Tasks[0].ID, plan.Dependencies[0].PredecessorID)
	assert.Equal(t, plan.Tasks[1].ID, plan.Dependencies[0].SuccessorID)
}

func TestImportPlanRejectsCycle(t *testing.T) {
	app, _ := testApp(t)

	body := `{
		"project": {"name": "cyclic", "start_date": "2024-01-01"},
		"tasks": [
			{"ref": "a", "name": "A", "duration_days": 1},
			{"ref": "b", "name": "B", "duration_days": 1}
		],
		"dependencies": [
			{"predecessor_ref": "a", "successor_ref": "b"},
			{"predecessor_ref": "b", "successor_ref": "a"}
		]
	}`
	resp := doJSON(t, app, "POST", "/projects/import", body)
	require.Equal(t, 422, resp.StatusCode)

	var result map[string]any
	decodeJSON(t, resp, &result)
	assert.Equal(t, "cycle detected", result["error"])
	assert.Len(t, result["unordered_task_ids"], 2)
}

func TestImportPlanRejectsUnknownRef(t *testing.T) {
	app, _ := testApp(t)

	body := `{
		"project": {"name": "dangling", "start_date": "2024-01-01"},
		"tasks": [{"ref": "a", "name": "A", "duration_days": 1}],
		"dependencies": [{"predecessor_ref": "a", "successor_ref": "ghost"}]
	}`
	resp := doJSON(t, app, "POST", "/projects/import", body)
	assert.Equal(t, 422, resp.StatusCode)
}

func TestScheduleEndpoint(t *testing.T) {
	app, _ := testApp(t)
	plan := importChain(t, app)
	projectID := plan.Project.ID

	resp := doJSON(t, app, "POST", "/projects/"+projectID+"/schedule", "")
	require.Equal(t, 200, resp.StatusCode)

	var result struct {
		ProjectSchedule cpm.ProjectSchedule          `json:"project_schedule"`
		TaskSchedules   map[string]*cpm.TaskSchedule `json:"task_schedules"`
	}
	decodeJSON(t, resp, &result)

	aID, bID, cID := plan.Tasks[0].ID, plan.Tasks[1].ID, plan.Tasks[2].ID
	assert.Equal(t, "2024-01-01", result.ProjectSchedule.StartDate.String())
	assert.Equal(t, "2024-01-07", result.ProjectSchedule.FinishDate.String())
	assert.Equal(t, []string{aID, bID, cID}, result.ProjectSchedule.CriticalPathTaskIDs)
	require.Len(t, result.TaskSchedules, 3)
	assert.Equal(t, "2024-01-04", result.TaskSchedules[aID].EarlyFinish.String())
	assert.Equal(t, "2024-01-06", result.TaskSchedules[bID].EarlyFinish.String())
	assert.True(t, result.TaskSchedules[cID].IsCritical)

	// Planned dates are written back to the tasks.
	resp = doJSON(t, app, "GET", "/projects/"+projectID+"/tasks", "")
	var tasks []cpm.Task
	decodeJSON(t, resp, &tasks)
	require.Len(t, tasks, 3)
	for _, task := range tasks {
		require.NotNil(t, task.PlannedStart, "task %s", task.Name)
		require.NotNil(t, task.PlannedFinish, "task %s", task.Name)
	}
	assert.Equal(t, "2024-01-06", tasks[2].PlannedStart.String())
	assert.Equal(t, "2024-01-07", tasks[2].PlannedFinish.String())
}

func TestScheduleEndpointCycle(t *testing.T) {
	app, store := testApp(t)

	// Seed a cycle directly; the API itself refuses to create one.
	store.projects["p1"] = cpm.Project{ID: "p1", Name: "cyclic", StartDate: datePtr(t, "2024-01-01")}
	store.projectOrder = append(store.projectOrder, "p1")
	for _, id := range []string{"a", "b"} {
		store.tasks[id] = cpm.Task{ID: id, ProjectID: "p1", Name: id, DurationDays: 1}
		store.taskOrder = append(store.taskOrder, id)
	}
	store.deps["d1"] = cpm.Dependency{ID: "d1", ProjectID: "p1", PredecessorID: "a", SuccessorID: "b"}
	store.deps["d2"] = cpm.Dependency{ID: "d2", ProjectID: "p1", PredecessorID: "b", SuccessorID: "a"}
	store.depOrder = append(store.depOrder, "d1", "d2")

	resp := doJSON(t, app, "POST", "/projects/p1/schedule", "")
	require.Equal(t, 422, resp.StatusCode)

	var result map[string]any
	decodeJSON(t, resp, &result)
	assert.Equal(t, "cycle detected", result["error"])
	assert.ElementsMatch(t, []any{"a", "b"}, result["unordered_task_ids"])
}

func TestScheduleEndpointMissingStartDate(t *testing.T) {
	app, _ := testApp(t)

	resp := doJSON(t, app, "POST", "/projects", `{"name": "undated"}`)
	var created map[string]string
	decodeJSON(t, resp, &created)
	projectID := created["id"]
	doJSON(t, app, "POST", "/projects/"+projectID+"/tasks", `{"name": "a", "duration_days": 1}`)

	resp = doJSON(t, app, "POST", "/projects/"+projectID+"/schedule", "")
	assert.Equal(t, 422, resp.StatusCode)
}

func TestScheduleEndpointProjectNotFound(t *testing.T) {
	app, _ := testApp(t)

	resp := doJSON(t, app, "POST", "/projects/ghost/schedule", "")
	assert.Equal(t, 404, resp.StatusCode)
}

func TestPlanningView(t *testing.T) {
	app, _ := testApp(t)
	plan := importChain(t, app)
	projectID := plan.Project.ID

	doJSON(t, app, "POST", "/projects/"+projectID+"/schedule", "")
	resp := doJSON(t, app, "GET", "/projects/"+projectID+"/planning", "")
	require.Equal(t, 200, resp.StatusCode)

	var view struct {
		Planning planSummary `json:"planning"`
		Tasks    []cpm.Task  `json:"tasks"`
	}
	decodeJSON(t, resp, &view)
	assert.Equal(t, 3, view.Planning.TotalTasks)
	assert.Equal(t, 6, view.Planning.TotalEffortDays)
	assert.Equal(t, 6, view.Planning.SequentialEffortDays)
	require.NotNil(t, view.Planning.EarliestStart)
	assert.Equal(t, "2024-01-01", view.Planning.EarliestStart.String())
	require.NotNil(t, view.Planning.LatestFinish)
	assert.Equal(t, "2024-01-07", view.Planning.LatestFinish.String())
	assert.InDelta(t, 1.0, view.Planning.ParallelismFactor, 1e-9)
	assert.Len(t, view.Tasks, 3)
}

func TestCostsEndpoint(t *testing.T) {
	app, _ := testApp(t)
	plan := importChain(t, app)

	resp := doJSON(t, app, "GET", "/projects/"+plan.Project.ID+"/costs", "")
	require.Equal(t, 200, resp.StatusCode)

	var summary cpm.CostSummary
	decodeJSON(t, resp, &summary)
	assert.InDelta(t, 175.0, summary.PlannedCost, 1e-9)
	assert.InDelta(t, 150.0, summary.ActualCost, 1e-9)
	assert.InDelta(t, -25.0, summary.Variance, 1e-9)
	assert.InDelta(t, 175.0/150.0, summary.CPI, 1e-9)

	resp = doJSON(t, app, "GET", "/projects/ghost/costs", "")
	assert.Equal(t, 404, resp.StatusCode)
}

func TestAlertsEndpoint(t *testing.T) {
	app, store := testApp(t)

	today := cpm.DateOf(time.Now())
	pastStart := today.AddDays(-10)
	pastFinish := today.AddDays(-2)
	store.projects["p1"] = cpm.Project{ID: "p1", Name: "behind", StartDate: &pastStart}
	store.projectOrder = append(store.projectOrder, "p1")
	store.tasks["late"] = cpm.Task{
		ID: "late", ProjectID: "p1", Name: "late pour",
		DurationDays: 8, PlannedStart: &pastStart, PlannedFinish: &pastFinish, PercentComplete: 30,
	}
	store.taskOrder = append(store.taskOrder, "late")

	resp := doJSON(t, app, "GET", "/projects/p1/alerts", "")
	require.Equal(t, 200, resp.StatusCode)

	var alerts []cpm.Alert
	decodeJSON(t, resp, &alerts)
	require.Len(t, alerts, 2)
	assert.Equal(t, cpm.AlertCritical, alerts[0].Level)
	assert.Equal(t, cpm.AlertWarning, alerts[1].Level)

	resp = doJSON(t, app, "GET", "/projects/ghost/alerts", "")
	assert.Equal(t, 404, resp.StatusCode)
}

func TestDemoSetup(t *testing.T) {
	app, _ := testApp(t)

	resp := doJSON(t, app, "POST", "/demo/setup", "")
	require.Equal(t, 201, resp.StatusCode)

	var result struct {
		ProjectID string              `json:"project_id"`
		Schedule  cpm.ProjectSchedule `json:"schedule"`
	}
	decodeJSON(t, resp, &result)
	require.NotEmpty(t, result.ProjectID)

	// Critical path runs through plumbing, not roofing or electrical.
	assert.Len(t, result.Schedule.CriticalPathTaskIDs, 6)
	start := cpm.DateOf(time.Now())
	assert.Equal(t, start.AddDays(60), result.Schedule.FinishDate)

	resp = doJSON(t, app, "GET", "/projects/"+result.ProjectID+"/tasks", "")
	var tasks []cpm.Task
	decodeJSON(t, resp, &tasks)
	require.Len(t, tasks, 8)
	for _, task := range tasks {
		require.NotNil(t, task.PlannedStart, "task %s", task.Name)
	}

	resp = doJSON(t, app, "GET", "/projects/"+result.ProjectID+"/costs", "")
	var costs cpm.CostSummary
	decodeJSON(t, resp, &costs)
	assert.InDelta(t, 2500000, costs.PlannedCost, 1e-9)
}
