package cpm

import "fmt"

// CycleError reports a dependency cycle. Unordered holds the task ids the
// topological sort could not place, in input order; every cycle is made of
// tasks from this set, plus any tasks downstream of one.
type CycleError struct {
	Unordered []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cpm: cycle detected, %d task(s) could not be ordered", len(e.Unordered))
}

// Is lets errors.Is(err, ErrCycleDetected) match a *CycleError.
func (e *CycleError) Is(target error) bool { return target == ErrCycleDetected }

// graph is the adjacency view of one project's tasks, built per computation.
type graph struct {
	byID  map[string]*Task
	order []string
	succs map[string][]string
	preds map[string][]string
}

// buildGraph indexes tasks and dependency edges into adjacency lists,
// preserving input order. Duplicate task ids and edges referencing unknown
// ids are invalid input; duplicate edges between the same pair collapse to
// one.
func buildGraph(tasks []Task, deps []Dependency) (*graph, error) {
	g := &graph{
		byID:  make(map[string]*Task, len(tasks)),
		order: make([]string, 0, len(tasks)),
		succs: make(map[string][]string),
		preds: make(map[string][]string),
	}
	for i := range tasks {
		t := &tasks[i]
		if _, exists := g.byID[t.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate task id %q", ErrInvalidInput, t.ID)
		}
		g.byID[t.ID] = t
		g.order = append(g.order, t.ID)
	}
	seen := make(map[[2]string]bool, len(deps))
	for _, d := range deps {
		if _, ok := g.byID[d.PredecessorID]; !ok {
			return nil, fmt.Errorf("%w: dependency references unknown predecessor %q", ErrInvalidInput, d.PredecessorID)
		}
		if _, ok := g.byID[d.SuccessorID]; !ok {
			return nil, fmt.Errorf("%w: dependency references unknown successor %q", ErrInvalidInput, d.SuccessorID)
		}
		pair := [2]string{d.PredecessorID, d.SuccessorID}
		if seen[pair] {
			continue
		}
		seen[pair] = true
		g.succs[d.PredecessorID] = append(g.succs[d.PredecessorID], d.SuccessorID)
		g.preds[d.SuccessorID] = append(g.preds[d.SuccessorID], d.PredecessorID)
	}
	return g, nil
}

// topoSort orders task ids so every predecessor precedes its successors,
// using Kahn's algorithm with a FIFO worklist. Ties break by input order:
// the seed queue holds zero-in-degree tasks as supplied, and a task is
// enqueued the moment its last predecessor is processed. The same input
// always yields the same order.
func (g *graph) topoSort() ([]string, error) {
	pending := make(map[string]int, len(g.order))
	queue := make([]string, 0, len(g.order))
	for _, id := range g.order {
		pending[id] = len(g.preds[id])
		if pending[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(g.order))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, succ := range g.succs[id] {
			pending[succ]--
			if pending[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}

	if len(order) != len(g.order) {
		placed := make(map[string]bool, len(order))
		for _, id := range order {
			placed[id] = true
		}
		var unordered []string
		for _, id := range g.order {
			if !placed[id] {
				unordered = append(unordered, id)
			}
		}
		return nil, &CycleError{Unordered: unordered}
	}
	return order, nil
}

// effectiveDuration clamps a task duration to at least one day. Zero and
// negative durations schedule as a single day, and the forward and backward
// passes must clamp identically or float would go negative.
func effectiveDuration(days int) int {
	if days < 1 {
		return 1
	}
	return days
}

// Validate checks the structural preconditions without computing any dates:
// unique task ids, no dependency referencing an unknown task, and an acyclic
// graph. Stores run it before accepting a new edge.
func Validate(tasks []Task, deps []Dependency) error {
	g, err := buildGraph(tasks, deps)
	if err != nil {
		return err
	}
	_, err = g.topoSort()
	return err
}

// Compute runs the critical path method over one project's tasks and
// dependency edges: early dates forward in topological order, late dates
// backward, then float and the critical path. It is a pure function; inputs
// are never mutated and no state survives the call, so computations for
// different projects can run concurrently.
//
// The project must have a start date. Task durations below one day are
// scheduled as one day. The returned critical path ids are in topological
// order; with no tasks the finish date equals the start date.
func Compute(project Project, tasks []Task, deps []Dependency) (*ProjectSchedule, map[string]*TaskSchedule, error) {
	if project.StartDate == nil {
		return nil, nil, fmt.Errorf("%w: project %q has no start date", ErrInvalidInput, project.Name)
	}
	start := *project.StartDate

	g, err := buildGraph(tasks, deps)
	if err != nil {
		return nil, nil, err
	}
	order, err := g.topoSort()
	if err != nil {
		return nil, nil, err
	}

	// Forward pass: a task starts when its last predecessor finishes, or at
	// the project start when it has none.
	earlyStart := make(map[string]Date, len(order))
	earlyFinish := make(map[string]Date, len(order))
	for _, id := range order {
		es := start
		for _, pred := range g.preds[id] {
			if ef := earlyFinish[pred]; ef.After(es) {
				es = ef
			}
		}
		earlyStart[id] = es
		earlyFinish[id] = es.AddDays(effectiveDuration(g.byID[id].DurationDays))
	}

	finish := start
	for _, id := range order {
		if ef := earlyFinish[id]; ef.After(finish) {
			finish = ef
		}
	}

	// Backward pass: a task must finish before its earliest successor starts,
	// or by the project finish when it has none.
	lateStart := make(map[string]Date, len(order))
	lateFinish := make(map[string]Date, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		lf := finish
		for _, succ := range g.succs[id] {
			if ls := lateStart[succ]; ls.Before(lf) {
				lf = ls
			}
		}
		lateFinish[id] = lf
		lateStart[id] = lf.AddDays(-effectiveDuration(g.byID[id].DurationDays))
	}

	schedules := make(map[string]*TaskSchedule, len(order))
	critical := []string{}
	for _, id := range order {
		floatDays := earlyStart[id].DaysUntil(lateStart[id])
		if floatDays == 0 {
			critical = append(critical, id)
		}
		schedules[id] = &TaskSchedule{
			TaskID:         id,
			EarlyStart:     earlyStart[id],
			EarlyFinish:    earlyFinish[id],
			LateStart:      lateStart[id],
			LateFinish:     lateFinish[id],
			TotalFloatDays: floatDays,
			IsCritical:     floatDays == 0,
		}
	}

	return &ProjectSchedule{
		ProjectID:           project.ID,
		StartDate:           start,
		FinishDate:          finish,
		CriticalPathTaskIDs: critical,
	}, schedules, nil
}
