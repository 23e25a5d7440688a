package postgres

import (
	"context"
	"fmt"

	"github.com/buildgrid/cpm"
)

// SavePlannedDates writes each task's computed early start and finish back
// as its planned start and finish, in a single transaction. Either every
// task in schedules is updated or none are; a schedule for a task that is
// not in the project fails the whole batch with ErrTaskNotFound.
func (s *PGStore) SavePlannedDates(ctx context.Context, projectID string, schedules map[string]*cpm.TaskSchedule) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cpm: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for taskID, sched := range schedules {
		ct, err := tx.Exec(ctx,
			`UPDATE tasks SET planned_start_date = $1, planned_finish_date = $2 WHERE id = $3 AND project_id = $4`,
			sched.EarlyStart.Time(), sched.EarlyFinish.Time(), taskID, projectID,
		)
		if err != nil {
			return fmt.Errorf("cpm: save planned dates for task %s: %w", taskID, err)
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("cpm: save planned dates for task %s: %w", taskID, cpm.ErrTaskNotFound)
		}
	}

	return tx.Commit(ctx)
}
