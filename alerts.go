package cpm

import "fmt"

// Alert severity levels.
const (
	AlertInfo     = "INFO"
	AlertWarning  = "WARNING"
	AlertCritical = "CRITICAL"
)

// Alert flags a task that is running behind its planned dates.
type Alert struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// ScheduleAlerts compares every incomplete task against its planned dates as
// of the given day. Past the planned finish is critical; past the planned
// start is a warning, so a badly delayed task raises both. Tasks without
// planned dates are skipped until a schedule has been computed. When nothing
// is behind, a single info alert says the project is on track.
func ScheduleAlerts(tasks []Task, today Date) []Alert {
	alerts := []Alert{}
	for _, t := range tasks {
		if t.PercentComplete >= 100 {
			continue
		}
		if t.PlannedFinish != nil && today.After(*t.PlannedFinish) {
			alerts = append(alerts, Alert{
				Level:   AlertCritical,
				Message: fmt.Sprintf("task %q is past its planned finish %s and is not complete", t.Name, *t.PlannedFinish),
			})
		}
		if t.PlannedStart != nil && today.After(*t.PlannedStart) {
			alerts = append(alerts, Alert{
				Level:   AlertWarning,
				Message: fmt.Sprintf("task %q should have started by %s", t.Name, *t.PlannedStart),
			})
		}
	}
	if len(alerts) == 0 {
		alerts = append(alerts, Alert{Level: AlertInfo, Message: "no alerts, project is on track"})
	}
	return alerts
}
