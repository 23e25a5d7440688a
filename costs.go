package cpm

// CostSummary aggregates planned and actual task costs for one project.
// Variance is actual minus planned, so overruns are positive. CPI is the
// cost performance index, planned over actual; zero when nothing has been
// spent yet.
type CostSummary struct {
	ProjectID   string  `json:"project_id,omitempty"`
	PlannedCost float64 `json:"planned_cost"`
	ActualCost  float64 `json:"actual_cost"`
	Variance    float64 `json:"variance"`
	CPI         float64 `json:"cpi"`
}

// ProjectCosts totals the cost fields across tasks.
func ProjectCosts(projectID string, tasks []Task) CostSummary {
	var planned, actual float64
	for _, t := range tasks {
		planned += t.CostPlanned
		actual += t.CostActual
	}
	cpi := 0.0
	if actual > 0 {
		cpi = planned / actual
	}
	return CostSummary{
		ProjectID:   projectID,
		PlannedCost: planned,
		ActualCost:  actual,
		Variance:    actual - planned,
		CPI:         cpi,
	}
}
