package reports

import (
	"sort"
	"time"

	"evaltool/internal/domain/evaluation"
	"evaltool/internal/domain/scoring"
)

// Summary is one row of the global history view.
type Summary struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Matricule       string     `json:"matricule"`
	Role            string     `json:"role"`
	PercentRole     float64    `json:"percentRole"`
	EvaluationCount int        `json:"evaluationCount"`
	LatestPercent   *float64   `json:"latestPercent,omitempty"`
	LatestOverall   *float64   `json:"latestOverall,omitempty"`
	LatestDate      *time.Time `json:"latestDate,omitempty"`
}

func Summaries(employees []evaluation.Employee) []Summary {
	out := make([]Summary, 0, len(employees))
	for _, emp := range employees {
		row := Summary{
			ID:              emp.ID,
			Name:            emp.Name,
			Matricule:       emp.Matricule,
			Role:            emp.Role,
			PercentRole:     scoring.RolePercent(emp.Role),
			EvaluationCount: len(emp.Evaluations),
		}
		if latest, ok := Latest(emp.Evaluations); ok {
			percent := latest.PercentValue
			overall := OverallPoints(latest)
			date := latest.Date
			row.LatestPercent = &percent
			row.LatestOverall = &overall
			row.LatestDate = &date
		}
		out = append(out, row)
	}
	return out
}

// Latest returns the most recent evaluation by date. Ties go to the later
// entry in the slice.
func Latest(evals []evaluation.Evaluation) (evaluation.Evaluation, bool) {
	if len(evals) == 0 {
		return evaluation.Evaluation{}, false
	}
	best := evals[0]
	for _, ev := range evals[1:] {
		if !ev.Date.Before(best.Date) {
			best = ev
		}
	}
	return best, true
}

func OverallPoints(ev evaluation.Evaluation) float64 {
	return scoring.Round2(ev.Subtotal + ev.ManagerPoints)
}

func newestFirst(evals []evaluation.Evaluation) []evaluation.Evaluation {
	out := append([]evaluation.Evaluation(nil), evals...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}
