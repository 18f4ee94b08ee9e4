package evaluation

import (
	"time"

	"evaltool/internal/domain/scoring"
)

const (
	DefaultStorageKey = "epsp_eval_employees_v1"
	ExportFileName    = "employees_evaluations.json"
)

type Employee struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Matricule   string       `json:"matricule"`
	Role        string       `json:"role"`
	Evaluations []Evaluation `json:"evaluations"`
}

type Evaluation struct {
	ID                string            `json:"id"`
	Date              time.Time         `json:"date"`
	Scores            Scores            `json:"scores"`
	DisciplineDetails DisciplineDetails `json:"disciplineDetails"`
	ManagerPoints     float64           `json:"managerPoints"`
	Subtotal          float64           `json:"subtotal"`
	PercentRole       float64           `json:"percentRole"`
	PercentValue      float64           `json:"percentValue"`
}

type Scores struct {
	Discipline float64 `json:"discipline"`
	Commitment float64 `json:"commitment"`
	Attention  float64 `json:"attention"`
	Speed      float64 `json:"speed"`
	Relations  float64 `json:"relations"`
}

type DisciplineDetails struct {
	Absences float64 `json:"absences"`
	Lateness float64 `json:"lateness"`
}

// EvaluationInput is what an evaluator enters on the form.
type EvaluationInput struct {
	Absences      float64 `json:"absences"`
	Lateness      float64 `json:"lateness"`
	Commitment    float64 `json:"commitment"`
	Attention     float64 `json:"attention"`
	Speed         float64 `json:"speed"`
	Relations     float64 `json:"relations"`
	ManagerPoints float64 `json:"managerPoints"`
}

func (in EvaluationInput) Score(role string) scoring.Result {
	return scoring.Evaluate(
		scoring.Scores{Commitment: in.Commitment, Attention: in.Attention, Speed: in.Speed, Relations: in.Relations},
		scoring.DisciplineInputs{Absences: in.Absences, Lateness: in.Lateness},
		in.ManagerPoints,
		role,
	)
}

// NewEvaluation scores input for role and returns the immutable record.
func NewEvaluation(id string, date time.Time, role string, in EvaluationInput) Evaluation {
	res := in.Score(role)
	return Evaluation{
		ID:   id,
		Date: date.UTC(),
		Scores: Scores{
			Discipline: res.Discipline,
			Commitment: res.Commitment,
			Attention:  res.Attention,
			Speed:      res.Speed,
			Relations:  res.Relations,
		},
		DisciplineDetails: DisciplineDetails{Absences: res.Absences, Lateness: res.Lateness},
		ManagerPoints:     res.ManagerPoints,
		Subtotal:          res.Subtotal,
		PercentRole:       res.PercentRole,
		PercentValue:      res.PercentValue,
	}
}

type SyncStatus string

const (
	SyncSkipped SyncStatus = "skipped"
	SyncOK      SyncStatus = "ok"
	SyncFailed  SyncStatus = "failed"
)

// SyncResult reports the outcome of the best-effort remote push that follows
// every local write. Callers may ignore it; local state is already durable.
type SyncResult struct {
	Status SyncStatus `json:"status"`
	Err    error      `json:"-"`
}

func (r SyncResult) Failed() bool {
	return r.Status == SyncFailed
}
