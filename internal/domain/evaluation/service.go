package evaluation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"evaltool/internal/domain/scoring"
)

type Service struct {
	store *Store
	now   func() time.Time
	newID func() string
}

func NewService(store *Store) *Service {
	return &Service{store: store, now: time.Now, newID: uuid.NewString}
}

func (s *Service) Store() *Store {
	return s.store
}

// Preview recalculates the form result without persisting anything.
func (s *Service) Preview(role string, in EvaluationInput) scoring.Result {
	return in.Score(role)
}

func (s *Service) Record(ctx context.Context, employeeID string, in EvaluationInput) (Evaluation, SyncResult, error) {
	emp, err := s.store.Get(ctx, employeeID)
	if err != nil {
		return Evaluation{}, SyncResult{Status: SyncSkipped}, err
	}
	ev := NewEvaluation(s.newID(), s.now(), emp.Role, in)
	res, err := s.store.AppendEvaluation(ctx, employeeID, ev)
	if err != nil {
		return Evaluation{}, res, err
	}
	return ev, res, nil
}

// History returns the employee's evaluations, newest first.
func (s *Service) History(ctx context.Context, employeeID string) ([]Evaluation, error) {
	emp, err := s.store.Get(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	out := make([]Evaluation, 0, len(emp.Evaluations))
	for i := len(emp.Evaluations) - 1; i >= 0; i-- {
		out = append(out, emp.Evaluations[i])
	}
	return out, nil
}
