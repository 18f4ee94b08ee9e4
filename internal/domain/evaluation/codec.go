package evaluation

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DecodeCollection parses a JSON array of employee records. Only the outer
// shape is enforced: anything that is not an array is rejected with
// ErrMalformedImport, while the records inside are read leniently so data
// written by other clients survives a round trip.
func DecodeCollection(data []byte) ([]Employee, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrMalformedImport
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	employees := make([]Employee, 0, len(raw))
	for _, item := range raw {
		var rec employeeRecord
		if !isObject(item) || json.Unmarshal(item, &rec) != nil {
			continue
		}
		employees = append(employees, rec.employee())
	}
	return normalize(employees), nil
}

func EncodeCollection(employees []Employee) ([]byte, error) {
	return json.Marshal(normalize(employees))
}

// EncodeExport renders the collection as an indented JSON document.
func EncodeExport(employees []Employee) ([]byte, error) {
	return json.MarshalIndent(normalize(employees), "", "  ")
}

func normalize(employees []Employee) []Employee {
	if employees == nil {
		return []Employee{}
	}
	for i := range employees {
		if employees[i].Evaluations == nil {
			employees[i].Evaluations = []Evaluation{}
		}
	}
	return employees
}

type employeeRecord struct {
	ID          looseString       `json:"id"`
	Name        looseString       `json:"name"`
	Matricule   looseString       `json:"matricule"`
	Role        looseString       `json:"role"`
	Evaluations []json.RawMessage `json:"evaluations"`
}

func (r employeeRecord) employee() Employee {
	emp := Employee{
		ID:          string(r.ID),
		Name:        string(r.Name),
		Matricule:   string(r.Matricule),
		Role:        string(r.Role),
		Evaluations: make([]Evaluation, 0, len(r.Evaluations)),
	}
	for _, item := range r.Evaluations {
		var rec evaluationRecord
		if !isObject(item) || json.Unmarshal(item, &rec) != nil {
			continue
		}
		emp.Evaluations = append(emp.Evaluations, rec.evaluation())
	}
	return emp
}

type evaluationRecord struct {
	ID     looseString `json:"id"`
	Date   looseTime   `json:"date"`
	Scores struct {
		Discipline looseFloat `json:"discipline"`
		Commitment looseFloat `json:"commitment"`
		Attention  looseFloat `json:"attention"`
		Speed      looseFloat `json:"speed"`
		Relations  looseFloat `json:"relations"`
	} `json:"scores"`
	DisciplineDetails struct {
		Absences looseFloat `json:"absences"`
		Lateness looseFloat `json:"lateness"`
	} `json:"disciplineDetails"`
	ManagerPoints looseFloat `json:"managerPoints"`
	Subtotal      looseFloat `json:"subtotal"`
	PercentRole   looseFloat `json:"percentRole"`
	PercentValue  looseFloat `json:"percentValue"`
}

func (r evaluationRecord) evaluation() Evaluation {
	return Evaluation{
		ID:   string(r.ID),
		Date: time.Time(r.Date),
		Scores: Scores{
			Discipline: float64(r.Scores.Discipline),
			Commitment: float64(r.Scores.Commitment),
			Attention:  float64(r.Scores.Attention),
			Speed:      float64(r.Scores.Speed),
			Relations:  float64(r.Scores.Relations),
		},
		DisciplineDetails: DisciplineDetails{
			Absences: float64(r.DisciplineDetails.Absences),
			Lateness: float64(r.DisciplineDetails.Lateness),
		},
		ManagerPoints: float64(r.ManagerPoints),
		Subtotal:      float64(r.Subtotal),
		PercentRole:   float64(r.PercentRole),
		PercentValue:  float64(r.PercentValue),
	}
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// looseString accepts strings, numbers and booleans; null stays empty.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*s = ""
	case data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
	case data[0] == '{' || data[0] == '[':
		*s = ""
	default:
		*s = looseString(data)
	}
	return nil
}

// looseFloat accepts numbers and numeric strings; anything else reads as 0.
type looseFloat float64

func (f *looseFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		text = strings.TrimSpace(v)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	*f = looseFloat(v)
	return nil
}

var recordDateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

// looseTime accepts the common ISO layouts; empty or unparseable values read
// as the zero time.
type looseTime time.Time

func (t *looseTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		*t = looseTime{}
		return nil
	}
	raw = strings.TrimSpace(raw)
	for _, layout := range recordDateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			*t = looseTime(parsed.UTC())
			return nil
		}
	}
	*t = looseTime{}
	return nil
}
