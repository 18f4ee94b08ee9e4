package reports

import (
	"github.com/xuri/excelize/v2"

	"evaltool/internal/domain/evaluation"
)

const (
	SheetEmployees   = "Employees"
	SheetEvaluations = "Evaluations"
)

// Workbook writes one summary row per employee and one row per evaluation.
func Workbook(employees []evaluation.Employee) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetEmployees); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetEvaluations); err != nil {
		return nil, err
	}

	if err := setRow(f, SheetEmployees, 1, []interface{}{"ID", "Name", "Matricule", "Role", "Role %", "Evaluations", "Latest %", "Latest overall"}); err != nil {
		return nil, err
	}
	for i, s := range Summaries(employees) {
		row := []interface{}{s.ID, s.Name, s.Matricule, s.Role, s.PercentRole, s.EvaluationCount, "", ""}
		if s.LatestPercent != nil {
			row[6] = *s.LatestPercent
			row[7] = *s.LatestOverall
		}
		if err := setRow(f, SheetEmployees, i+2, row); err != nil {
			return nil, err
		}
	}

	if err := setRow(f, SheetEvaluations, 1, []interface{}{
		"Employee ID", "Employee", "Evaluation ID", "Date", "Absences", "Lateness",
		"Discipline", "Commitment", "Attention", "Speed", "Relations",
		"Subtotal", "Role %", "Percent value", "Manager points", "Overall",
	}); err != nil {
		return nil, err
	}
	next := 2
	for _, emp := range employees {
		for _, ev := range newestFirst(emp.Evaluations) {
			row := []interface{}{
				emp.ID, emp.Name, ev.ID, ev.Date.Format("2006-01-02 15:04"),
				ev.DisciplineDetails.Absences, ev.DisciplineDetails.Lateness,
				ev.Scores.Discipline, ev.Scores.Commitment, ev.Scores.Attention, ev.Scores.Speed, ev.Scores.Relations,
				ev.Subtotal, ev.PercentRole, ev.PercentValue, ev.ManagerPoints, OverallPoints(ev),
			}
			if err := setRow(f, SheetEvaluations, next, row); err != nil {
				return nil, err
			}
			next++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
