package reports

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"evaltool/internal/domain/evaluation"
	"evaltool/internal/domain/scoring"
)

// EmployeePDF renders an employee's evaluation history, newest first.
func EmployeePDF(emp evaluation.Employee) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Evaluation history")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Employee: %s", emp.Name)))
	pdf.Ln(7)
	if emp.Matricule != "" {
		pdf.Cell(0, 8, tr(fmt.Sprintf("Matricule: %s", emp.Matricule)))
		pdf.Ln(7)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Role: %s (%.0f%%)", emp.Role, scoring.RolePercent(emp.Role)))
	pdf.Ln(10)

	if len(emp.Evaluations) == 0 {
		pdf.Cell(0, 8, "No evaluations recorded.")
	} else {
		headers := []string{"Date", "Discipline", "Commit.", "Attention", "Speed", "Relations", "Subtotal", "%", "Manager", "Overall"}
		widths := []float64{26, 18, 17, 18, 15, 18, 18, 18, 18, 18}
		pdf.SetFont("Helvetica", "B", 9)
		for i, h := range headers {
			pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
		for _, ev := range newestFirst(emp.Evaluations) {
			cells := []string{
				ev.Date.Format("2006-01-02"),
				formatPoints(ev.Scores.Discipline),
				formatPoints(ev.Scores.Commitment),
				formatPoints(ev.Scores.Attention),
				formatPoints(ev.Scores.Speed),
				formatPoints(ev.Scores.Relations),
				formatPoints(ev.Subtotal),
				formatPoints(ev.PercentValue),
				formatPoints(ev.ManagerPoints),
				formatPoints(OverallPoints(ev)),
			}
			for i, c := range cells {
				pdf.CellFormat(widths[i], 7, c, "1", 0, "R", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatPoints(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
