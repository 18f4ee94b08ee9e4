package scoring

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	RoleMedical     = "medical"
	RoleParamedical = "paramedical"
	RolePsych       = "psych"
	RoleCommon      = "common"
)

const (
	MaxCriterionPoints = 6
	MaxSubtotal        = 30
	MaxManagerPoints   = 10

	absencePenalty  = 1.0
	latenessPenalty = 0.5
)

var rolePercents = map[string]float64{
	RoleMedical:     35,
	RoleParamedical: 35,
	RolePsych:       45,
	RoleCommon:      30,
}

// Roles lists the known roles in display order.
var Roles = []string{RoleMedical, RoleParamedical, RolePsych, RoleCommon}

// Scores holds the four qualitative criteria entered on the form. Discipline
// is not entered directly; it is derived from DisciplineInputs.
type Scores struct {
	Commitment float64 `json:"commitment"`
	Attention  float64 `json:"attention"`
	Speed      float64 `json:"speed"`
	Relations  float64 `json:"relations"`
}

type DisciplineInputs struct {
	Absences float64 `json:"absences"`
	Lateness float64 `json:"lateness"`
}

type Result struct {
	Discipline    float64 `json:"discipline"`
	Commitment    float64 `json:"commitment"`
	Attention     float64 `json:"attention"`
	Speed         float64 `json:"speed"`
	Relations     float64 `json:"relations"`
	Absences      float64 `json:"absences"`
	Lateness      float64 `json:"lateness"`
	ManagerPoints float64 `json:"managerPoints"`
	Subtotal      float64 `json:"subtotal"`
	PercentRole   float64 `json:"percentRole"`
	PercentValue  float64 `json:"percentValue"`
	OverallPoints float64 `json:"overallPoints"`
}

// Round2 rounds half-up to two decimal places.
func Round2(value float64) float64 {
	return round2(decimal.NewFromFloat(sanitize(value)))
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// DisciplinePoints starts from 6 and removes 1 point per absence and 0.5 per
// lateness, clamped to [0,6].
func DisciplinePoints(absences, lateness float64) float64 {
	penalty := decimal.NewFromFloat(nonNegative(absences)).Mul(decimal.NewFromFloat(absencePenalty)).
		Add(decimal.NewFromFloat(nonNegative(lateness)).Mul(decimal.NewFromFloat(latenessPenalty)))
	points := decimal.NewFromInt(MaxCriterionPoints).Sub(penalty)
	return round2(clampDecimal(points, MaxCriterionPoints))
}

// RolePercent returns the grant percentage for a role. Unknown roles get the
// common percentage.
func RolePercent(role string) float64 {
	if percent, ok := rolePercents[role]; ok {
		return percent
	}
	return rolePercents[RoleCommon]
}

// KnownRole reports whether role has its own entry in the percentage table.
func KnownRole(role string) bool {
	_, ok := rolePercents[role]
	return ok
}

func Evaluate(scores Scores, discipline DisciplineInputs, managerPoints float64, role string) Result {
	absences := nonNegative(discipline.Absences)
	lateness := nonNegative(discipline.Lateness)
	res := Result{
		Discipline:    DisciplinePoints(absences, lateness),
		Commitment:    clamp(scores.Commitment, MaxCriterionPoints),
		Attention:     clamp(scores.Attention, MaxCriterionPoints),
		Speed:         clamp(scores.Speed, MaxCriterionPoints),
		Relations:     clamp(scores.Relations, MaxCriterionPoints),
		Absences:      absences,
		Lateness:      lateness,
		ManagerPoints: clamp(managerPoints, MaxManagerPoints),
		PercentRole:   RolePercent(role),
	}

	subtotal := decimal.NewFromFloat(res.Discipline).
		Add(decimal.NewFromFloat(res.Commitment)).
		Add(decimal.NewFromFloat(res.Attention)).
		Add(decimal.NewFromFloat(res.Speed)).
		Add(decimal.NewFromFloat(res.Relations)).
		Round(2)
	res.Subtotal = subtotal.InexactFloat64()
	res.PercentValue = PercentValue(res.Subtotal, res.PercentRole)
	res.OverallPoints = round2(subtotal.Add(decimal.NewFromFloat(res.ManagerPoints)))
	return res
}

// PercentValue scales the role percentage by subtotal/30.
func PercentValue(subtotal, percentRole float64) float64 {
	value := decimal.NewFromFloat(sanitize(subtotal)).
		Div(decimal.NewFromInt(MaxSubtotal)).
		Mul(decimal.NewFromFloat(sanitize(percentRole)))
	return round2(value)
}

// clamp bounds value to [0,upper] without rounding; only the derived totals
// are rounded.
func clamp(value, upper float64) float64 {
	return clampDecimal(decimal.NewFromFloat(sanitize(value)), upper).InexactFloat64()
}

func clampDecimal(value decimal.Decimal, upper float64) decimal.Decimal {
	if value.IsNegative() {
		return decimal.Zero
	}
	limit := decimal.NewFromFloat(upper)
	if value.GreaterThan(limit) {
		return limit
	}
	return value
}

func nonNegative(value float64) float64 {
	value = sanitize(value)
	if value < 0 {
		return 0
	}
	return value
}

func sanitize(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}
