package ledger

import "github.com/shopspring/decimal"

// DefaultGrowthRate is the simulated annual Bitcoin growth, in percent, used
// when the caller gives none.
var DefaultGrowthRate = decimal.NewFromInt(30)

const weeksPerYear = 52

// GrowthPoint is the state of a simulated DCA plan at the end of a year.
type GrowthPoint struct {
	Year        int             `json:"year"`
	Contributed decimal.Decimal `json:"contributed"`
	Value       decimal.Decimal `json:"value"`
}

// ProjectGrowth simulates buying weeklyContribution every week for years,
// compounding weekly at annualRatePercent. Nothing is bought; it is a projection.
func ProjectGrowth(weeklyContribution, annualRatePercent decimal.Decimal, years int) []GrowthPoint {
	if years <= 0 || weeklyContribution.IsNegative() {
		return nil
	}
	weeklyRate := annualRatePercent.
		Div(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(weeksPerYear))
	growth := decimal.NewFromInt(1).Add(weeklyRate)

	points := make([]GrowthPoint, 0, years)
	value := decimal.Zero
	contributed := decimal.Zero
	for y := 1; y <= years; y++ {
		for w := 0; w < weeksPerYear; w++ {
			value = value.Mul(growth).Add(weeklyContribution)
			contributed = contributed.Add(weeklyContribution)
		}
		points = append(points, GrowthPoint{
			Year:        y,
			Contributed: contributed.Round(2),
			Value:       value.Round(2),
		})
	}
	return points
}
