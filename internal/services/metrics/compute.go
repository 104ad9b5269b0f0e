package metrics

import (
	"time"

	"github.com/fitrackhq/fitrack/internal/interfaces"
	"github.com/fitrackhq/fitrack/internal/models"
)

// seriesMonths is the fixed length of every performance and income series.
const seriesMonths = 12

// windowStart returns the first instant of the month 11 months before now,
// so the window spans 12 calendar months ending with the current one.
// Truncate to the month before stepping back: subtracting months from a
// month-end day would normalize forward (Aug 31 minus 11 months lands on
// "Sep 31" = Oct 1) and shift the whole window a month late.
func windowStart(now time.Time) time.Time {
	t := now.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(seriesMonths - 1), 0)
}

// lifetimeROI treats realized income as part of the return alongside
// unrealized appreciation. A non-positive cost basis yields 0 rather than a
// division blowup.
func lifetimeROI(currentValue, costBasis, lifetimeIncome float64) float64 {
	if costBasis <= 0 {
		return 0
	}
	return ((currentValue + lifetimeIncome) - costBasis) / costBasis * 100
}

// twelveMonthROI measures profit over the trailing window against the
// position at the window start. New contributions during the window are
// backed out so they do not masquerade as growth. When there is no history
// before the window the lifetime figure stands in for it.
func twelveMonthROI(currentValue, costBasis, startValue, startCostBasis, income12M, lifetime float64) float64 {
	if startCostBasis <= 0 {
		return lifetime
	}
	investmentChange := costBasis - startCostBasis
	profit := (currentValue - startValue - investmentChange) + income12M

	denominator := startValue
	if denominator <= 0 {
		denominator = startCostBasis
	}
	return profit / denominator * 100
}

func computeMetrics(currentValue, costBasis, startValue, startCostBasis, lifetimeIncome, income12M float64) models.InvestmentMetrics {
	lifetime := lifetimeROI(currentValue, costBasis, lifetimeIncome)
	return models.InvestmentMetrics{
		LifetimeROI:      lifetime,
		ROI12M:           twelveMonthROI(currentValue, costBasis, startValue, startCostBasis, income12M, lifetime),
		LifetimeIncome:   lifetimeIncome,
		Income12M:        income12M,
		AvgMonthlyIncome: income12M / seriesMonths,
	}
}

// seriesSeed carries the last known state before the series window, so the
// first months can carry it forward until a snapshot lands.
type seriesSeed struct {
	value     float64
	costBasis float64
	debt      float64
}

// buildSeries produces the fixed 12-point monthly series starting at start.
// Snapshot months update the running value/cost/debt; months without a
// snapshot repeat the previous point. Income never carries forward.
func buildSeries(start time.Time, seed seriesSeed, snaps []interfaces.MonthlySnapshot, income []interfaces.MonthlyIncome) []models.PerformancePoint {
	type monthKey struct {
		year  int
		month int
	}

	snapsByMonth := make(map[monthKey]map[models.TransactionType]float64)
	for _, s := range snaps {
		key := monthKey{s.Year, s.Month}
		if snapsByMonth[key] == nil {
			snapsByMonth[key] = make(map[models.TransactionType]float64)
		}
		snapsByMonth[key][s.Type] = s.Amount
	}

	incomeByMonth := make(map[monthKey]float64, len(income))
	for _, in := range income {
		incomeByMonth[monthKey{in.Year, in.Month}] = in.Income
	}

	points := make([]models.PerformancePoint, 0, seriesMonths)
	value, costBasis, debt := seed.value, seed.costBasis, seed.debt
	for i := 0; i < seriesMonths; i++ {
		m := start.AddDate(0, i, 0)
		key := monthKey{m.Year(), int(m.Month())}

		if monthSnaps, ok := snapsByMonth[key]; ok {
			if v, ok := monthSnaps[models.TransactionTypeValueChange]; ok {
				value = v
			}
			if c, ok := monthSnaps[models.TransactionTypeCostBasisChange]; ok {
				costBasis = c
			}
			if d, ok := monthSnaps[models.TransactionTypeDebtChange]; ok {
				debt = d
			}
		}

		points = append(points, models.PerformancePoint{
			Date:      m.Format("Jan 06"),
			Value:     value,
			CostBasis: costBasis,
			Debt:      debt,
			Income:    incomeByMonth[key],
		})
	}
	return points
}
