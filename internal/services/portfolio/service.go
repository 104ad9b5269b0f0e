// Package portfolio aggregates a user's full investment set into the
// summary bundle: totals, groupings, the 12-month income series and the
// financial-independence checklist.
package portfolio

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/fitrackhq/fitrack/internal/common"
	"github.com/fitrackhq/fitrack/internal/interfaces"
	"github.com/fitrackhq/fitrack/internal/models"
	"golang.org/x/sync/errgroup"
)

// seriesMonths is the fixed length of the monthly income series.
const seriesMonths = 12

// Service implements interfaces.PortfolioService.
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger

	now func() time.Time
}

// NewService creates a portfolio service.
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Service) Summary(ctx context.Context, userID string) (*models.PortfolioSummary, error) {
	var (
		user        *models.User
		investments []*models.Investment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.storage.UserStore().GetUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		investments, err = s.storage.InvestmentStore().List(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}
	if user == nil {
		return nil, nil
	}

	summary := &models.PortfolioSummary{
		ValueByAccountType:    models.NewValueByAccountType(),
		ValueByInvestmentType: models.NewValueByInvestmentType(),
	}

	totalDebt := 0.0
	ids := make([]string, 0, len(investments))
	for _, inv := range investments {
		summary.TotalValue += inv.CurrentValue
		totalDebt += inv.CurrentDebt
		if inv.AccountType == models.AccountTypeCashReserve {
			summary.TotalCashReserve += inv.CurrentValue
		}
		summary.ValueByAccountType[inv.AccountType] += inv.CurrentValue
		summary.ValueByInvestmentType[inv.Type] += inv.CurrentValue
		ids = append(ids, inv.ID)
	}
	summary.TotalEquity = summary.TotalValue - totalDebt

	profile := &user.Profile
	summary.TotalMonthlyExpenses = profile.TotalExpenses()
	summary.TotalMonthlyIncome = profile.TotalIncome()
	summary.TotalRetirementIncome = profile.TotalRetirementIncome()
	summary.IncomeExpenseDifference = summary.TotalMonthlyIncome - summary.TotalMonthlyExpenses

	if summary.TotalMonthlyExpenses > 0 {
		summary.MonthsOfReserves = int(math.Floor(summary.TotalCashReserve / summary.TotalMonthlyExpenses))
	}

	start := monthWindowStart(s.now())
	income, err := s.storage.LedgerStore().AggregateIncomeByMonth(ctx, ids, start, start.AddDate(0, seriesMonths, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate monthly income: %w", err)
	}
	summary.MonthlyIncome = buildMonthlyIncomeSeries(start, income)

	incomeSum := 0.0
	for _, point := range summary.MonthlyIncome {
		incomeSum += point.Income
	}
	summary.AverageMonthlyPassiveIncome = incomeSum / seriesMonths

	retirementValue := summary.ValueByAccountType[models.AccountTypeRetirement]
	summary.RetirementMonthlyWithdrawal = retirementValue * (profile.WithdrawalRate / 100) / 12

	summary.FiTrackerSteps = buildFiTrackerSteps(fiInputs{
		totalMonthlyIncome:          summary.TotalMonthlyIncome,
		totalMonthlyExpenses:        summary.TotalMonthlyExpenses,
		incomeExpenseDifference:     summary.IncomeExpenseDifference,
		monthsOfReserves:            summary.MonthsOfReserves,
		maxIncome:                   profile.MaxIncome(),
		averageMonthlyPassiveIncome: summary.AverageMonthlyPassiveIncome,
		retirementMonthlyWithdrawal: summary.RetirementMonthlyWithdrawal,
		totalRetirementIncome:       summary.TotalRetirementIncome,
	})

	return summary, nil
}

// monthWindowStart returns the first instant of the month 11 months before
// now, so the series spans 12 calendar months ending with the current one.
// Truncate to the month before stepping back: subtracting months from a
// month-end day would normalize forward and shift the window a month late.
func monthWindowStart(now time.Time) time.Time {
	t := now.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(seriesMonths - 1), 0)
}

// buildMonthlyIncomeSeries zero-fills the fixed 12-month window and drops in
// the aggregated sums. Months are keyed "YYYY-MM" in chronological order.
func buildMonthlyIncomeSeries(start time.Time, income []interfaces.MonthlyIncome) []models.MonthlyIncomePoint {
	type monthKey struct {
		year  int
		month int
	}
	byMonth := make(map[monthKey]float64, len(income))
	for _, in := range income {
		byMonth[monthKey{in.Year, in.Month}] = in.Income
	}

	points := make([]models.MonthlyIncomePoint, 0, seriesMonths)
	for i := 0; i < seriesMonths; i++ {
		m := start.AddDate(0, i, 0)
		points = append(points, models.MonthlyIncomePoint{
			Month:  m.Format("2006-01"),
			Income: byMonth[monthKey{m.Year(), int(m.Month())}],
		})
	}
	return points
}

// Compile-time check
var _ interfaces.PortfolioService = (*Service)(nil)
