// Package metrics derives ROI, income and performance series from the
// transaction ledger. Stored investment records only ever supply the
// current state; anything historical is reconstructed from snapshots.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/fitrackhq/fitrack/internal/common"
	"github.com/fitrackhq/fitrack/internal/interfaces"
	"github.com/fitrackhq/fitrack/internal/models"
	"golang.org/x/sync/errgroup"
)

// Service implements interfaces.MetricsService.
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
	reducer interfaces.SnapshotReducer

	now func() time.Time
}

// NewService creates a metrics service using the max monthly reducer.
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		reducer: interfaces.SnapshotReducerMax,
		now:     time.Now,
	}
}

// WithReducer overrides how snapshot amounts collapse within a month.
func (s *Service) WithReducer(reducer interfaces.SnapshotReducer) *Service {
	s.reducer = reducer
	return s
}

func (s *Service) InvestmentMetrics(ctx context.Context, userID, investmentID string) (*models.InvestmentMetrics, error) {
	inv, err := s.storage.InvestmentStore().Get(ctx, userID, investmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load investment: %w", err)
	}
	if inv == nil {
		return nil, nil
	}

	ledger := s.storage.LedgerStore()
	start := windowStart(s.now())
	ids := []string{investmentID}

	var (
		lifetimeIncome float64
		income12M      float64
		startValueTx   *models.Transaction
		startCostTx    *models.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lifetimeIncome, err = ledger.SumIncome(gctx, ids, nil)
		return err
	})
	g.Go(func() error {
		var err error
		income12M, err = ledger.SumIncome(gctx, ids, &start)
		return err
	})
	g.Go(func() error {
		var err error
		startValueTx, err = ledger.LatestSnapshotBefore(gctx, investmentID, models.TransactionTypeValueChange, start)
		return err
	})
	g.Go(func() error {
		var err error
		startCostTx, err = ledger.LatestSnapshotBefore(gctx, investmentID, models.TransactionTypeCostBasisChange, start)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to aggregate ledger: %w", err)
	}

	startValue, startCostBasis := 0.0, 0.0
	if startValueTx != nil {
		startValue = startValueTx.Amount
	}
	if startCostTx != nil {
		startCostBasis = startCostTx.Amount
	}

	m := computeMetrics(inv.CurrentValue, inv.CostBasis, startValue, startCostBasis, lifetimeIncome, income12M)
	return &m, nil
}

func (s *Service) AccountMetrics(ctx context.Context, userID, accountID string) (*models.AccountMetrics, error) {
	account, err := s.storage.AccountStore().Get(ctx, userID, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		return nil, nil
	}

	investments, err := s.storage.InvestmentStore().ListByAccount(ctx, userID, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list account investments: %w", err)
	}
	if len(investments) == 0 {
		return nil, nil
	}

	currentValue, costBasis := 0.0, 0.0
	ids := make([]string, 0, len(investments))
	for _, inv := range investments {
		currentValue += inv.CurrentValue
		costBasis += inv.CostBasis
		ids = append(ids, inv.ID)
	}

	ledger := s.storage.LedgerStore()
	start := windowStart(s.now())

	var (
		lifetimeIncome float64
		income12M      float64
	)
	startValues := make([]float64, len(ids))
	startCosts := make([]float64, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lifetimeIncome, err = ledger.SumIncome(gctx, ids, nil)
		return err
	})
	g.Go(func() error {
		var err error
		income12M, err = ledger.SumIncome(gctx, ids, &start)
		return err
	})
	for i, id := range ids {
		g.Go(func() error {
			tx, err := ledger.LatestSnapshotBefore(gctx, id, models.TransactionTypeValueChange, start)
			if err != nil {
				return err
			}
			if tx != nil {
				startValues[i] = tx.Amount
			}
			return nil
		})
		g.Go(func() error {
			tx, err := ledger.LatestSnapshotBefore(gctx, id, models.TransactionTypeCostBasisChange, start)
			if err != nil {
				return err
			}
			if tx != nil {
				startCosts[i] = tx.Amount
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to aggregate ledger: %w", err)
	}

	startValue, startCostBasis := 0.0, 0.0
	for i := range ids {
		startValue += startValues[i]
		startCostBasis += startCosts[i]
	}

	return &models.AccountMetrics{
		InvestmentMetrics:    computeMetrics(currentValue, costBasis, startValue, startCostBasis, lifetimeIncome, income12M),
		LifetimeAppreciation: currentValue - costBasis,
	}, nil
}

func (s *Service) MonthlyPerformance(ctx context.Context, userID, investmentID string) ([]models.PerformancePoint, error) {
	inv, err := s.storage.InvestmentStore().Get(ctx, userID, investmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load investment: %w", err)
	}
	if inv == nil {
		return nil, nil
	}

	ledger := s.storage.LedgerStore()
	start := windowStart(s.now())
	end := start.AddDate(0, seriesMonths, 0)

	var (
		seed   seriesSeed
		snaps  []interfaces.MonthlySnapshot
		income []interfaces.MonthlyIncome
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, lookup := range []struct {
		txType models.TransactionType
		dest   *float64
	}{
		{models.TransactionTypeValueChange, &seed.value},
		{models.TransactionTypeCostBasisChange, &seed.costBasis},
		{models.TransactionTypeDebtChange, &seed.debt},
	} {
		g.Go(func() error {
			tx, err := ledger.LatestSnapshotBefore(gctx, investmentID, lookup.txType, start)
			if err != nil {
				return err
			}
			if tx != nil {
				*lookup.dest = tx.Amount
			}
			return nil
		})
	}
	g.Go(func() error {
		var err error
		snaps, err = ledger.AggregateSnapshotsByMonth(gctx, investmentID, start, end, s.reducer)
		return err
	})
	g.Go(func() error {
		var err error
		income, err = ledger.AggregateIncomeByMonth(gctx, []string{investmentID}, start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to aggregate ledger: %w", err)
	}

	return buildSeries(start, seed, snaps, income), nil
}

// Compile-time check
var _ interfaces.MetricsService = (*Service)(nil)
