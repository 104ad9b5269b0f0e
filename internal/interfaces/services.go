package interfaces

import (
	"context"

	"github.com/fitrackhq/fitrack/internal/models"
)

// MetricsService derives ROI and income metrics from the ledger.
// Lookups for a missing investment or account return (nil, nil): absence
// is a presentation concern, not an error.
type MetricsService interface {
	// InvestmentMetrics computes the metrics bundle for one investment.
	InvestmentMetrics(ctx context.Context, userID, investmentID string) (*models.InvestmentMetrics, error)

	// AccountMetrics computes the aggregated bundle for an account's
	// investment set. Returns (nil, nil) when the account has no investments.
	AccountMetrics(ctx context.Context, userID, accountID string) (*models.AccountMetrics, error)

	// MonthlyPerformance builds the 12-point monthly series for charting.
	MonthlyPerformance(ctx context.Context, userID, investmentID string) ([]models.PerformancePoint, error)
}

// PortfolioService aggregates across a user's full investment set.
type PortfolioService interface {
	// Summary computes totals, distributions, the 12-month income series,
	// and the FI-stage checklist for the user.
	Summary(ctx context.Context, userID string) (*models.PortfolioSummary, error)
}

// InvestmentService owns the write path: investment/account/transaction
// mutations and the ledger seeding they imply.
type InvestmentService interface {
	GetInvestment(ctx context.Context, userID, id string) (*models.Investment, error)
	ListInvestments(ctx context.Context, userID, accountID string) ([]*models.Investment, error)

	// SaveInvestment creates or updates an investment. Creation seeds the
	// ledger with initial value/cost-basis (and debt when non-zero)
	// snapshot transactions; an update writes a snapshot-change transaction
	// for each field that differs from the stored record.
	SaveInvestment(ctx context.Context, userID string, inv *models.Investment) (*models.Investment, error)

	// DeleteInvestment removes the investment and its ledger entries.
	DeleteInvestment(ctx context.Context, userID, id string) error

	// RecomputeSnapshot rederives the investment's current value, cost
	// basis and debt as the latest-per-type ledger amounts and persists
	// them. Idempotent; repairs drift after ledger edits or deletes.
	RecomputeSnapshot(ctx context.Context, userID, id string) (*models.Investment, error)

	ListTransactions(ctx context.Context, userID, investmentID string, opts ListOptions) ([]*models.Transaction, int, error)
	SaveTransaction(ctx context.Context, userID string, tx *models.Transaction) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) error

	ListAccounts(ctx context.Context, userID string) ([]*models.Account, error)
	SaveAccount(ctx context.Context, userID string, account *models.Account) (*models.Account, error)
	DeleteAccount(ctx context.Context, userID, id string) error
}
