// Package interfaces defines service contracts for FiTrack
package interfaces

import (
	"context"
	"time"

	"github.com/fitrackhq/fitrack/internal/models"
)

// StorageManager coordinates all storage backends. It is opened once at
// process start and the shared read-only handle is injected into every
// service; no package-level connection caching.
type StorageManager interface {
	UserStore() UserStore
	AccountStore() AccountStore
	InvestmentStore() InvestmentStore
	LedgerStore() LedgerStore

	Close() error
}

// UserStore manages registered user accounts and their embedded profiles.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, userID string) error
}

// AccountStore manages investment grouping accounts.
type AccountStore interface {
	Get(ctx context.Context, userID, id string) (*models.Account, error)
	List(ctx context.Context, userID string) ([]*models.Account, error)
	Save(ctx context.Context, account *models.Account) error
	Delete(ctx context.Context, userID, id string) error
}

// InvestmentStore manages current-state investment snapshots.
type InvestmentStore interface {
	Get(ctx context.Context, userID, id string) (*models.Investment, error)
	List(ctx context.Context, userID string) ([]*models.Investment, error)
	ListByAccount(ctx context.Context, userID, accountID string) ([]*models.Investment, error)
	Save(ctx context.Context, investment *models.Investment) error
	Delete(ctx context.Context, userID, id string) error

	// UnassignAccount clears the account linkage on all investments in the
	// account, returning how many were updated. Used when an account is
	// deleted so the registry never references a missing account.
	UnassignAccount(ctx context.Context, userID, accountID string) (int, error)

	// Touch updates only UpdatedAt. Ledger edits touch the owning
	// investment without recomputing its snapshot fields.
	Touch(ctx context.Context, userID, id string, at time.Time) error
}

// ListOptions configures ledger listing queries.
type ListOptions struct {
	Limit   int
	Skip    int
	OrderBy string // "date_desc" (default), "date_asc"
}

// SnapshotReducer selects how snapshot amounts within one calendar month
// collapse to a single value in AggregateSnapshotsByMonth.
type SnapshotReducer string

const (
	// SnapshotReducerMax takes the maximum amount seen in the month. This
	// mirrors the historical behavior: a "last known good" proxy that
	// favors the optimistic value when a month holds opposing corrections.
	SnapshotReducerMax SnapshotReducer = "max"

	// SnapshotReducerLatest takes the amount of the latest transaction in
	// the month, matching the reconstruction tie-break.
	SnapshotReducerLatest SnapshotReducer = "latest"
)

// MonthlySnapshot is one reduced snapshot aggregate for a calendar month.
type MonthlySnapshot struct {
	Year   int                    `json:"year"`
	Month  int                    `json:"month"`
	Type   models.TransactionType `json:"type"`
	Amount float64                `json:"amount"`
}

// MonthlyIncome is the signed gain/loss sum for a calendar month.
type MonthlyIncome struct {
	Year   int     `json:"year"`
	Month  int     `json:"month"`
	Income float64 `json:"income"`
}

// LedgerStore manages the append-only transaction ledger. Beyond CRUD it
// exposes the aggregate queries the metrics layer is built on: filtered
// sums, month-grouped aggregates, and latest-before lookups.
type LedgerStore interface {
	Get(ctx context.Context, userID, id string) (*models.Transaction, error)
	Save(ctx context.Context, tx *models.Transaction) error
	Delete(ctx context.Context, userID, id string) error
	DeleteByInvestment(ctx context.Context, userID, investmentID string) (int, error)

	List(ctx context.Context, userID, investmentID string, opts ListOptions) ([]*models.Transaction, error)
	Count(ctx context.Context, userID, investmentID string) (int, error)

	// SumIncome returns the signed gain/loss sum over the investments,
	// optionally restricted to transactions dated on or after since.
	SumIncome(ctx context.Context, investmentIDs []string, since *time.Time) (float64, error)

	// LatestSnapshotBefore returns the most recent transaction of the given
	// snapshot type dated strictly before cutoff, or nil when none exists.
	// Same-date ties resolve to the latest-created entry (last write wins).
	LatestSnapshotBefore(ctx context.Context, investmentID string, txType models.TransactionType, cutoff time.Time) (*models.Transaction, error)

	// AggregateSnapshotsByMonth reduces snapshot transactions in the window
	// to one amount per calendar month and type.
	AggregateSnapshotsByMonth(ctx context.Context, investmentID string, from, to time.Time, reducer SnapshotReducer) ([]MonthlySnapshot, error)

	// AggregateIncomeByMonth sums signed gain/loss amounts per calendar
	// month over the window.
	AggregateIncomeByMonth(ctx context.Context, investmentIDs []string, from, to time.Time) ([]MonthlyIncome, error)
}
