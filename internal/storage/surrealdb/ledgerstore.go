package surrealdb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fitrackhq/fitrack/internal/common"
	"github.com/fitrackhq/fitrack/internal/interfaces"
	"github.com/fitrackhq/fitrack/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// LedgerStore persists the append-only transaction ledger and runs the
// aggregate queries the metrics layer is built on. Window arguments are
// inclusive of from and exclusive of to.
type LedgerStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewLedgerStore(db *surrealdb.DB, logger *common.Logger) *LedgerStore {
	return &LedgerStore{
		db:     db,
		logger: logger,
	}
}

func (s *LedgerStore) Get(ctx context.Context, userID, id string) (*models.Transaction, error) {
	tx, err := surrealdb.Select[models.Transaction](ctx, s.db, surrealmodels.NewRecordID("transaction", id))
	if err != nil {
		return nil, fmt.Errorf("failed to select transaction: %w", err)
	}
	if tx == nil || tx.UserID != userID {
		return nil, nil
	}
	return tx, nil
}

func (s *LedgerStore) Save(ctx context.Context, tx *models.Transaction) error {
	sql := "UPSERT type::record('transaction', $id) CONTENT $tx"
	vars := map[string]any{"id": tx.ID, "tx": tx}

	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.Transaction](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		if attempt == 3 {
			return fmt.Errorf("failed to save transaction after retries: %w", err)
		}
	}
	return nil
}

func (s *LedgerStore) Delete(ctx context.Context, userID, id string) error {
	existing, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	_, err = surrealdb.Delete[models.Transaction](ctx, s.db, surrealmodels.NewRecordID("transaction", id))
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

func (s *LedgerStore) DeleteByInvestment(ctx context.Context, userID, investmentID string) (int, error) {
	sql := "DELETE transaction WHERE user_id = $user_id AND investment_id = $investment_id RETURN BEFORE"
	vars := map[string]any{"user_id": userID, "investment_id": investmentID}

	rows, err := queryRows[models.Transaction](ctx, s.db, sql, vars)
	if err != nil {
		return 0, fmt.Errorf("failed to delete transactions: %w", err)
	}
	return len(rows), nil
}

func (s *LedgerStore) List(ctx context.Context, userID, investmentID string, opts interfaces.ListOptions) ([]*models.Transaction, error) {
	order := "DESC"
	if opts.OrderBy == "date_asc" {
		order = "ASC"
	}

	sql := fmt.Sprintf(
		"SELECT * FROM transaction WHERE user_id = $user_id AND investment_id = $investment_id ORDER BY transaction_date %s, created_at %s",
		order, order)
	if opts.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d START %d", opts.Limit, opts.Skip)
	}
	vars := map[string]any{"user_id": userID, "investment_id": investmentID}

	rows, err := queryRows[models.Transaction](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	txs := make([]*models.Transaction, 0, len(rows))
	for i := range rows {
		txs = append(txs, &rows[i])
	}
	return txs, nil
}

func (s *LedgerStore) Count(ctx context.Context, userID, investmentID string) (int, error) {
	type countRow struct {
		Total int `json:"total"`
	}

	sql := "SELECT count() AS total FROM transaction WHERE user_id = $user_id AND investment_id = $investment_id GROUP ALL"
	vars := map[string]any{"user_id": userID, "investment_id": investmentID}

	rows, err := queryRows[countRow](ctx, s.db, sql, vars)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func (s *LedgerStore) SumIncome(ctx context.Context, investmentIDs []string, since *time.Time) (float64, error) {
	if len(investmentIDs) == 0 {
		return 0, nil
	}

	type sumRow struct {
		Type  models.TransactionType `json:"type"`
		Total float64                `json:"total"`
	}

	sql := "SELECT type, math::sum(amount) AS total FROM transaction WHERE investment_id IN $ids AND type IN $types"
	vars := map[string]any{
		"ids":   investmentIDs,
		"types": []models.TransactionType{models.TransactionTypeGain, models.TransactionTypeLoss},
	}
	if since != nil {
		sql += " AND transaction_date >= $since"
		vars["since"] = *since
	}
	sql += " GROUP BY type"

	rows, err := queryRows[sumRow](ctx, s.db, sql, vars)
	if err != nil {
		return 0, fmt.Errorf("failed to sum income: %w", err)
	}

	total := 0.0
	for _, row := range rows {
		if row.Type == models.TransactionTypeLoss {
			total -= row.Total
		} else {
			total += row.Total
		}
	}
	return total, nil
}

func (s *LedgerStore) LatestSnapshotBefore(ctx context.Context, investmentID string, txType models.TransactionType, cutoff time.Time) (*models.Transaction, error) {
	sql := "SELECT * FROM transaction WHERE investment_id = $investment_id AND type = $type AND transaction_date < $cutoff" +
		" ORDER BY transaction_date DESC, created_at DESC LIMIT 1"
	vars := map[string]any{
		"investment_id": investmentID,
		"type":          txType,
		"cutoff":        cutoff,
	}

	rows, err := queryRows[models.Transaction](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *LedgerStore) AggregateSnapshotsByMonth(ctx context.Context, investmentID string, from, to time.Time, reducer interfaces.SnapshotReducer) ([]interfaces.MonthlySnapshot, error) {
	if reducer == interfaces.SnapshotReducerLatest {
		return s.latestSnapshotsByMonth(ctx, investmentID, from, to)
	}

	type aggRow struct {
		Year   int                    `json:"year"`
		Month  int                    `json:"month"`
		Type   models.TransactionType `json:"type"`
		Amount float64                `json:"amount"`
	}

	sql := "SELECT time::year(transaction_date) AS year, time::month(transaction_date) AS month, type, math::max(amount) AS amount" +
		" FROM transaction WHERE investment_id = $investment_id AND type IN $types" +
		" AND transaction_date >= $from AND transaction_date < $to GROUP BY year, month, type"
	vars := map[string]any{
		"investment_id": investmentID,
		"types":         models.SnapshotTypes(),
		"from":          from,
		"to":            to,
	}

	rows, err := queryRows[aggRow](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate snapshots: %w", err)
	}

	snapshots := make([]interfaces.MonthlySnapshot, 0, len(rows))
	for _, row := range rows {
		snapshots = append(snapshots, interfaces.MonthlySnapshot{
			Year:   row.Year,
			Month:  row.Month,
			Type:   row.Type,
			Amount: row.Amount,
		})
	}
	sortSnapshots(snapshots)
	return snapshots, nil
}

// latestSnapshotsByMonth reduces each month to the amount of its latest
// transaction. SurrealQL grouping cannot express a per-group argmax, so the
// window's rows are scanned in chronological order instead.
func (s *LedgerStore) latestSnapshotsByMonth(ctx context.Context, investmentID string, from, to time.Time) ([]interfaces.MonthlySnapshot, error) {
	sql := "SELECT * FROM transaction WHERE investment_id = $investment_id AND type IN $types" +
		" AND transaction_date >= $from AND transaction_date < $to ORDER BY transaction_date ASC, created_at ASC"
	vars := map[string]any{
		"investment_id": investmentID,
		"types":         models.SnapshotTypes(),
		"from":          from,
		"to":            to,
	}

	rows, err := queryRows[models.Transaction](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate snapshots: %w", err)
	}

	type monthKey struct {
		year  int
		month int
		typ   models.TransactionType
	}
	latest := make(map[monthKey]float64)
	for _, tx := range rows {
		d := tx.TransactionDate.UTC()
		latest[monthKey{d.Year(), int(d.Month()), tx.Type}] = tx.Amount
	}

	snapshots := make([]interfaces.MonthlySnapshot, 0, len(latest))
	for key, amount := range latest {
		snapshots = append(snapshots, interfaces.MonthlySnapshot{
			Year:   key.year,
			Month:  key.month,
			Type:   key.typ,
			Amount: amount,
		})
	}
	sortSnapshots(snapshots)
	return snapshots, nil
}

func (s *LedgerStore) AggregateIncomeByMonth(ctx context.Context, investmentIDs []string, from, to time.Time) ([]interfaces.MonthlyIncome, error) {
	if len(investmentIDs) == 0 {
		return nil, nil
	}

	type aggRow struct {
		Year  int                    `json:"year"`
		Month int                    `json:"month"`
		Type  models.TransactionType `json:"type"`
		Total float64                `json:"total"`
	}

	sql := "SELECT time::year(transaction_date) AS year, time::month(transaction_date) AS month, type, math::sum(amount) AS total" +
		" FROM transaction WHERE investment_id IN $ids AND type IN $types" +
		" AND transaction_date >= $from AND transaction_date < $to GROUP BY year, month, type"
	vars := map[string]any{
		"ids":   investmentIDs,
		"types": []models.TransactionType{models.TransactionTypeGain, models.TransactionTypeLoss},
		"from":  from,
		"to":    to,
	}

	rows, err := queryRows[aggRow](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate income: %w", err)
	}

	type monthKey struct {
		year  int
		month int
	}
	totals := make(map[monthKey]float64)
	for _, row := range rows {
		key := monthKey{row.Year, row.Month}
		if row.Type == models.TransactionTypeLoss {
			totals[key] -= row.Total
		} else {
			totals[key] += row.Total
		}
	}

	income := make([]interfaces.MonthlyIncome, 0, len(totals))
	for key, total := range totals {
		income = append(income, interfaces.MonthlyIncome{
			Year:   key.year,
			Month:  key.month,
			Income: total,
		})
	}
	sort.Slice(income, func(i, j int) bool {
		if income[i].Year != income[j].Year {
			return income[i].Year < income[j].Year
		}
		return income[i].Month < income[j].Month
	})
	return income, nil
}

func sortSnapshots(snapshots []interfaces.MonthlySnapshot) {
	sort.Slice(snapshots, func(i, j int) bool {
		if snapshots[i].Year != snapshots[j].Year {
			return snapshots[i].Year < snapshots[j].Year
		}
		if snapshots[i].Month != snapshots[j].Month {
			return snapshots[i].Month < snapshots[j].Month
		}
		return snapshots[i].Type < snapshots[j].Type
	})
}
