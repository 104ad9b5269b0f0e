package investment

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/fitrackhq/fitrack/internal/common"
	"github.com/fitrackhq/fitrack/internal/interfaces"
	"github.com/fitrackhq/fitrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStorage is an in-memory StorageManager for write-path tests.
type memStorage struct {
	users       *memUserStore
	accounts    *memAccountStore
	investments *memInvestmentStore
	ledger      *memLedgerStore
}

func newMemStorage() *memStorage {
	return &memStorage{
		users:       &memUserStore{users: map[string]*models.User{}},
		accounts:    &memAccountStore{accounts: map[string]*models.Account{}},
		investments: &memInvestmentStore{investments: map[string]*models.Investment{}},
		ledger:      &memLedgerStore{},
	}
}

func (m *memStorage) UserStore() interfaces.UserStore             { return m.users }
func (m *memStorage) AccountStore() interfaces.AccountStore       { return m.accounts }
func (m *memStorage) InvestmentStore() interfaces.InvestmentStore { return m.investments }
func (m *memStorage) LedgerStore() interfaces.LedgerStore         { return m.ledger }
func (m *memStorage) Close() error                                { return nil }

type memUserStore struct {
	users map[string]*models.User
}

func (s *memUserStore) GetUser(_ context.Context, userID string) (*models.User, error) {
	return s.users[userID], nil
}
func (s *memUserStore) GetUserByEmail(_ context.Context, _ string) (*models.User, error) {
	return nil, nil
}
func (s *memUserStore) SaveUser(_ context.Context, user *models.User) error {
	s.users[user.UserID] = user
	return nil
}
func (s *memUserStore) DeleteUser(_ context.Context, userID string) error {
	delete(s.users, userID)
	return nil
}

type memAccountStore struct {
	accounts map[string]*models.Account
}

func (s *memAccountStore) Get(_ context.Context, userID, id string) (*models.Account, error) {
	a := s.accounts[id]
	if a == nil || a.UserID != userID {
		return nil, nil
	}
	return a, nil
}
func (s *memAccountStore) List(_ context.Context, userID string) ([]*models.Account, error) {
	var out []*models.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Description < out[j].Description })
	return out, nil
}
func (s *memAccountStore) Save(_ context.Context, account *models.Account) error {
	s.accounts[account.ID] = account
	return nil
}
func (s *memAccountStore) Delete(_ context.Context, userID, id string) error {
	if a := s.accounts[id]; a != nil && a.UserID == userID {
		delete(s.accounts, id)
	}
	return nil
}

type memInvestmentStore struct {
	investments map[string]*models.Investment
}

func (s *memInvestmentStore) Get(_ context.Context, userID, id string) (*models.Investment, error) {
	inv := s.investments[id]
	if inv == nil || inv.UserID != userID {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}
func (s *memInvestmentStore) List(_ context.Context, userID string) ([]*models.Investment, error) {
	var out []*models.Investment
	for _, inv := range s.investments {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Description < out[j].Description })
	return out, nil
}
func (s *memInvestmentStore) ListByAccount(_ context.Context, userID, accountID string) ([]*models.Investment, error) {
	var out []*models.Investment
	for _, inv := range s.investments {
		if inv.UserID == userID && inv.AccountID == accountID {
			out = append(out, inv)
		}
	}
	return out, nil
}
func (s *memInvestmentStore) Save(_ context.Context, investment *models.Investment) error {
	cp := *investment
	s.investments[investment.ID] = &cp
	return nil
}
func (s *memInvestmentStore) Delete(_ context.Context, userID, id string) error {
	if inv := s.investments[id]; inv != nil && inv.UserID == userID {
		delete(s.investments, id)
	}
	return nil
}
func (s *memInvestmentStore) UnassignAccount(_ context.Context, userID, accountID string) (int, error) {
	count := 0
	for _, inv := range s.investments {
		if inv.UserID == userID && inv.AccountID == accountID {
			inv.AccountID = ""
			count++
		}
	}
	return count, nil
}
func (s *memInvestmentStore) Touch(_ context.Context, userID, id string, at time.Time) error {
	if inv := s.investments[id]; inv != nil && inv.UserID == userID {
		inv.UpdatedAt = at
	}
	return nil
}

type memLedgerStore struct {
	txs []*models.Transaction
}

func (s *memLedgerStore) Get(_ context.Context, userID, id string) (*models.Transaction, error) {
	for _, tx := range s.txs {
		if tx.ID == id && tx.UserID == userID {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, nil
}
func (s *memLedgerStore) Save(_ context.Context, tx *models.Transaction) error {
	cp := *tx
	for i, existing := range s.txs {
		if existing.ID == tx.ID {
			s.txs[i] = &cp
			return nil
		}
	}
	s.txs = append(s.txs, &cp)
	return nil
}
func (s *memLedgerStore) Delete(_ context.Context, userID, id string) error {
	for i, tx := range s.txs {
		if tx.ID == id && tx.UserID == userID {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			return nil
		}
	}
	return nil
}
func (s *memLedgerStore) DeleteByInvestment(_ context.Context, userID, investmentID string) (int, error) {
	var kept []*models.Transaction
	count := 0
	for _, tx := range s.txs {
		if tx.UserID == userID && tx.InvestmentID == investmentID {
			count++
			continue
		}
		kept = append(kept, tx)
	}
	s.txs = kept
	return count, nil
}
func (s *memLedgerStore) List(_ context.Context, userID, investmentID string, opts interfaces.ListOptions) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for _, tx := range s.txs {
		if tx.UserID == userID && tx.InvestmentID == investmentID {
			out = append(out, tx)
		}
	}
	asc := opts.OrderBy == "date_asc"
	sort.Slice(out, func(i, j int) bool {
		if asc {
			return out[i].TransactionDate.Before(out[j].TransactionDate)
		}
		return out[i].TransactionDate.After(out[j].TransactionDate)
	})
	if opts.Skip > 0 {
		if opts.Skip >= len(out) {
			return nil, nil
		}
		out = out[opts.Skip:]
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}
func (s *memLedgerStore) Count(_ context.Context, userID, investmentID string) (int, error) {
	count := 0
	for _, tx := range s.txs {
		if tx.UserID == userID && tx.InvestmentID == investmentID {
			count++
		}
	}
	return count, nil
}
func (s *memLedgerStore) SumIncome(_ context.Context, _ []string, _ *time.Time) (float64, error) {
	return 0, nil
}
func (s *memLedgerStore) LatestSnapshotBefore(_ context.Context, investmentID string, txType models.TransactionType, cutoff time.Time) (*models.Transaction, error) {
	var latest *models.Transaction
	for _, tx := range s.txs {
		if tx.InvestmentID != investmentID || tx.Type != txType || !tx.TransactionDate.Before(cutoff) {
			continue
		}
		if latest == nil ||
			tx.TransactionDate.After(latest.TransactionDate) ||
			(tx.TransactionDate.Equal(latest.TransactionDate) && tx.CreatedAt.After(latest.CreatedAt)) {
			latest = tx
		}
	}
	return latest, nil
}
func (s *memLedgerStore) AggregateSnapshotsByMonth(_ context.Context, _ string, _, _ time.Time, _ interfaces.SnapshotReducer) ([]interfaces.MonthlySnapshot, error) {
	return nil, nil
}
func (s *memLedgerStore) AggregateIncomeByMonth(_ context.Context, _ []string, _, _ time.Time) ([]interfaces.MonthlyIncome, error) {
	return nil, nil
}

func (s *memLedgerStore) byType(investmentID string, txType models.TransactionType) []*models.Transaction {
	var out []*models.Transaction
	for _, tx := range s.txs {
		if tx.InvestmentID == investmentID && tx.Type == txType {
			out = append(out, tx)
		}
	}
	return out
}

var _ interfaces.StorageManager = (*memStorage)(nil)

func testService(storage interfaces.StorageManager) *Service {
	svc := NewService(storage, common.NewSilentLogger())
	svc.now = func() time.Time {
		return time.Date(2025, 8, 31, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestSaveInvestmentCreateSeedsLedger(t *testing.T) {
	storage := newMemStorage()
	ctx := context.Background()

	created, err := testService(storage).SaveInvestment(ctx, "u1", &models.Investment{
		Description:  "Rental property",
		Type:         models.InvestmentTypeRealEstate,
		AccountType:  models.AccountTypeInvestment,
		CostBasis:    250000,
		CurrentValue: 300000,
		CurrentDebt:  180000,
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "u1", created.UserID)

	// Three seeds: value, cost basis and debt
	require.Len(t, storage.ledger.txs, 3)
	values := storage.ledger.byType(created.ID, models.TransactionTypeValueChange)
	require.Len(t, values, 1)
	assert.Equal(t, 300000.0, values[0].Amount)
	assert.Equal(t, "Initial investment value", values[0].Description)

	costs := storage.ledger.byType(created.ID, models.TransactionTypeCostBasisChange)
	require.Len(t, costs, 1)
	assert.Equal(t, "Initial cost basis", costs[0].Description)

	debts := storage.ledger.byType(created.ID, models.TransactionTypeDebtChange)
	require.Len(t, debts, 1)
	assert.Equal(t, 180000.0, debts[0].Amount)
	assert.Equal(t, "Initial debt", debts[0].Description)
}

func TestSaveInvestmentCreateSkipsZeroDebtSeed(t *testing.T) {
	storage := newMemStorage()

	created, err := testService(storage).SaveInvestment(context.Background(), "u1", &models.Investment{
		Description:  "Index fund",
		Type:         models.InvestmentTypeStocks,
		AccountType:  models.AccountTypeInvestment,
		CostBasis:    1000,
		CurrentValue: 1200,
	})
	require.NoError(t, err)
	assert.Len(t, storage.ledger.txs, 2)
	assert.Empty(t, storage.ledger.byType(created.ID, models.TransactionTypeDebtChange))
}

func TestSaveInvestmentUpdateRecordsOnlyChangedFields(t *testing.T) {
	storage := newMemStorage()
	ctx := context.Background()
	svc := testService(storage)

	created, err := svc.SaveInvestment(ctx, "u1", &models.Investment{
		Description:  "Index fund",
		Type:         models.InvestmentTypeStocks,
		AccountType:  models.AccountTypeInvestment,
		CostBasis:    1000,
		CurrentValue: 1200,
	})
	require.NoError(t, err)
	seeded := len(storage.ledger.txs)

	// Only the value changes
	created.CurrentValue = 1500
	_, err = svc.SaveInvestment(ctx, "u1", created)
	require.NoError(t, err)

	require.Len(t, storage.ledger.txs, seeded+1)
	values := storage.ledger.byType(created.ID, models.TransactionTypeValueChange)
	require.Len(t, values, 2)
	assert.Equal(t, "Change in investment value", values[1].Description)
	assert.Equal(t, 1500.0, values[1].Amount)

	// No change at all writes nothing
	_, err = svc.SaveInvestment(ctx, "u1", created)
	require.NoError(t, err)
	assert.Len(t, storage.ledger.txs, seeded+1)
}

func TestSaveInvestmentUpdateMissing(t *testing.T) {
	storage := newMemStorage()

	_, err := testService(storage).SaveInvestment(context.Background(), "u1", &models.Investment{
		ID:          "ghost",
		Description: "Ghost",
		Type:        models.InvestmentTypeStocks,
		AccountType: models.AccountTypeInvestment,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveInvestmentValidation(t *testing.T) {
	storage := newMemStorage()
	svc := testService(storage)
	ctx := context.Background()

	_, err := svc.SaveInvestment(ctx, "u1", &models.Investment{
		Type: models.InvestmentTypeStocks, AccountType: models.AccountTypeInvestment,
	})
	assert.ErrorIs(t, err, ErrInvalidInput, "missing description")

	_, err = svc.SaveInvestment(ctx, "u1", &models.Investment{
		Description: "Bad type", Type: "crypto", AccountType: models.AccountTypeInvestment,
	})
	assert.ErrorIs(t, err, ErrInvalidInput, "unknown investment type")

	_, err = svc.SaveInvestment(ctx, "u1", &models.Investment{
		Description: "Negative", Type: models.InvestmentTypeStocks,
		AccountType: models.AccountTypeInvestment, CurrentValue: -5,
	})
	assert.ErrorIs(t, err, ErrInvalidInput, "negative amount")
}

func TestDeleteInvestmentCascadesLedger(t *testing.T) {
	storage := newMemStorage()
	ctx := context.Background()
	svc := testService(storage)

	created, err := svc.SaveInvestment(ctx, "u1", &models.Investment{
		Description: "Doomed", Type: models.InvestmentTypeStocks,
		AccountType: models.AccountTypeInvestment, CostBasis: 100, CurrentValue: 100,
	})
	require.NoError(t, err)
	require.NotEmpty(t, storage.ledger.txs)

	require.NoError(t, svc.DeleteInvestment(ctx, "u1", created.ID))
	assert.Empty(t, storage.ledger.txs)
	assert.Empty(t, storage.investments.investments)

	assert.ErrorIs(t, svc.DeleteInvestment(ctx, "u1", created.ID), ErrNotFound)
}

func TestSaveTransactionTouchesInvestment(t *testing.T) {
	storage := newMemStorage()
	ctx := context.Background()
	svc := testService(storage)

	created, err := svc.SaveInvestment(ctx, "u1", &models.Investment{
		Description: "Fund", Type: models.InvestmentTypeStocks,
		AccountType: models.AccountTypeInvestment, CostBasis: 100, CurrentValue: 100,
	})
	require.NoError(t, err)

	// Age the investment so the touch is observable
	aged := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	storage.investments.investments[created.ID].UpdatedAt = aged

	tx, err := svc.SaveTransaction(ctx, "u1", &models.Transaction{
		InvestmentID:    created.ID,
		Type:            models.TransactionTypeGain,
		TransactionDate: time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC),
		Amount:          25,
		Description:     "Dividend",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, "u1", tx.UserID)

	inv := storage.investments.investments[created.ID]
	assert.True(t, inv.UpdatedAt.After(aged), "ledger save should touch the investment")
	// Snapshot fields stay as they were
	assert.Equal(t, 100.0, inv.CurrentValue)
}

func TestSaveTransactionRejectsMoveBetweenInvestments(t *testing.T) {
	storage := newMemStorage()
	ctx := context.Background()
	svc := testService(storage)

	first, err := svc.SaveInvestment(ctx, "u1", &models.Investment{
		Description: "First", Type: models.InvestmentTypeStocks,
		AccountType: models.AccountTypeInvestment, CostBasis: 100, CurrentValue: 100,
	})
	require.NoError(t, err)
	second, err := svc.SaveInvestment(ctx, "u1", &models.Investment{
		Description: "Second", Type: models.InvestmentTypeStocks,
		AccountType: models.AccountTypeInvestment, CostBasis: 100, CurrentValue: 100,
	})
	require.NoError(t, err)

	tx, err := svc.SaveTransaction(ctx, "u1", &models.Transaction{
		InvestmentID: first.ID, Type: models.TransactionTypeGain, Amount: 10,
	})
	require.NoError(t, err)

	tx.InvestmentID = second.ID
	_, err = svc.SaveTransaction(ctx, "u1", tx)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSaveTransactionMissingInvestment(t *testing.T) {
	storage := newMemStorage()

	_, err := testService(storage).SaveTransaction(context.Background(), "u1", &models.Transaction{
		InvestmentID: "ghost", Type: models.TransactionTypeGain, Amount: 10,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTransactionLeavesSnapshotUntouched(t *testing.T) {
	storage := newMemStorage()
	ctx := context.Background()
	svc := testService(storage)

	created, err := svc.SaveInvestment(ctx, "u1", &models.Investment{
		Description: "Fund", Type: models.InvestmentTypeStocks,
		AccountType: models.AccountTypeInvestment, CostBasis: 100, CurrentValue: 200,
	})
	require.NoError(t, err)

	tx, err := svc.SaveTransaction(ctx, "u1", &models.Transaction{
		InvestmentID: created.ID, Type: models.TransactionTypeGain, Amount: 10,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTransaction(ctx, "u1", tx.ID))

	// Snapshot values drift until a recompute is requested
	inv := storage.investments.investments[created.ID]
	assert.Equal(t, 200.0, inv.CurrentValue)

	assert.ErrorIs(t, svc.DeleteTransaction(ctx, "u1", tx.ID), ErrNotFound)
}

func TestRecomputeSnapshotRepairsDrift(t *testing.T) {
	storage := newMemStorage()
	ctx := context.Background()
	svc := testService(storage)

	created, err := svc.SaveInvestment(ctx, "u1", &models.Investment{
		Description: "Fund", Type: models.InvestmentTypeStocks,
		AccountType: models.AccountTypeInvestment, CostBasis: 1000, CurrentValue: 1200, CurrentDebt: 300,
	})
	require.NoError(t, err)

	// A later correction, then delete it: the stored snapshot now disagrees
	// with the ledger.
	created.CurrentValue = 2000
	updated, err := svc.SaveInvestment(ctx, "u1", created)
	require.NoError(t, err)

	values := storage.ledger.byType(updated.ID, models.TransactionTypeValueChange)
	require.Len(t, values, 2)
	require.NoError(t, svc.DeleteTransaction(ctx, "u1", values[1].ID))

	stale := storage.investments.investments[updated.ID]
	assert.Equal(t, 2000.0, stale.CurrentValue, "snapshot drifts after ledger delete")

	repaired, err := svc.RecomputeSnapshot(ctx, "u1", updated.ID)
	require.NoError(t, err)
	assert.Equal(t, 1200.0, repaired.CurrentValue)
	assert.Equal(t, 1000.0, repaired.CostBasis)
	assert.Equal(t, 300.0, repaired.CurrentDebt)

	// Idempotent
	again, err := svc.RecomputeSnapshot(ctx, "u1", updated.ID)
	require.NoError(t, err)
	assert.Equal(t, repaired.CurrentValue, again.CurrentValue)
	assert.Equal(t, repaired.CostBasis, again.CostBasis)
	assert.Equal(t, repaired.CurrentDebt, again.CurrentDebt)
}

func TestListTransactionsReturnsTotal(t *testing.T) {
	storage := newMemStorage()
	ctx := context.Background()
	svc := testService(storage)

	created, err := svc.SaveInvestment(ctx, "u1", &models.Investment{
		Description: "Fund", Type: models.InvestmentTypeStocks,
		AccountType: models.AccountTypeInvestment, CostBasis: 100, CurrentValue: 100,
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.SaveTransaction(ctx, "u1", &models.Transaction{
			InvestmentID:    created.ID,
			Type:            models.TransactionTypeGain,
			TransactionDate: time.Date(2025, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC),
			Amount:          float64(i + 1),
		})
		require.NoError(t, err)
	}

	// 2 seeds + 3 gains
	txs, total, err := svc.ListTransactions(ctx, "u1", created.ID, interfaces.ListOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, txs, 2)
	assert.Equal(t, 5, total)
}

func TestAccountLifecycleAndUnassign(t *testing.T) {
	storage := newMemStorage()
	ctx := context.Background()
	svc := testService(storage)

	account, err := svc.SaveAccount(ctx, "u1", &models.Account{Description: "Brokerage"})
	require.NoError(t, err)
	assert.NotEmpty(t, account.ID)

	// Rename
	account.Description = "Main brokerage"
	renamed, err := svc.SaveAccount(ctx, "u1", account)
	require.NoError(t, err)
	assert.Equal(t, "Main brokerage", renamed.Description)

	_, err = svc.SaveAccount(ctx, "u1", &models.Account{ID: "ghost", Description: "Ghost"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.SaveAccount(ctx, "u1", &models.Account{Description: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// Deleting the account unassigns members but keeps them
	inv, err := svc.SaveInvestment(ctx, "u1", &models.Investment{
		AccountID: account.ID, Description: "Member fund",
		Type: models.InvestmentTypeStocks, AccountType: models.AccountTypeInvestment,
		CostBasis: 100, CurrentValue: 100,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAccount(ctx, "u1", account.ID))
	assert.Empty(t, storage.accounts.accounts)
	assert.Empty(t, storage.investments.investments[inv.ID].AccountID)
}
