// Package investment owns the write path: investment, account and
// transaction mutations and the ledger entries they imply. The stored
// investment record is only ever the current state; every change to
// value, cost basis or debt also lands in the ledger as a snapshot.
package investment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fitrackhq/fitrack/internal/common"
	"github.com/fitrackhq/fitrack/internal/interfaces"
	"github.com/fitrackhq/fitrack/internal/models"
	"github.com/google/uuid"
)

// ErrNotFound marks a write against a record that does not exist or is
// owned by another user.
var ErrNotFound = errors.New("not found")

// ErrInvalidInput marks a rejected payload. The wrapped message says what
// was wrong.
var ErrInvalidInput = errors.New("invalid input")

type snapshotSeed struct {
	txType      models.TransactionType
	amount      float64
	description string
}

// Service implements interfaces.InvestmentService.
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger

	now func() time.Time
}

// NewService creates an investment service.
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Service) GetInvestment(ctx context.Context, userID, id string) (*models.Investment, error) {
	return s.storage.InvestmentStore().Get(ctx, userID, id)
}

func (s *Service) ListInvestments(ctx context.Context, userID, accountID string) ([]*models.Investment, error) {
	if accountID != "" {
		return s.storage.InvestmentStore().ListByAccount(ctx, userID, accountID)
	}
	return s.storage.InvestmentStore().List(ctx, userID)
}

func (s *Service) SaveInvestment(ctx context.Context, userID string, inv *models.Investment) (*models.Investment, error) {
	if err := validateInvestment(inv); err != nil {
		return nil, err
	}

	if inv.ID == "" {
		return s.createInvestment(ctx, userID, inv)
	}
	return s.updateInvestment(ctx, userID, inv)
}

func (s *Service) createInvestment(ctx context.Context, userID string, inv *models.Investment) (*models.Investment, error) {
	now := s.now().UTC()
	inv.ID = uuid.NewString()
	inv.UserID = userID
	inv.CreatedAt = now
	inv.UpdatedAt = now

	if err := s.storage.InvestmentStore().Save(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to create investment: %w", err)
	}

	// Seed the ledger so reconstruction has a starting point
	seeds := []snapshotSeed{
		{models.TransactionTypeValueChange, inv.CurrentValue, "Initial investment value"},
		{models.TransactionTypeCostBasisChange, inv.CostBasis, "Initial cost basis"},
	}
	if inv.CurrentDebt > 0 {
		seeds = append(seeds, snapshotSeed{models.TransactionTypeDebtChange, inv.CurrentDebt, "Initial debt"})
	}

	for _, seed := range seeds {
		if err := s.appendSnapshot(ctx, userID, inv.ID, seed.txType, seed.amount, seed.description, now); err != nil {
			return nil, err
		}
	}

	s.logger.Info().
		Str("investment_id", inv.ID).
		Str("user_id", userID).
		Msg("Investment created")

	return inv, nil
}

func (s *Service) updateInvestment(ctx context.Context, userID string, inv *models.Investment) (*models.Investment, error) {
	existing, err := s.storage.InvestmentStore().Get(ctx, userID, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load investment: %w", err)
	}
	if existing == nil {
		return nil, ErrNotFound
	}

	now := s.now().UTC()

	// Snapshot every field that actually changed
	changes := []struct {
		changed     bool
		txType      models.TransactionType
		amount      float64
		description string
	}{
		{existing.CurrentValue != inv.CurrentValue, models.TransactionTypeValueChange, inv.CurrentValue, "Change in investment value"},
		{existing.CostBasis != inv.CostBasis, models.TransactionTypeCostBasisChange, inv.CostBasis, "Change in cost basis"},
		{existing.CurrentDebt != inv.CurrentDebt, models.TransactionTypeDebtChange, inv.CurrentDebt, "Change in debt"},
	}
	for _, change := range changes {
		if !change.changed {
			continue
		}
		if err := s.appendSnapshot(ctx, userID, inv.ID, change.txType, change.amount, change.description, now); err != nil {
			return nil, err
		}
	}

	inv.UserID = userID
	inv.CreatedAt = existing.CreatedAt
	inv.UpdatedAt = now
	if err := s.storage.InvestmentStore().Save(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to update investment: %w", err)
	}

	return inv, nil
}

func (s *Service) appendSnapshot(ctx context.Context, userID, investmentID string, txType models.TransactionType, amount float64, description string, at time.Time) error {
	tx := &models.Transaction{
		ID:              uuid.NewString(),
		UserID:          userID,
		InvestmentID:    investmentID,
		Type:            txType,
		TransactionDate: at,
		Amount:          amount,
		Description:     description,
		CreatedAt:       at,
	}
	if err := s.storage.LedgerStore().Save(ctx, tx); err != nil {
		return fmt.Errorf("failed to record %s: %w", txType, err)
	}
	return nil
}

func (s *Service) DeleteInvestment(ctx context.Context, userID, id string) error {
	existing, err := s.storage.InvestmentStore().Get(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to load investment: %w", err)
	}
	if existing == nil {
		return ErrNotFound
	}

	// Ledger entries go with the investment
	count, err := s.storage.LedgerStore().DeleteByInvestment(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete transactions: %w", err)
	}
	if err := s.storage.InvestmentStore().Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to delete investment: %w", err)
	}

	s.logger.Info().
		Str("investment_id", id).
		Int("transactions_removed", count).
		Msg("Investment deleted")

	return nil
}

// RecomputeSnapshot rederives the current value, cost basis and debt from
// the latest ledger snapshot of each type, considering entries dated
// through today. Repairs drift after ledger edits or deletes; running it
// twice is a no-op.
func (s *Service) RecomputeSnapshot(ctx context.Context, userID, id string) (*models.Investment, error) {
	existing, err := s.storage.InvestmentStore().Get(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load investment: %w", err)
	}
	if existing == nil {
		return nil, ErrNotFound
	}

	ledger := s.storage.LedgerStore()
	cutoff := s.now().UTC().AddDate(0, 0, 1)

	fields := []struct {
		txType models.TransactionType
		dest   *float64
	}{
		{models.TransactionTypeValueChange, &existing.CurrentValue},
		{models.TransactionTypeCostBasisChange, &existing.CostBasis},
		{models.TransactionTypeDebtChange, &existing.CurrentDebt},
	}
	for _, field := range fields {
		tx, err := ledger.LatestSnapshotBefore(ctx, id, field.txType, cutoff)
		if err != nil {
			return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
		}
		if tx != nil {
			*field.dest = tx.Amount
		} else {
			*field.dest = 0
		}
	}

	existing.UpdatedAt = s.now().UTC()
	if err := s.storage.InvestmentStore().Save(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to save recomputed snapshot: %w", err)
	}

	s.logger.Info().
		Str("investment_id", id).
		Float64("current_value", existing.CurrentValue).
		Float64("cost_basis", existing.CostBasis).
		Float64("current_debt", existing.CurrentDebt).
		Msg("Investment snapshot recomputed")

	return existing, nil
}

func (s *Service) ListTransactions(ctx context.Context, userID, investmentID string, opts interfaces.ListOptions) ([]*models.Transaction, int, error) {
	ledger := s.storage.LedgerStore()

	txs, err := ledger.List(ctx, userID, investmentID, opts)
	if err != nil {
		return nil, 0, err
	}
	total, err := ledger.Count(ctx, userID, investmentID)
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

func (s *Service) SaveTransaction(ctx context.Context, userID string, tx *models.Transaction) (*models.Transaction, error) {
	if err := validateTransaction(tx); err != nil {
		return nil, err
	}

	// The transaction must target an investment the user owns
	inv, err := s.storage.InvestmentStore().Get(ctx, userID, tx.InvestmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load investment: %w", err)
	}
	if inv == nil {
		return nil, ErrNotFound
	}

	now := s.now().UTC()

	if tx.ID != "" {
		existing, err := s.storage.LedgerStore().Get(ctx, userID, tx.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load transaction: %w", err)
		}
		if existing == nil {
			return nil, ErrNotFound
		}
		if existing.InvestmentID != tx.InvestmentID {
			return nil, fmt.Errorf("%w: transaction cannot move between investments", ErrInvalidInput)
		}
		tx.CreatedAt = existing.CreatedAt
	} else {
		tx.ID = uuid.NewString()
		tx.CreatedAt = now
	}

	tx.UserID = userID
	if tx.TransactionDate.IsZero() {
		tx.TransactionDate = now
	}

	if err := s.storage.LedgerStore().Save(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	// Ledger edits mark the investment as modified without recomputing its
	// snapshot fields; callers repair drift via RecomputeSnapshot.
	if err := s.storage.InvestmentStore().Touch(ctx, userID, tx.InvestmentID, now); err != nil {
		return nil, fmt.Errorf("failed to touch investment: %w", err)
	}

	return tx, nil
}

func (s *Service) DeleteTransaction(ctx context.Context, userID, id string) error {
	existing, err := s.storage.LedgerStore().Get(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to load transaction: %w", err)
	}
	if existing == nil {
		return ErrNotFound
	}

	if err := s.storage.LedgerStore().Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if err := s.storage.InvestmentStore().Touch(ctx, userID, existing.InvestmentID, s.now().UTC()); err != nil {
		return fmt.Errorf("failed to touch investment: %w", err)
	}
	return nil
}

func (s *Service) ListAccounts(ctx context.Context, userID string) ([]*models.Account, error) {
	return s.storage.AccountStore().List(ctx, userID)
}

func (s *Service) SaveAccount(ctx context.Context, userID string, account *models.Account) (*models.Account, error) {
	if strings.TrimSpace(account.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}

	now := s.now().UTC()
	if account.ID == "" {
		account.ID = uuid.NewString()
		account.CreatedAt = now
	} else {
		existing, err := s.storage.AccountStore().Get(ctx, userID, account.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load account: %w", err)
		}
		if existing == nil {
			return nil, ErrNotFound
		}
		account.CreatedAt = existing.CreatedAt
	}

	account.UserID = userID
	account.UpdatedAt = now
	if err := s.storage.AccountStore().Save(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}
	return account, nil
}

func (s *Service) DeleteAccount(ctx context.Context, userID, id string) error {
	existing, err := s.storage.AccountStore().Get(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}
	if existing == nil {
		return ErrNotFound
	}

	// Members survive the account; they just become unassigned
	count, err := s.storage.InvestmentStore().UnassignAccount(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to unassign investments: %w", err)
	}
	if err := s.storage.AccountStore().Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	s.logger.Info().
		Str("account_id", id).
		Int("investments_unassigned", count).
		Msg("Account deleted")

	return nil
}

func validateInvestment(inv *models.Investment) error {
	if strings.TrimSpace(inv.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if !inv.Type.IsValid() {
		return fmt.Errorf("%w: unknown investment type %q", ErrInvalidInput, inv.Type)
	}
	if !inv.AccountType.IsValid() {
		return fmt.Errorf("%w: unknown account type %q", ErrInvalidInput, inv.AccountType)
	}
	if inv.CurrentValue < 0 || inv.CostBasis < 0 || inv.CurrentDebt < 0 {
		return fmt.Errorf("%w: amounts must not be negative", ErrInvalidInput)
	}
	return nil
}

func validateTransaction(tx *models.Transaction) error {
	if tx.InvestmentID == "" {
		return fmt.Errorf("%w: investment ID is required", ErrInvalidInput)
	}
	if !tx.Type.IsValid() {
		return fmt.Errorf("%w: unknown transaction type %q", ErrInvalidInput, tx.Type)
	}
	if tx.Amount < 0 {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}
	return nil
}

// Compile-time check
var _ interfaces.InvestmentService = (*Service)(nil)
