package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/fitrackhq/fitrack/internal/common"
	"github.com/fitrackhq/fitrack/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// InvestmentStore persists current-state investment snapshots. Lookups
// return (nil, nil) when the investment does not exist or belongs to
// another user.
type InvestmentStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewInvestmentStore(db *surrealdb.DB, logger *common.Logger) *InvestmentStore {
	return &InvestmentStore{
		db:     db,
		logger: logger,
	}
}

func (s *InvestmentStore) Get(ctx context.Context, userID, id string) (*models.Investment, error) {
	inv, err := surrealdb.Select[models.Investment](ctx, s.db, surrealmodels.NewRecordID("investment", id))
	if err != nil {
		return nil, fmt.Errorf("failed to select investment: %w", err)
	}
	if inv == nil || inv.UserID != userID {
		return nil, nil
	}
	return inv, nil
}

func (s *InvestmentStore) List(ctx context.Context, userID string) ([]*models.Investment, error) {
	sql := "SELECT * FROM investment WHERE user_id = $user_id ORDER BY description ASC"
	vars := map[string]any{"user_id": userID}
	return s.query(ctx, sql, vars)
}

func (s *InvestmentStore) ListByAccount(ctx context.Context, userID, accountID string) ([]*models.Investment, error) {
	sql := "SELECT * FROM investment WHERE user_id = $user_id AND account_id = $account_id ORDER BY description ASC"
	vars := map[string]any{"user_id": userID, "account_id": accountID}
	return s.query(ctx, sql, vars)
}

func (s *InvestmentStore) query(ctx context.Context, sql string, vars map[string]any) ([]*models.Investment, error) {
	rows, err := queryRows[models.Investment](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}

	investments := make([]*models.Investment, 0, len(rows))
	for i := range rows {
		investments = append(investments, &rows[i])
	}
	return investments, nil
}

func (s *InvestmentStore) Save(ctx context.Context, investment *models.Investment) error {
	sql := "UPSERT type::record('investment', $id) CONTENT $investment"
	vars := map[string]any{"id": investment.ID, "investment": investment}

	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.Investment](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		if attempt == 3 {
			return fmt.Errorf("failed to save investment after retries: %w", err)
		}
	}
	return nil
}

func (s *InvestmentStore) Delete(ctx context.Context, userID, id string) error {
	existing, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	_, err = surrealdb.Delete[models.Investment](ctx, s.db, surrealmodels.NewRecordID("investment", id))
	if err != nil {
		return fmt.Errorf("failed to delete investment: %w", err)
	}
	return nil
}

func (s *InvestmentStore) UnassignAccount(ctx context.Context, userID, accountID string) (int, error) {
	sql := "UPDATE investment SET account_id = NONE, updated_at = $now WHERE user_id = $user_id AND account_id = $account_id"
	vars := map[string]any{
		"user_id":    userID,
		"account_id": accountID,
		"now":        time.Now().UTC(),
	}

	rows, err := queryRows[models.Investment](ctx, s.db, sql, vars)
	if err != nil {
		return 0, fmt.Errorf("failed to unassign account: %w", err)
	}
	return len(rows), nil
}

func (s *InvestmentStore) Touch(ctx context.Context, userID, id string, at time.Time) error {
	sql := "UPDATE type::record('investment', $id) SET updated_at = $at WHERE user_id = $user_id"
	vars := map[string]any{"id": id, "at": at, "user_id": userID}

	if _, err := surrealdb.Query[[]models.Investment](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to touch investment: %w", err)
	}
	return nil
}
