package surrealdb

import (
	"context"
	"fmt"

	"github.com/fitrackhq/fitrack/internal/common"
	"github.com/fitrackhq/fitrack/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// AccountStore persists investment grouping accounts. Lookups return
// (nil, nil) when the account does not exist or belongs to another user.
type AccountStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewAccountStore(db *surrealdb.DB, logger *common.Logger) *AccountStore {
	return &AccountStore{
		db:     db,
		logger: logger,
	}
}

func (s *AccountStore) Get(ctx context.Context, userID, id string) (*models.Account, error) {
	account, err := surrealdb.Select[models.Account](ctx, s.db, surrealmodels.NewRecordID("account", id))
	if err != nil {
		return nil, fmt.Errorf("failed to select account: %w", err)
	}
	if account == nil || account.UserID != userID {
		return nil, nil
	}
	return account, nil
}

func (s *AccountStore) List(ctx context.Context, userID string) ([]*models.Account, error) {
	sql := "SELECT * FROM account WHERE user_id = $user_id ORDER BY description ASC"
	vars := map[string]any{"user_id": userID}

	rows, err := queryRows[models.Account](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	accounts := make([]*models.Account, 0, len(rows))
	for i := range rows {
		accounts = append(accounts, &rows[i])
	}
	return accounts, nil
}

func (s *AccountStore) Save(ctx context.Context, account *models.Account) error {
	sql := "UPSERT type::record('account', $id) CONTENT $account"
	vars := map[string]any{"id": account.ID, "account": account}

	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.Account](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		if attempt == 3 {
			return fmt.Errorf("failed to save account after retries: %w", err)
		}
	}
	return nil
}

func (s *AccountStore) Delete(ctx context.Context, userID, id string) error {
	existing, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	_, err = surrealdb.Delete[models.Account](ctx, s.db, surrealmodels.NewRecordID("account", id))
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}
