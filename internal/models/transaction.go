package models

import (
	"time"
)

// TransactionType distinguishes realized income events from state snapshots.
// Gain/loss entries are directional income amounts; the change entries
// record the absolute value/cost-basis/debt at the transaction's date, not
// a delta.
type TransactionType string

const (
	TransactionTypeGain            TransactionType = "gain"
	TransactionTypeLoss            TransactionType = "loss"
	TransactionTypeValueChange     TransactionType = "change in value"
	TransactionTypeCostBasisChange TransactionType = "change in cost basis"
	TransactionTypeDebtChange      TransactionType = "change in debt"
)

// AllTransactionTypes returns every transaction type.
func AllTransactionTypes() []TransactionType {
	return []TransactionType{
		TransactionTypeGain,
		TransactionTypeLoss,
		TransactionTypeValueChange,
		TransactionTypeCostBasisChange,
		TransactionTypeDebtChange,
	}
}

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	for _, v := range AllTransactionTypes() {
		if t == v {
			return true
		}
	}
	return false
}

// IsIncome reports whether t records a realized income event.
func (t TransactionType) IsIncome() bool {
	return t == TransactionTypeGain || t == TransactionTypeLoss
}

// IsSnapshot reports whether t records a running-state snapshot.
func (t TransactionType) IsSnapshot() bool {
	return t == TransactionTypeValueChange ||
		t == TransactionTypeCostBasisChange ||
		t == TransactionTypeDebtChange
}

// SnapshotTypes returns the three snapshot transaction types.
func SnapshotTypes() []TransactionType {
	return []TransactionType{
		TransactionTypeValueChange,
		TransactionTypeCostBasisChange,
		TransactionTypeDebtChange,
	}
}

// Transaction is an immutable ledger entry for an investment. The ledger is
// append-only: a correction is a new entry, not a mutation of history.
// Amount is a non-negative magnitude; direction is implied by Type.
type Transaction struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	InvestmentID    string          `json:"investment_id"`
	Type            TransactionType `json:"type"`
	TransactionDate time.Time       `json:"transaction_date"` // the date the event/state applies to
	Amount          float64         `json:"amount"`
	Description     string          `json:"description,omitempty"`
	CreatedAt       time.Time       `json:"created_at"` // record creation, breaks same-date ties
}

// SignedAmount returns the income contribution of the transaction: the
// amount for a gain, the negated amount for a loss, 0 for snapshots.
func (t *Transaction) SignedAmount() float64 {
	switch t.Type {
	case TransactionTypeGain:
		return t.Amount
	case TransactionTypeLoss:
		return -t.Amount
	default:
		return 0
	}
}
