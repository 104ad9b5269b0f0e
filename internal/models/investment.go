// Package models defines data structures for FiTrack
package models

import (
	"time"
)

// InvestmentType is the asset class of an investment.
type InvestmentType string

const (
	InvestmentTypeStocks         InvestmentType = "stocks"
	InvestmentTypeBonds          InvestmentType = "bonds"
	InvestmentTypeMutualFund     InvestmentType = "mutual fund"
	InvestmentTypeRealEstate     InvestmentType = "real estate"
	InvestmentTypeSavingsAccount InvestmentType = "savings account"
	InvestmentTypeCD             InvestmentType = "CD"
	InvestmentTypeOther          InvestmentType = "other"
)

// AllInvestmentTypes returns every investment type in display order.
func AllInvestmentTypes() []InvestmentType {
	return []InvestmentType{
		InvestmentTypeStocks,
		InvestmentTypeBonds,
		InvestmentTypeMutualFund,
		InvestmentTypeRealEstate,
		InvestmentTypeSavingsAccount,
		InvestmentTypeCD,
		InvestmentTypeOther,
	}
}

// IsValid reports whether t is a known investment type.
func (t InvestmentType) IsValid() bool {
	for _, v := range AllInvestmentTypes() {
		if t == v {
			return true
		}
	}
	return false
}

// AccountType classifies how an investment is held.
type AccountType string

const (
	AccountTypeInvestment  AccountType = "investment"
	AccountTypeRetirement  AccountType = "retirement"
	AccountTypeCashReserve AccountType = "cash reserve"
)

// AllAccountTypes returns every account type in display order.
func AllAccountTypes() []AccountType {
	return []AccountType{
		AccountTypeInvestment,
		AccountTypeRetirement,
		AccountTypeCashReserve,
	}
}

// IsValid reports whether t is a known account type.
func (t AccountType) IsValid() bool {
	for _, v := range AllAccountTypes() {
		if t == v {
			return true
		}
	}
	return false
}

// Investment is the current-state snapshot of a single investment.
// CurrentValue, CostBasis and CurrentDebt are always the latest values;
// state as of any earlier date must be reconstructed from the ledger's
// snapshot transactions, never read off this record.
type Investment struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	AccountID    string         `json:"account_id,omitempty"` // optional grouping
	Description  string         `json:"description"`
	Type         InvestmentType `json:"type"`
	AccountType  AccountType    `json:"account_type"`
	CostBasis    float64        `json:"cost_basis"`
	CurrentDebt  float64        `json:"current_debt"`
	CurrentValue float64        `json:"current_value"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Account is a pure grouping of investments. It carries no financial data;
// its value is derived by summing member investments.
type Account struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
