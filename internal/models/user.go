package models

import (
	"time"
)

// Roles assignable to user accounts.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ProfileItem is a single named monthly amount in the user profile
// (an expense, an income source, or a retirement income source).
type ProfileItem struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// UserProfile holds the monthly budget figures used by the portfolio
// summary. Saved as a flat overwrite; the lists carry no history.
type UserProfile struct {
	Expenses       []ProfileItem `json:"expenses"`
	Income         []ProfileItem `json:"income"`
	Retirement     []ProfileItem `json:"retirement"`
	WithdrawalRate float64       `json:"withdrawal_rate"` // percent, for retirement-withdrawal projection
}

// TotalExpenses returns the sum of all monthly expense amounts.
func (p *UserProfile) TotalExpenses() float64 {
	return sumItems(p.Expenses)
}

// TotalIncome returns the sum of all monthly income amounts.
func (p *UserProfile) TotalIncome() float64 {
	return sumItems(p.Income)
}

// TotalRetirementIncome returns the sum of all retirement income amounts.
func (p *UserProfile) TotalRetirementIncome() float64 {
	return sumItems(p.Retirement)
}

// MaxIncome returns the largest single income source amount, or 0.
func (p *UserProfile) MaxIncome() float64 {
	max := 0.0
	for _, item := range p.Income {
		if item.Amount > max {
			max = item.Amount
		}
	}
	return max
}

func sumItems(items []ProfileItem) float64 {
	total := 0.0
	for _, item := range items {
		total += item.Amount
	}
	return total
}

// User is a registered account with its embedded profile.
type User struct {
	UserID       string      `json:"user_id"`
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	PasswordHash string      `json:"password_hash,omitempty"`
	Role         string      `json:"role"`
	Profile      UserProfile `json:"profile"`
	CreatedAt    time.Time   `json:"created_at"`
	ModifiedAt   time.Time   `json:"modified_at"`
}
