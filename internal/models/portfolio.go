package models

// ValueByAccountType maps every account type to its summed current value.
// Constructed with all enum members present so grouping totals are
// complete even when a type holds no investments.
type ValueByAccountType map[AccountType]float64

// NewValueByAccountType returns a map with every account type set to 0.
func NewValueByAccountType() ValueByAccountType {
	m := make(ValueByAccountType, len(AllAccountTypes()))
	for _, t := range AllAccountTypes() {
		m[t] = 0
	}
	return m
}

// ValueByInvestmentType maps every investment type to its summed current value.
type ValueByInvestmentType map[InvestmentType]float64

// NewValueByInvestmentType returns a map with every investment type set to 0.
func NewValueByInvestmentType() ValueByInvestmentType {
	m := make(ValueByInvestmentType, len(AllInvestmentTypes()))
	for _, t := range AllInvestmentTypes() {
		m[t] = 0
	}
	return m
}

// FiTrackerStep is one of the five financial-independence milestones.
// Steps are evaluated independently against current state; a later step
// can be completed while an earlier one is not. The presentation layer
// treats the first incomplete step as "current".
type FiTrackerStep struct {
	Step        int    `json:"step"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	Comments    string `json:"comments"`
}

// PortfolioSummary aggregates a user's full investment set and profile.
type PortfolioSummary struct {
	TotalValue                  float64               `json:"total_value"`
	TotalEquity                 float64               `json:"total_equity"` // total value less total debt
	TotalCashReserve            float64               `json:"total_cash_reserve"`
	MonthsOfReserves            int                   `json:"months_of_reserves"`
	ValueByAccountType          ValueByAccountType    `json:"value_by_account_type"`
	ValueByInvestmentType       ValueByInvestmentType `json:"value_by_investment_type"`
	MonthlyIncome               []MonthlyIncomePoint  `json:"monthly_income"`
	AverageMonthlyPassiveIncome float64               `json:"average_monthly_passive_income"`
	FiTrackerSteps              []FiTrackerStep       `json:"fi_tracker_steps"`
	TotalMonthlyIncome          float64               `json:"total_monthly_income"`
	TotalMonthlyExpenses        float64               `json:"total_monthly_expenses"`
	IncomeExpenseDifference     float64               `json:"income_expense_difference"`
	RetirementMonthlyWithdrawal float64               `json:"retirement_monthly_withdrawal"`
	TotalRetirementIncome       float64               `json:"total_retirement_income"`
}
