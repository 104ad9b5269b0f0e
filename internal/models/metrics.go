package models

// InvestmentMetrics is the derived metrics bundle for a single investment.
// All percentages are expressed as whole percents (20 means 20%).
type InvestmentMetrics struct {
	LifetimeROI      float64 `json:"lifetime_roi"`
	ROI12M           float64 `json:"roi_12m"`
	LifetimeIncome   float64 `json:"lifetime_income"`
	Income12M        float64 `json:"income_12m"`
	AvgMonthlyIncome float64 `json:"avg_monthly_income"`
}

// AccountMetrics is the metrics bundle aggregated over an account's
// investment set.
type AccountMetrics struct {
	InvestmentMetrics
	LifetimeAppreciation float64 `json:"lifetime_appreciation"`
}

// PerformancePoint is one month in the 12-point performance series.
// Value, CostBasis and Debt carry forward the last known snapshot; Income
// is that month's signed gain/loss sum.
type PerformancePoint struct {
	Date      string  `json:"date"` // e.g. "Sep 25"
	Value     float64 `json:"value"`
	CostBasis float64 `json:"cost_basis"`
	Debt      float64 `json:"debt"`
	Income    float64 `json:"income"`
}

// MonthlyIncomePoint is one month in the portfolio-wide income series.
type MonthlyIncomePoint struct {
	Month  string  `json:"month"` // "YYYY-MM"
	Income float64 `json:"income"`
}
