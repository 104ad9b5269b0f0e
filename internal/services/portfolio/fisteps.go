package portfolio

import (
	"fmt"
	"math"

	"github.com/Rhymond/go-money"
	"github.com/fitrackhq/fitrack/internal/models"
)

// fiInputs is everything the checklist needs, already derived.
type fiInputs struct {
	totalMonthlyIncome          float64
	totalMonthlyExpenses        float64
	incomeExpenseDifference     float64
	monthsOfReserves            int
	maxIncome                   float64
	averageMonthlyPassiveIncome float64
	retirementMonthlyWithdrawal float64
	totalRetirementIncome       float64
}

// buildFiTrackerSteps evaluates the five financial-independence milestones.
// Each step is judged against current state on its own; completing step 4
// does not require step 3. Step 2 is the exception: reserves only count
// once income covers expenses.
func buildFiTrackerSteps(in fiInputs) []models.FiTrackerStep {
	steps := make([]models.FiTrackerStep, 0, 5)

	incomeCoversExpenses := in.incomeExpenseDifference >= 0
	steps = append(steps, models.FiTrackerStep{
		Step:        1,
		Description: "Income covers current expenses",
		Completed:   incomeCoversExpenses,
		Comments:    surplusComment(incomeCoversExpenses, in.incomeExpenseDifference),
	})

	sixMonthsOfReserves := incomeCoversExpenses && in.monthsOfReserves >= 6
	reserveComment := "Keep working towards building six months of expenses in your cash reserves."
	if sixMonthsOfReserves {
		reserveComment = fmt.Sprintf("You have %d months of reserves and all expenses are covered by your income. Great job!", in.monthsOfReserves)
	}
	steps = append(steps, models.FiTrackerStep{
		Step:        2,
		Description: "Six months of expenses in cash reserves",
		Completed:   sixMonthsOfReserves,
		Comments:    reserveComment,
	})

	// Losing the largest income source leaves the secondary streams plus
	// passive income to cover expenses.
	secondaryMonthlyIncome := in.totalMonthlyIncome - in.maxIncome
	shortfallWithoutPrimary := in.totalMonthlyExpenses - secondaryMonthlyIncome - in.averageMonthlyPassiveIncome
	steps = append(steps, models.FiTrackerStep{
		Step:        3,
		Description: "Passive income covers loss of highest income stream",
		Completed:   shortfallWithoutPrimary <= 0,
		Comments:    surplusComment(shortfallWithoutPrimary <= 0, -shortfallWithoutPrimary),
	})

	retirementSurplus := (in.retirementMonthlyWithdrawal + in.totalRetirementIncome + in.averageMonthlyPassiveIncome) - in.totalMonthlyExpenses
	steps = append(steps, models.FiTrackerStep{
		Step:        4,
		Description: "Retirement and passive income covers expenses",
		Completed:   retirementSurplus >= 0,
		Comments:    surplusComment(retirementSurplus >= 0, retirementSurplus),
	})

	passiveSurplus := in.averageMonthlyPassiveIncome - in.totalMonthlyExpenses
	steps = append(steps, models.FiTrackerStep{
		Step:        5,
		Description: "Investment income covers all salary",
		Completed:   passiveSurplus >= 0,
		Comments:    surplusComment(passiveSurplus >= 0, passiveSurplus),
	})

	return steps
}

// surplusComment renders the step comment from a signed surplus amount.
func surplusComment(completed bool, surplus float64) string {
	if completed {
		return fmt.Sprintf("You have a surplus of %s", formatCurrency(math.Abs(surplus)))
	}
	return fmt.Sprintf("You are short of covering your expenses by %s", formatCurrency(math.Abs(surplus)))
}

func formatCurrency(v float64) string {
	return money.New(int64(math.Round(v*100)), money.USD).Display()
}
