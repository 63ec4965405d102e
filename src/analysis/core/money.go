package core

import "math"

// Tolerance for comparing amounts in Bs. (half a cent).
const Tolerance = 0.005

// -----------------------------------------------------------------------------

// Round2 rounds an amount to cents.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// -----------------------------------------------------------------------------

// SameAmount reports whether two amounts agree to the cent.
func SameAmount(a, b float64) bool {
	return math.Abs(a-b) < Tolerance
}

// -----------------------------------------------------------------------------

// CalculateUsage returns spent as a fraction of budget.
func CalculateUsage(spent, budget float64) float64 {
	if budget <= 0 {
		return 0.0
	}
	return spent / budget
}
