package commission

import "math"

// ComputeAmount derives the commission owed on a deal. Percentage types pay
// value * rate / 100, rounded half-up to 2 decimals; flat pays the rate as-is.
func ComputeAmount(value float64, commissionType string, baseRate float64) float64 {
	switch commissionType {
	case TypePercentageGross, TypePercentageProfit:
		return math.Round(value*baseRate) / 100
	default:
		return baseRate
	}
}

// ClampRate keeps percentage rates inside [0,100]; flat amounts only get a
// non-negative floor.
func ClampRate(commissionType string, rate float64) float64 {
	if rate < 0 {
		return 0
	}
	if (commissionType == TypePercentageGross || commissionType == TypePercentageProfit) && rate > 100 {
		return 100
	}
	return rate
}
