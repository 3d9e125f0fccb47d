package commission

import "testing"

func TestComputeAmount(t *testing.T) {
	cases := []struct {
		name           string
		value          float64
		commissionType string
		rate           float64
		want           float64
	}{
		{"percentage gross", 1000, TypePercentageGross, 10, 100},
		{"percentage profit", 2500, TypePercentageProfit, 7.5, 187.5},
		{"zero rate", 1000, TypePercentageGross, 0, 0},
		{"full rate", 1000, TypePercentageGross, 100, 1000},
		{"zero value", 0, TypePercentageGross, 50, 0},
		{"rounds to two decimals", 333.33, TypePercentageGross, 10, 33.33},
		{"rounds half up", 100.05, TypePercentageGross, 10, 10.01},
		{"flat ignores value", 99999, TypeFlat, 250, 250},
		{"unknown type treated as flat", 500, "bonus", 40, 40},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeAmount(tc.value, tc.commissionType, tc.rate)
			if got != tc.want {
				t.Fatalf("ComputeAmount(%v, %q, %v) = %v, want %v",
					tc.value, tc.commissionType, tc.rate, got, tc.want)
			}
		})
	}
}

func TestClampRate(t *testing.T) {
	if got := ClampRate(TypePercentageGross, 150); got != 100 {
		t.Fatalf("clamp over = %v", got)
	}
	if got := ClampRate(TypePercentageGross, -3); got != 0 {
		t.Fatalf("clamp under = %v", got)
	}
	if got := ClampRate(TypeFlat, 5000); got != 5000 {
		t.Fatalf("flat should not be capped: %v", got)
	}
	if got := ClampRate(TypeFlat, -1); got != 0 {
		t.Fatalf("flat floor = %v", got)
	}
}
