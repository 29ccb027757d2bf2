// Package estimator turns monthly energy consumption into an estimated monthly saving.
package estimator

import (
	"fmt"
	"math"
)

const (
	DefaultRatePerKWh      = 0.25
	DefaultSavingsFraction = 0.70
)

// Estimator applies one formula everywhere: consumption × rate × savingsFraction.
type Estimator struct {
	ratePerKWh      float64
	savingsFraction float64
}

func New(ratePerKWh, savingsFraction float64) (*Estimator, error) {
	if ratePerKWh <= 0 {
		return nil, fmt.Errorf("rate per kWh must be > 0, got %v", ratePerKWh)
	}
	if savingsFraction <= 0 || savingsFraction > 1 {
		return nil, fmt.Errorf("savings fraction must be in (0, 1], got %v", savingsFraction)
	}
	return &Estimator{ratePerKWh: ratePerKWh, savingsFraction: savingsFraction}, nil
}

// Estimate returns the monthly saving in currency units, rounded to cents.
// Negative or NaN consumption yields zero.
func (e *Estimator) Estimate(consumptionKWh float64) float64 {
	if e == nil || math.IsNaN(consumptionKWh) || consumptionKWh <= 0 {
		return 0
	}
	return round2(consumptionKWh * e.ratePerKWh * e.savingsFraction)
}

// MonthlyBill returns the bill the consumption represents at the configured rate.
func (e *Estimator) MonthlyBill(consumptionKWh float64) float64 {
	if e == nil || math.IsNaN(consumptionKWh) || consumptionKWh <= 0 {
		return 0
	}
	return round2(consumptionKWh * e.ratePerKWh)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
