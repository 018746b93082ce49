// Package salary derives monthly pay breakdowns and hourly rates from an
// annual cost-to-company figure and an experience tier.
package salary

import (
	"math"
	"strings"
)

// Tier is an experience tier, E1 (entry) through S1 (senior staff).
type Tier string

const (
	TierE1 Tier = "E1"
	TierE2 Tier = "E2"
	TierE3 Tier = "E3"
	TierE4 Tier = "E4"
	TierM1 Tier = "M1"
	TierM2 Tier = "M2"
	TierM3 Tier = "M3"
	TierL1 Tier = "L1"
	TierS1 Tier = "S1"
)

const (
	// DefaultVariableCTC is the annual variable component assumed when the caller has none.
	DefaultVariableCTC = 50000

	Conveyance      = 1600
	ProfessionalTax = 200
	PFRate          = 0.12
	WorkingHours    = 176
	hraThreshold    = 13000
	hraRateHigh     = 0.4
	hraRateLow      = 0.2
	monthsPerYear   = 12
)

var tierOrder = []Tier{TierE1, TierE2, TierE3, TierE4, TierM1, TierM2, TierM3, TierL1, TierS1}

// monthly basic by tier
var basicByTier = map[Tier]float64{
	TierE1: 10000,
	TierE2: 12000,
	TierE3: 13000,
	TierE4: 15000,
	TierM1: 18000,
	TierM2: 22000,
	TierM3: 26000,
	TierL1: 32000,
	TierS1: 40000,
}

// Breakdown is a monthly pay breakdown. All amounts except HourlyRate are
// whole currency units.
type Breakdown struct {
	Tier             Tier    `json:"tier"`
	AnnualCTC        float64 `json:"annual_ctc"`
	VariableCTC      float64 `json:"variable_ctc"`
	Basic            float64 `json:"basic"`
	HRA              float64 `json:"hra"`
	Conveyance       float64 `json:"conveyance"`
	BalanceAllowance float64 `json:"balance_allowance"`
	Gross            float64 `json:"gross"`
	PF               float64 `json:"pf"`
	ProfessionalTax  float64 `json:"professional_tax"`
	TotalDeductions  float64 `json:"total_deductions"`
	NetSalary        float64 `json:"net_salary"`
	AnnualNet        float64 `json:"annual_net"`
	HourlyRate       float64 `json:"hourly_rate"`
}

// NegativeBalance reports whether the CTC was too low to cover the fixed
// components. Callers treat this as a data-quality signal.
func (b Breakdown) NegativeBalance() bool {
	return b.BalanceAllowance < 0
}

// Tiers returns all known tiers from lowest to highest.
func Tiers() []Tier {
	out := make([]Tier, len(tierOrder))
	copy(out, tierOrder)
	return out
}

// ParseTier normalises a tier label. The second return value is false when
// the label is not a known tier; the returned tier is then the lowest tier.
func ParseTier(s string) (Tier, bool) {
	t := Tier(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := basicByTier[t]; ok {
		return t, true
	}
	return TierE1, false
}

// BasicFor returns the monthly basic for a tier. Unknown tiers get the
// lowest tier's basic.
func BasicFor(tier Tier) float64 {
	if basic, ok := basicByTier[tier]; ok {
		return basic
	}
	return basicByTier[TierE1]
}

// Derive computes the pay breakdown for an annual CTC, tier and annual
// variable component.
func Derive(annualCTC float64, tier Tier, variableCTC float64) Breakdown {
	resolved, _ := ParseTier(string(tier))
	basic := BasicFor(resolved)
	fixedMonthly := (annualCTC - variableCTC) / monthsPerYear

	hra := hraRateLow * basic
	if basic >= hraThreshold {
		hra = hraRateHigh * basic
	}

	balance := fixedMonthly - (basic + hra + Conveyance)

	b := Breakdown{
		Tier:             resolved,
		AnnualCTC:        annualCTC,
		VariableCTC:      variableCTC,
		Basic:            math.Round(basic),
		HRA:              math.Round(hra),
		Conveyance:       Conveyance,
		BalanceAllowance: math.Round(balance),
		ProfessionalTax:  ProfessionalTax,
		PF:               math.Round(PFRate * basic),
	}
	b.Gross = b.Basic + b.HRA + b.Conveyance + b.BalanceAllowance
	b.TotalDeductions = b.PF + b.ProfessionalTax
	b.NetSalary = b.Gross - b.TotalDeductions
	b.AnnualNet = b.NetSalary * monthsPerYear
	b.HourlyRate = roundTo(b.Gross/WorkingHours, 2)
	return b
}

// DeriveDefault is Derive with DefaultVariableCTC.
func DeriveDefault(annualCTC float64, tier Tier) Breakdown {
	return Derive(annualCTC, tier, DefaultVariableCTC)
}

// HourlyRate returns only the hourly rate, using DefaultVariableCTC.
func HourlyRate(annualCTC float64, tier Tier) float64 {
	return DeriveDefault(annualCTC, tier).HourlyRate
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
