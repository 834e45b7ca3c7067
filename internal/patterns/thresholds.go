package patterns

// Thresholds holds the numeric sanity bounds used by the validator.
// Rates are fractions (0.035 = 3.5%); spreads are basis points.
type Thresholds struct {
	// RateMin/RateMax bound the plausible range for an implied
	// intercompany interest rate. Rates outside the range are
	// data-quality suspects, not findings.
	RateMin float64 `yaml:"rate_min"`
	RateMax float64 `yaml:"rate_max"`

	// MarketRateMin/MarketRateMax is the arm's-length sub-range.
	MarketRateMin float64 `yaml:"market_rate_min"`
	MarketRateMax float64 `yaml:"market_rate_max"`

	// ArmsLengthRate is the reference rate used to estimate the
	// adjustment on below-market structures.
	ArmsLengthRate float64 `yaml:"arms_length_rate"`

	// Spread materiality bands.
	SpreadNearZeroBps float64 `yaml:"spread_near_zero_bps"`
	SpreadLowBps      float64 `yaml:"spread_low_bps"`

	// Thin-capitalisation debt/equity ratios. The critical ratio is the
	// 85:15 informal practice applied by the Luxembourg tax
	// administration to intra-group financing.
	ThinCapWarnRatio     float64 `yaml:"thin_cap_warn_ratio"`
	ThinCapCriticalRatio float64 `yaml:"thin_cap_critical_ratio"`

	// ICVolumeDocThreshold is the intercompany volume above which
	// transfer-pricing documentation is expected.
	ICVolumeDocThreshold float64 `yaml:"ic_volume_doc_threshold"`

	// MaxLoansToAssetsMultiple marks the deterministic impossibility
	// bound: IC loans exceeding this multiple of total assets are an
	// extraction error, not a finding.
	MaxLoansToAssetsMultiple float64 `yaml:"max_loans_to_assets_multiple"`

	// ReconcileTolerance is the rounding tolerance when comparing a
	// note's explicit total against the sum of its items.
	ReconcileTolerance float64 `yaml:"reconcile_tolerance"`
}

// DefaultThresholds returns the built-in bounds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RateMin:                  0.001,
		RateMax:                  0.20,
		MarketRateMin:            0.02,
		MarketRateMax:            0.08,
		ArmsLengthRate:           0.035,
		SpreadNearZeroBps:        25,
		SpreadLowBps:             75,
		ThinCapWarnRatio:         4.0,
		ThinCapCriticalRatio:     85.0 / 15.0,
		ICVolumeDocThreshold:     1_000_000,
		MaxLoansToAssetsMultiple: 2.0,
		ReconcileTolerance:       1.0,
	}
}
