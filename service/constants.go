package service

const (
	MaxLeverageMultiplier      = 3.0   // requested amount / total savings
	ZeroSavingsMultiplier      = 100.0 // leverage when total savings is 0
	MinCreditScore             = 600
	MinGuarantorCount          = 2
	MinGuarantorAvgCreditScore = 600

	DefaultMinLoanAmount    = 1000.0
	DefaultCounterOfferStep = 5000.0

	// upper bound on amounts evaluated per counter-offer
	MaxCounterOfferCandidates = 200
)
