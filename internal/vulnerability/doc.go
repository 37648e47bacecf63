// Package vulnerability scores infrastructure assets against climate-hazard scenarios.
//
// # Components
//
// Each asset receives three components in [0,1]:
//
//	exposure         mean of the scenario's hazard indices (restricted to Weights.ExposureHazards)
//	sensitivity      AgeShare*minmax(age) + CapacityShare*minmax(capacity)
//	criticality_norm minmax(criticality)
//
// Min-max normalization runs across the whole asset set passed to [Compute]. When every
// asset carries the same value the range is degenerate and the normalized value is 0.5.
//
// The composite score is
//
//	vulnerability_score = 100 * (Exposure*exposure + Sensitivity*sensitivity + Criticality*criticality_norm)
//
// clamped to [0,100]. Weights are configuration, see [DefaultWeights].
//
// # Scenario fallback
//
// A scenario missing from the hazard table yields 0.5 for every hazard (medium exposure).
// An empty cell in a known scenario also yields 0.5 for that hazard. A hazard column absent
// from the hazard file is absent from every known scenario and does not enter exposure.
package vulnerability
