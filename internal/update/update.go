// Package update implements the temporal-difference value update rule.
package update

// #region next-q
// NextQ is a pure function that computes the updated Q-value for a
// state-action pair after observing a reward and the best known value of the
// next state:
//
//	Q(s,a) ← Q(s,a) + α·(r + γ·max_a' Q(s',a') − Q(s,a))
//
// A single call moves the estimate a fraction α toward the TD target; callers
// must not assume single-update convergence.
func NextQ(oldQ, reward, maxNextQ float64, cfg Config) float64 {
	return oldQ + cfg.LearningRate*(reward+cfg.DiscountFactor*maxNextQ-oldQ)
}

// #endregion next-q
