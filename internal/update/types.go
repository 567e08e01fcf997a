package update

// #region config
// Config holds the learning parameters for the temporal-difference rule.
type Config struct {
	LearningRate   float64 // step size toward the TD target, (0, 1]
	DiscountFactor float64 // weight on future value, [0, 1]
}

// DefaultConfig returns the standard Q-learning parameters.
func DefaultConfig() Config {
	return Config{
		LearningRate:   0.1,
		DiscountFactor: 0.9,
	}
}

// Valid reports whether both parameters are inside their allowed ranges.
func (c Config) Valid() bool {
	if c.LearningRate <= 0 || c.LearningRate > 1 {
		return false
	}
	if c.DiscountFactor < 0 || c.DiscountFactor > 1 {
		return false
	}
	return true
}

// #endregion config
