package qtable

// #region metrics
// ConvergenceMetrics summarizes the value distribution of the table for
// observability. All fields are zero for an empty table.
type ConvergenceMetrics struct {
	TableSize    int     `json:"table_size"`    // states with recorded actions
	TotalEntries int     `json:"total_entries"` // state-action pairs
	AverageValue float64 `json:"average_value"`
	MaxValue     float64 `json:"max_value"`
	MinValue     float64 `json:"min_value"`
}

// Metrics computes convergence metrics in a single pass over the table.
func (t *Table) Metrics() ConvergenceMetrics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	m := ConvergenceMetrics{TableSize: len(t.values)}
	var sum float64
	first := true
	for _, actions := range t.values {
		for _, v := range actions {
			m.TotalEntries++
			sum += v
			if first || v > m.MaxValue {
				m.MaxValue = v
			}
			if first || v < m.MinValue {
				m.MinValue = v
			}
			first = false
		}
	}
	if m.TotalEntries > 0 {
		m.AverageValue = sum / float64(m.TotalEntries)
	}
	return m
}

// #endregion metrics
