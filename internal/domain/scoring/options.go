package scoring

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithWeights replaces the full weight set. Non-positive weight sets are
// ignored to preserve the [0,1] range invariant.
func WithWeights(w Weights) Option {
	return func(c *Calculator) {
		if w.Total() > 0 {
			c.weights = w
		}
	}
}

// WithWeightsFromConfig overrides individual weights from a configuration
// map keyed by dimension name. Unknown keys and non-positive values are
// ignored; untouched dimensions keep their defaults.
func WithWeightsFromConfig(weights map[string]float64) Option {
	return func(c *Calculator) {
		for name, weight := range weights {
			if weight <= 0 {
				continue
			}
			switch name {
			case "date_correct":
				c.weights.DateCorrect = weight
			case "root_event":
				c.weights.RootEvent = weight
			case "event_type":
				c.weights.EventType = weight
			case "ambiguity":
				c.weights.Ambiguity = weight
			case "relevance":
				c.weights.Relevance = weight
			}
		}
	}
}

// WithPrecision sets the number of decimal places kept on the reported EQS.
func WithPrecision(places int) Option {
	return func(c *Calculator) {
		if places >= 0 {
			c.precision = places
		}
	}
}
