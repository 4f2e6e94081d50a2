// Package events dispatches typed export contexts to the processors bound
// to them and combines their results.
package events

// ProcessingResult is the outcome of handling one context.
type ProcessingResult int

// Results in increasing precedence.
const (
	Ignored ProcessingResult = iota
	Success
	Failure
)

func (r ProcessingResult) String() string {
	switch r {
	case Ignored:
		return "Ignored"
	case Success:
		return "Success"
	case Failure:
		return "Failure"
	default:
		return "Unknown"
	}
}

// Combiner aggregates results. Failure wins over Success, which wins over
// Ignored. The zero value holds Ignored.
type Combiner struct {
	result ProcessingResult
}

// Add folds r into the combined result.
func (c *Combiner) Add(r ProcessingResult) {
	if r > c.result {
		c.result = r
	}
}

// Result returns the combined result.
func (c *Combiner) Result() ProcessingResult {
	return c.result
}

// Combine folds all results. An empty list is Ignored.
func Combine(results ...ProcessingResult) ProcessingResult {
	var c Combiner
	for _, r := range results {
		c.Add(r)
	}
	return c.Result()
}
