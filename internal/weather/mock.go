package weather

import "context"

// StaticProvider returns fixed conditions. Useful for tests and for running
// the API without an upstream weather dependency.
type StaticProvider struct {
	Conditions Conditions
	Err        error
	Calls      int
}

// Current returns the configured conditions or error.
func (p *StaticProvider) Current(context.Context, float64, float64) (Conditions, error) {
	p.Calls++
	if p.Err != nil {
		return Conditions{}, p.Err
	}
	return p.Conditions, nil
}
