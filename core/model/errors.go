package model

import "fmt"

// ValidationError reports malformed input rejected before any simulation
// runs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidInputError reports a semantically invalid combination of inputs,
// such as a flat tariff handed to the optimizer.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

// InfeasibleModelError reports that the dispatch LP has no feasible
// solution or that the solve was cancelled. The request fails; there is no
// fallback schedule.
type InfeasibleModelError struct {
	Status string
	Err    error
}

func (e *InfeasibleModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("infeasible dispatch model (%s): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("infeasible dispatch model (%s)", e.Status)
}

func (e *InfeasibleModelError) Unwrap() error { return e.Err }
