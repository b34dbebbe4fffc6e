// Package guard implements the double-tracking check. When an orchestrated
// run loop is already instrumenting this working tree, the whole observation
// pipeline must defer: duplicate capture would corrupt downstream cost
// accounting.
package guard

import "os"

// Decision is the guard's verdict.
type Decision int

const (
	// Proceed means no orchestrated run is active; observe normally.
	Proceed Decision = iota
	// Defer means an orchestrated run owns this tree; the pipeline no-ops.
	Defer
)

func (d Decision) String() string {
	if d == Defer {
		return "defer"
	}
	return "proceed"
}

// Check inspects the process environment for any of the given signal
// variables. It is the first thing the pipeline evaluates, before any
// payload parsing, and performs no I/O.
func Check(envVars []string) Decision {
	for _, name := range envVars {
		if name == "" {
			continue
		}
		if v, ok := os.LookupEnv(name); ok && v != "" && v != "0" {
			return Defer
		}
	}
	return Proceed
}
