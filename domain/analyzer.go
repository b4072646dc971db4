package domain

import "context"

// Analyzer runs after every scan has completed and works across the full,
// now-static set of records, typically writing into their dependency sets.
// Analyzers never fail on malformed input: a pattern that does not match
// simply yields no evidence.
type Analyzer interface {
	// Name returns the analyzer identifier (e.g. "connections").
	Name() string

	// Analyze inspects the full record set and mutates records in place.
	Analyze(ctx context.Context, records []*Record)
}
