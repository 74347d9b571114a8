// Package harness runs conversion scenarios against a real store and engine.
//
// Scenarios are YAML files describing a sequence of conversions, history
// queries and clears, each with an optional expectation, followed by
// assertions on the final history log.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	catalog: catalogs/extra.yaml   # optional, imported before the flow
//	flow:
//	  - convert: {value: "1", from: Kilometer, to: Meter}
//	    expect: {case: ok, display: "1000"}
//	  - convert: {value: "1", from: Meter, to: Gram}
//	    expect: {case: CATEGORY_MISMATCH}
//	  - query: {text: kilo, field: from_unit}
//	    expect: {count: 1}
//	  - clear: true
//	assertions:
//	  - type: history_count
//	    count: 0
//
// # Assertion Types
//
//   - history_count: the log holds exactly Count records
//   - history_contains: some record's Field contains Text (case-insensitive)
//   - history_order: the log lists the given "From->To" pairs, newest first
//
// # Deterministic Testing
//
// Every scenario runs in a fresh in-memory database with a step clock, so
// history ids and timestamps are identical across runs and traces can be
// compared against golden files.
package harness
