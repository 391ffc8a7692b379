// Package harness runs DQL conformance scenarios.
//
// A scenario is a YAML file naming a CUE schema directory, a query tree,
// parameter bindings and the expected compilation:
//
//	name: filter_and
//	description: conjunction of two scalar comparisons
//	schema: ../schema
//	query:
//	  candidate: Person
//	  filter:
//	    and:
//	      - gt: [{field: age}, {lit: 30}]
//	      - eq: [{field: active}, {lit: true}]
//	expect:
//	  filter: "this.age>30 AND this.active=true"
//	  filter_complete: true
//
// Run compiles the query twice through a translate.Translator backed by an
// in-memory store. Every expectation that is set must match the first
// compilation, and the second compilation must be identical to the first.
//
// RunWithGolden additionally snapshots the compilation as canonical JSON
// under testdata/golden. To regenerate the snapshots:
//
//	go test ./internal/harness -update
package harness
