package store

import "github.com/roach88/dqlmap/internal/querydql"

// Record is one cached compilation.
type Record struct {
	ID              string // UUIDv7 assigned when first compiled
	Key             string // ir.CompilationKey of query and schema
	SchemaHash      string
	Candidate       string
	Compilation     querydql.Compilation
	CompilerVersion string
	IRVersion       string
	Hits            int64
}
