// Package translate is the caller-side entry point for turning queries
// into DQL. It fronts a querydql.Compiler with a two-level cache: an
// in-memory 2Q LRU and an optional SQLite store. Only precompilable
// compilations are cached since their text does not embed parameter
// values.
package translate
