// Package dql models the Documentum Query Language fragments produced by
// the query compiler and assembles them into full statements.
//
// Expressions render to compact text: comparisons carry no spaces around
// the operator (this.age>30) while logical connectives do
// (this.age>30 AND this.active=true).
package dql
