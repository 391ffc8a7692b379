// Package ir provides canonical value types and content-addressed hashing
// for dqlmap.
//
// Query trees and schemas are converted to IRValue structures and
// serialized with MarshalCanonical before hashing. Two structurally equal
// inputs always produce the same bytes, so their hashes can key the
// compilation cache across processes.
//
// Key design constraints:
//   - NO float types in canonical form - callers encode floats as tagged strings
//   - NO null in canonical form - callers encode null as a tagged object
//   - Object keys are ordered by UTF-16 code units (RFC 8785)
//   - Strings are NFC normalized at the serialization boundary
package ir
