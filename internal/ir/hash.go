package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainCompilation = "dqlmap/compilation/v1"
	DomainSchema      = "dqlmap/schema/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SchemaFingerprint hashes the canonical form of a schema.
func SchemaFingerprint(schema IRObject) (string, error) {
	canonical, err := MarshalCanonical(schema)
	if err != nil {
		return "", fmt.Errorf("SchemaFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSchema, canonical), nil
}

// CompilationKey computes the cache key of a query compiled against a
// schema. The compiler version is part of the key.
func CompilationKey(query IRObject, schemaFingerprint string) (string, error) {
	obj := IRObject{
		"query":            query,
		"schema":           IRString(schemaFingerprint),
		"compiler_version": IRString(CompilerVersion),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("CompilationKey: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCompilation, canonical), nil
}
