package ir

// Version constants for canonical encoding and the compiler.
const (
	// IRVersion is the canonical encoding version.
	IRVersion = "1"

	// CompilerVersion is folded into cache keys so that a compiler upgrade
	// never serves text produced by an older translation.
	CompilerVersion = "0.1.0"
)
