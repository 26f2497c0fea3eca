package ir

// Version constants for the IR schema and toolchain.
const (
	// IRVersion is the IR schema version. It is mixed into program hashes.
	IRVersion = "1"

	// ToolVersion is the qdsl toolchain version.
	ToolVersion = "0.1.0"
)
