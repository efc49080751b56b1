package ir

// Version constants for the population format and engine.
const (
	// FormatVersion is the population/archive schema version.
	FormatVersion = "1"

	// EngineVersion is the ITTM engine version.
	EngineVersion = "0.1.0"
)
