package ir

// Version constants recorded with every stored coordinator.
const (
	// IRVersion is the JoinSpec schema version.
	IRVersion = "1"

	// EngineVersion is the rendezvous engine version.
	EngineVersion = "0.1.0"
)
