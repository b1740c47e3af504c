package queryfold

// NoArrayLimit disables the sequence length bound: combines never
// convert to an overflow record.
const NoArrayLimit = -1

// MergeOptions configures the merge engine. The same value is threaded
// unchanged through every merge call of one decode pass.
type MergeOptions struct {
	// ArrayLimit bounds the length of sequences produced by Combine.
	// The moment a combine would exceed it the result becomes an
	// overflow record and stays one for that accumulator. NoArrayLimit
	// means unbounded; negative values other than NoArrayLimit and
	// non-integer limits are caller errors.
	ArrayLimit int

	// AllowPrototype selects whether records created during overflow
	// conversion may carry inherited members. False produces plain
	// records, the safe choice when decoded keys are attacker
	// controlled.
	AllowPrototype bool
}

// DefaultMergeOptions returns the merge defaults used by the decoder.
func DefaultMergeOptions() MergeOptions {
	return MergeOptions{
		ArrayLimit:     20,
		AllowPrototype: true,
	}
}
