package types

// EpochId identifies one batch-clearing round.
type EpochId uint64
