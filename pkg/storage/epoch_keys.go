package storage

import "fmt"

// Epoch key schema for Pebble storage. Mirrors the teacher's prefixed-key
// idiom (one short literal prefix per concern, colon-joined components so
// prefix scans stay exact) applied to the commit-reveal clearing pipeline
// instead of consensus blocks/certificates or perp accounts/positions:
//
//	commit:<epoch>:<commitment-hash>  -> nothing (existence marker)
//	reveal:<epoch>:<order-id>         -> PairOrder (JSON)
//	sol:<epoch>                       -> EpochSolution (gob)
const (
	prefixCommit = "commit:"
	prefixReveal = "reveal:"
	prefixSol    = "sol:"
)

func commitKey(epoch uint64, commitment string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", prefixCommit, epoch, commitment))
}

func commitPrefix(epoch uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d:", prefixCommit, epoch))
}

func revealKey(epoch uint64, orderID string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", prefixReveal, epoch, orderID))
}

func revealPrefix(epoch uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d:", prefixReveal, epoch))
}

func solutionKey(epoch uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixSol, epoch))
}

// keyUpperBound returns the exclusive upper bound for a prefix scan.
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
