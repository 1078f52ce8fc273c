package storage

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/convexfx/engine/pkg/clearing"
	"github.com/convexfx/engine/pkg/orderbook"
	"github.com/convexfx/engine/pkg/types"
)

// EpochStore persists the commit-reveal record and the published solution
// for each epoch, so a restarted node can replay what it already committed
// to and a client can fetch a past epoch's outcome without holding it in
// memory.
type EpochStore struct {
	db *pebble.DB
}

func NewEpochStore(path string) (*EpochStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open epoch store: %w", err)
	}
	return &EpochStore{db: db}, nil
}

func (s *EpochStore) Close() error { return s.db.Close() }

// SaveCommitment records that a commitment hash was accepted for an epoch.
// The value carries nothing beyond existence; membership is the whole
// point, so a later Reveal can be checked against it even after restart.
func (s *EpochStore) SaveCommitment(epoch types.EpochId, commitment orderbook.CommitmentHash) error {
	key := commitKey(uint64(epoch), string(commitment))
	if err := s.db.Set(key, []byte{1}, pebble.Sync); err != nil {
		return fmt.Errorf("save commitment: %w", err)
	}
	return nil
}

// HasCommitment reports whether a commitment was previously saved for an
// epoch.
func (s *EpochStore) HasCommitment(epoch types.EpochId, commitment orderbook.CommitmentHash) (bool, error) {
	_, closer, err := s.db.Get(commitKey(uint64(epoch), string(commitment)))
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get commitment: %w", err)
	}
	defer closer.Close()
	return true, nil
}

// CountCommitments returns how many commitments have been saved for an
// epoch, for a collecting-phase deadline check.
func (s *EpochStore) CountCommitments(epoch types.EpochId) (int, error) {
	prefix := commitPrefix(uint64(epoch))
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: keyUpperBound(prefix)})
	if err != nil {
		return 0, fmt.Errorf("scan commitments: %w", err)
	}
	defer iter.Close()
	n := 0
	for iter.First(); iter.Valid(); iter.Next() {
		n++
	}
	return n, nil
}

// SaveReveal persists the revealed order for an epoch.
func (s *EpochStore) SaveReveal(epoch types.EpochId, order types.PairOrder) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("encode revealed order: %w", err)
	}
	if err := s.db.Set(revealKey(uint64(epoch), string(order.ID)), data, pebble.Sync); err != nil {
		return fmt.Errorf("save revealed order: %w", err)
	}
	return nil
}

// LoadReveals returns every order revealed so far for an epoch, in
// lexicographic key order (not the book's freeze order -- callers that
// need deterministic freeze order should go through orderbook.OrderBook's
// Freeze instead).
func (s *EpochStore) LoadReveals(epoch types.EpochId) ([]types.PairOrder, error) {
	prefix := revealPrefix(uint64(epoch))
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: keyUpperBound(prefix)})
	if err != nil {
		return nil, fmt.Errorf("scan reveals: %w", err)
	}
	defer iter.Close()

	var orders []types.PairOrder
	for iter.First(); iter.Valid(); iter.Next() {
		var order types.PairOrder
		if err := json.Unmarshal(iter.Value(), &order); err != nil {
			continue
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// SaveSolution persists a published EpochSolution.
func (s *EpochStore) SaveSolution(sol clearing.EpochSolution) error {
	data, err := encodeGob(sol)
	if err != nil {
		return fmt.Errorf("encode solution: %w", err)
	}
	if err := s.db.Set(solutionKey(uint64(sol.EpochID)), data, pebble.Sync); err != nil {
		return fmt.Errorf("save solution: %w", err)
	}
	return nil
}

// LoadSolution returns a previously published solution, or ok=false if
// that epoch has not been solved yet.
func (s *EpochStore) LoadSolution(epoch types.EpochId) (sol clearing.EpochSolution, ok bool, err error) {
	data, closer, getErr := s.db.Get(solutionKey(uint64(epoch)))
	if getErr == pebble.ErrNotFound {
		return clearing.EpochSolution{}, false, nil
	}
	if getErr != nil {
		return clearing.EpochSolution{}, false, fmt.Errorf("get solution: %w", getErr)
	}
	defer closer.Close()
	if err := decodeGob(data, &sol); err != nil {
		return clearing.EpochSolution{}, false, fmt.Errorf("decode solution: %w", err)
	}
	return sol, true, nil
}
