package accounting

import (
	"context"

	"github.com/convexfx/engine/pkg/types"
)

// Accounting is the CORE's abstract settlement callback (spec.md §6): once
// an epoch's fills pass the validity predicate, the host applies them to
// whatever ledger backs real balances. The CORE never touches balances
// directly.
type Accounting interface {
	ApplyFills(ctx context.Context, epoch types.EpochId, fills []types.Fill) error
}
