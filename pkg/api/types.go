package api

// API response and request types for the clearing REST endpoints and
// WebSocket feed.

// ==============================
// REST Response Types
// ==============================

// EpochStatus reports an epoch's lifecycle phase and how many
// commitments/reveals it has collected so far.
type EpochStatus struct {
	Epoch          uint64 `json:"epoch"`
	Phase          string `json:"phase"`          // "Collecting", "Revealing", "Frozen"
	CommitCount    int    `json:"commitCount"`
	RevealCount    int    `json:"revealCount"`
}

// FillInfo is the wire form of a single order's fill.
type FillInfo struct {
	OrderID   string  `json:"orderId"`
	FillFrac  float64 `json:"fillFrac"`
	PayAsset  string  `json:"payAsset"`
	RecvAsset string  `json:"recvAsset"`
	PayUnits  string  `json:"payUnits"`
	RecvUnits string  `json:"recvUnits"`
}

// SolutionInfo is the wire form of a published EpochSolution.
type SolutionInfo struct {
	Epoch       uint64             `json:"epoch"`
	Prices      map[string]float64 `json:"prices"`
	Fills       []FillInfo         `json:"fills"`
	Converged   bool               `json:"converged"`
	Iterations  int                `json:"iterations"`
}

// RiskInfo reports the engine's active risk parameters, asset by asset.
type RiskInfo struct {
	Eta      float64            `json:"eta"`
	BandBps  float64            `json:"priceBandBps"`
	QTarget  map[string]float64 `json:"qTarget"`
	QMin     map[string]float64 `json:"qMin"`
	QMax     map[string]float64 `json:"qMax"`
}

// ==============================
// WebSocket Message Types
// ==============================

// WSMessage is the base structure for all WebSocket messages.
type WSMessage struct {
	Type string      `json:"type"` // "solution", "commit", "reveal"
	Data interface{} `json:"data"`
}

// WSSubscribeRequest is sent by a client to subscribe to epoch channels,
// e.g. ["epoch:42"]. Channel names are matched exactly.
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}

// SolutionUpdate is broadcast once an epoch's solution is published.
type SolutionUpdate struct {
	Type  string       `json:"type"` // "solution"
	Epoch uint64       `json:"epoch"`
	Solution SolutionInfo `json:"solution"`
}

// ==============================
// REST Request Types
// ==============================

// CommitRequest is the payload for POST /api/v1/epochs/{epoch}/commit.
type CommitRequest struct {
	Commitment string `json:"commitment"`
}

// RevealRequest is the payload for POST /api/v1/epochs/{epoch}/reveal.
type RevealRequest struct {
	Order string `json:"order"` // JSON-encoded types.PairOrder
	Salt  string `json:"salt"`  // hex-encoded salt
}

// SubmitResponse acknowledges a commit or reveal submission.
type SubmitResponse struct {
	Status  string `json:"status"`  // "accepted"
	Message string `json:"message,omitempty"`
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
