package api

// MetricsRequest represents the query parameters for GET /xrp/metrics
type MetricsRequest struct {
	Year    uint64 `query:"year"`     // Optional year filter in YYYY format
	Page    uint64 `query:"page"`     // Page number for pagination (default: 1)
	PerPage uint64 `query:"per_page"` // Number of runs per page (default: 50, max: 100)
}

// Concentration is the share of supply held by the top Cutoff wallets
type Concentration struct {
	Cutoff int    `json:"cutoff"`
	Pct    string `json:"pct"`
}

// Metric is the metric set of one run
type Metric struct {
	Timestamp        string          `json:"timestamp"`
	Wallets          int             `json:"wallets"`
	TotalLocked      string          `json:"total_locked"`
	TotalCirculating string          `json:"total_circulating"`
	Concentration    []Concentration `json:"concentration"`
}

// MetricsResponse represents the API response format for GET /xrp/metrics
type MetricsResponse struct {
	Data []Metric `json:"data"`
}

// DeltasRequest represents the query parameters for GET /xrp/deltas
type DeltasRequest struct {
	Page    uint64 `query:"page"`
	PerPage uint64 `query:"per_page"`
}

// WalletDelta is the balance change of one wallet. Balances are null when
// the wallet is absent from that snapshot.
type WalletDelta struct {
	Wallet     string  `json:"wallet"`
	Owner      string  `json:"owner"`
	OldBalance *string `json:"old_balance"`
	NewBalance *string `json:"new_balance"`
	Change     string  `json:"change"`
}

// DeltasResponse represents the API response format for GET /xrp/deltas
type DeltasResponse struct {
	Latest   string        `json:"latest"`
	Previous string        `json:"previous"`
	Data     []WalletDelta `json:"data"`
}
