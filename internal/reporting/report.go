package reporting

import "time"

// Report is one ranked candidate report.
type Report struct {
	// Metadata
	GeneratedAt time.Time `json:"generated_at"`
	ReportFile  string    `json:"report_file"`

	// Ranked candidates, best first
	Rows []RankedRow `json:"rows"`

	// Candidates left out of the ranking
	Rejected []string       `json:"rejected"` // canonical keys with a reject decision
	Invalid  []InvalidInput `json:"invalid"`  // trades whose identity could not be resolved

	Total int `json:"total"` // candidates received
}

// RankedRow is one ranked trade.
type RankedRow struct {
	Rank       int      `json:"rank"`
	TradeKey   string   `json:"trade_key"`
	Underlying string   `json:"underlying"`
	Strategy   string   `json:"strategy"`
	Expiration string   `json:"expiration"`
	Score      float64  `json:"rank_score"`
	Edge       float64  `json:"edge"`
	ROR        float64  `json:"ror"`
	POP        float64  `json:"pop"`
	Liquidity  float64  `json:"liquidity"`
	TQS        *float64 `json:"tqs"` // nil when the trade has no quality score
	Penalty    float64  `json:"liquidity_penalty"`
	SpreadPct  *float64 `json:"spread_pct"`
	InputIndex int      `json:"input_index"` // position in the input batch
}

// InvalidInput records a candidate that was not ranked.
type InvalidInput struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}
