package events

type BetPlaced struct {
	BetID    string  `json:"bet_id"`
	RoundID  int64   `json:"round_id"`
	Wallet   string  `json:"wallet"`
	Tier     string  `json:"tier"`
	Amount   float64 `json:"amount"`
	TsUnixMs int64   `json:"ts_unix_ms"`
}
