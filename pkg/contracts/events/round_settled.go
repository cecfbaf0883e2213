package events

// RoundSettled é o resumo de liquidação publicado pelo settlement-service.
// O notification-worker consome este evento e entrega o resumo por e-mail.
type RoundSettled struct {
	RoundID     int64        `json:"round_id"`
	Date        string       `json:"date"`
	Hour        int          `json:"hour"`
	WinningTier string       `json:"winning_tier"` // vazio quando rollover sem tier
	PctChange   float64      `json:"pct_change"`
	EndPrice    float64      `json:"end_price"`
	Pot         float64      `json:"pot"`
	IsRollover  bool         `json:"is_rollover"`
	Payouts     []PayoutLine `json:"payouts"`
	TsUnixMs    int64        `json:"ts_unix_ms"`
}

type PayoutLine struct {
	Wallet           string  `json:"wallet"`
	Amount           float64 `json:"amount"`
	Multiplier       float64 `json:"multiplier"`
	MinutesIntoRound float64 `json:"minutes_into_round"`
}
