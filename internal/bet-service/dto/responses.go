package dto

type PlaceBetResponse struct {
	BetID   string  `json:"bet_id"`
	RoundID int64   `json:"round_id"`
	Pot     float64 `json:"pot"`
	Jackpot float64 `json:"jackpot"`
}

type CurrentRoundResponse struct {
	RoundID    int64    `json:"round_id"`
	Date       string   `json:"date"`
	Hour       int      `json:"hour"`
	StartPrice *float64 `json:"start_price"`
	Pot        float64  `json:"pot"`
	Jackpot    float64  `json:"jackpot"`
	IsRollover bool     `json:"is_rollover"`
}
