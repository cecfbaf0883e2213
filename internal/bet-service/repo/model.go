package repo

import "time"

// Bet é o modelo persistido no Postgres.
type Bet struct {
	ID        string
	RoundID   int64
	Wallet    string
	Tier      string
	Amount    float64
	Claimed   bool
	CreatedAt time.Time
}

// OpenRound é a visão da rodada corrente exposta pela API de apostas.
type OpenRound struct {
	ID         int64
	Date       string
	Hour       int
	StartPrice *float64
	Pot        float64
	Jackpot    float64
	IsRollover bool
}
