package topics

const (
	// Preço
	PriceTicks = "price_ticks"

	// Apostas
	BetPlaced = "bet_placed"

	// Liquidação
	RoundSettled = "round_settled"
	JackpotHit   = "jackpot_hit"

	// DLQs
	NotifyDLQ = "notify_dlq"
)
