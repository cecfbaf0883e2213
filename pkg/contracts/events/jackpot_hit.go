package events

// JackpotHit é emitido quando um participante fecha a sequência de vitórias
// exigida e leva o jackpot acumulado.
type JackpotHit struct {
	RoundID  int64   `json:"round_id"`
	Wallet   string  `json:"wallet"`
	Streak   int     `json:"streak"`
	Jackpot  float64 `json:"jackpot"`
	TsUnixMs int64   `json:"ts_unix_ms"`
}
