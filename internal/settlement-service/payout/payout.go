package payout

import (
	"math"
	"time"
)

// Bet é a visão mínima de uma aposta vencedora para o cálculo de payout.
type Bet struct {
	Wallet   string
	Amount   float64
	PlacedAt time.Time
}

// Payout é a parcela do pool devida a um vencedor.
type Payout struct {
	Wallet           string
	Amount           float64
	Multiplier       float64
	MinutesIntoRound float64
}

// Calculator distribui o pool proporcionalmente entre as apostas
// vencedoras, opcionalmente ponderadas pelo minuto de entrada na rodada.
// RakeBps é o rake da plataforma em basis points (1100 = 11%).
type Calculator struct {
	RakeBps      int
	TimeWeighted bool
}

func NewCalculator(rakeBps int, timeWeighted bool) Calculator {
	return Calculator{RakeBps: rakeBps, TimeWeighted: timeWeighted}
}

// PoolFraction é a fração do pot distribuída aos vencedores.
func (c Calculator) PoolFraction() float64 {
	return 1 - float64(c.RakeBps)/10000
}

// Multiplier retorna o peso da aposta pelo minuto de entrada na rodada.
// Escada decrescente: entrar cedo vale mais.
func Multiplier(minutesIntoRound float64) float64 {
	switch {
	case minutesIntoRound < 15:
		return 1.8
	case minutesIntoRound < 30:
		return 1.6
	case minutesIntoRound < 45:
		return 1.4
	case minutesIntoRound < 55:
		return 1.2
	}
	return 1.0
}

// Compute calcula os payouts das apostas vencedoras sobre o pot da rodada.
// Retorna rollover=true quando não há peso vencedor (nenhuma aposta na
// faixa vencedora, ou todas com valor zero): zero payouts e o chamador
// carrega o pool para a próxima rodada.
//
// Cada payout é arredondado para 6 casas; a soma pode ficar marginalmente
// abaixo do pool e o resíduo fica com a casa. Isso é slippage aceito de
// arredondamento, não redistribuído.
func (c Calculator) Compute(winning []Bet, pot float64, roundStart time.Time) (payouts []Payout, pool float64, rollover bool) {
	if pot < 0 {
		pot = 0
	}
	pool = pot * c.PoolFraction()

	totalEffective := 0.0
	effective := make([]float64, len(winning))
	mults := make([]float64, len(winning))
	minutes := make([]float64, len(winning))

	for i, b := range winning {
		m := math.Max(0, b.PlacedAt.Sub(roundStart).Minutes())
		mult := 1.0
		if c.TimeWeighted {
			mult = Multiplier(m)
		}
		minutes[i] = m
		mults[i] = mult
		effective[i] = b.Amount * mult
		totalEffective += effective[i]
	}

	// sem peso vencedor não há divisão: rodada vira rollover
	if totalEffective == 0 {
		return nil, pool, true
	}

	payouts = make([]Payout, 0, len(winning))
	for i, b := range winning {
		payouts = append(payouts, Payout{
			Wallet:           b.Wallet,
			Amount:           round6(effective[i] / totalEffective * pool),
			Multiplier:       mults[i],
			MinutesIntoRound: minutes[i],
		})
	}
	return payouts, pool, false
}

func round6(x float64) float64 {
	return math.Round(x*1e6) / 1e6
}
