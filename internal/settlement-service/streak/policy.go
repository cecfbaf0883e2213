package streak

import "time"

// Policy define quando uma vitória conta para a sequência e quando a
// sequência fecha o jackpot.
// QualifiedOnly=true exige aposta dentro de EarlyWindow do início da
// rodada e valor mínimo MinBet; false credita qualquer vitória.
// Uma vitória não qualificada nunca zera a sequência; só derrota zera.
type Policy struct {
	Threshold     int
	EarlyWindow   time.Duration
	MinBet        float64
	QualifiedOnly bool
}

// Result é o efeito de um desfecho sobre a sequência de um participante.
type Result struct {
	NewStreak        int
	WonCounted       bool
	JackpotTriggered bool
}

// Qualifies informa se a aposta é elegível a crédito de sequência.
func (p Policy) Qualifies(placedAt, roundStart time.Time, amount float64) bool {
	return placedAt.Before(roundStart.Add(p.EarlyWindow)) && amount >= p.MinBet
}

// Apply computa a transição da sequência a partir do desfecho de uma aposta.
// Derrota zera; vitória credita conforme a política; ao atingir o limiar a
// sequência volta a zero e o jackpot é disparado.
func (p Policy) Apply(current int, won bool, placedAt, roundStart time.Time, amount float64) Result {
	if !won {
		return Result{NewStreak: 0}
	}

	counted := true
	if p.QualifiedOnly && !p.Qualifies(placedAt, roundStart, amount) {
		counted = false
	}

	next := current
	if counted {
		next++
	}

	if next >= p.Threshold {
		return Result{NewStreak: 0, WonCounted: counted, JackpotTriggered: true}
	}
	return Result{NewStreak: next, WonCounted: counted}
}
