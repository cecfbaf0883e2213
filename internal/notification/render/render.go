package render

import (
	"fmt"
	"strings"

	"github.com/degenecho/price-game-platform/pkg/contracts/events"
)

// RoundSettled formata o resumo operacional de uma rodada liquidada.
func RoundSettled(e events.RoundSettled) (subject, body string) {
	subject = fmt.Sprintf("Degen Echo Round %d Settled", e.RoundID)

	var payoutText string
	if len(e.Payouts) > 0 {
		lines := make([]string, 0, len(e.Payouts))
		for _, p := range e.Payouts {
			lines = append(lines, fmt.Sprintf("%s: %.6f SOL (%.1fx, %.1fmin)",
				p.Wallet, p.Amount, p.Multiplier, p.MinutesIntoRound))
		}
		payoutText = strings.Join(lines, "\n")
	} else {
		payoutText = "No winners - pot rolled over"
	}

	tier := e.WinningTier
	if tier == "" {
		tier = "none (rollover)"
	}

	body = fmt.Sprintf(
		"Round %d\nDate: %s Hour: %d\nWinner: %s\nSOL moved: %.3f%%\nEnd price: %.4f\nPot: %.4f SOL\n\nPAYOUTS:\n%s",
		e.RoundID, e.Date, e.Hour, tier, e.PctChange, e.EndPrice, e.Pot, payoutText)
	return subject, body
}

// JackpotHit formata o alerta de jackpot para o operador pagar imediatamente.
func JackpotHit(e events.JackpotHit) (subject, body string) {
	subject = fmt.Sprintf("JACKPOT HIT! %d-WIN STREAK!", e.Streak)
	body = fmt.Sprintf(
		"JACKPOT WINNER!\nWallet: %s\nRound: %d\nJackpot: %.4f SOL\n\nSend jackpot immediately!",
		e.Wallet, e.RoundID, e.Jackpot)
	return subject, body
}
