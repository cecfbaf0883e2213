package render

import (
	"strings"
	"testing"

	"github.com/degenecho/price-game-platform/pkg/contracts/events"
)

func TestRoundSettledWithWinners(t *testing.T) {
	subject, body := RoundSettled(events.RoundSettled{
		RoundID:     42,
		Date:        "2025-03-10",
		Hour:        13,
		WinningTier: "smallpump",
		PctChange:   1.234,
		EndPrice:    142.395,
		Pot:         10.0,
		Payouts: []events.PayoutLine{
			{Wallet: "abc", Amount: 4.45, Multiplier: 1.8, MinutesIntoRound: 5},
			{Wallet: "def", Amount: 4.45, Multiplier: 1.4, MinutesIntoRound: 40},
		},
	})

	if subject != "Degen Echo Round 42 Settled" {
		t.Fatalf("subject = %q", subject)
	}
	for _, want := range []string{
		"Winner: smallpump",
		"SOL moved: 1.234%",
		"abc: 4.450000 SOL (1.8x, 5.0min)",
		"def: 4.450000 SOL (1.4x, 40.0min)",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestRoundSettledRollover(t *testing.T) {
	_, body := RoundSettled(events.RoundSettled{
		RoundID:    43,
		Date:       "2025-03-10",
		Hour:       13,
		IsRollover: true,
	})

	if !strings.Contains(body, "Winner: none (rollover)") {
		t.Errorf("body missing rollover tier:\n%s", body)
	}
	if !strings.Contains(body, "No winners - pot rolled over") {
		t.Errorf("body missing rollover payout line:\n%s", body)
	}
}

func TestJackpotHit(t *testing.T) {
	subject, body := JackpotHit(events.JackpotHit{
		RoundID: 42,
		Wallet:  "hotwallet",
		Streak:  10,
		Jackpot: 23.4,
	})

	if subject != "JACKPOT HIT! 10-WIN STREAK!" {
		t.Fatalf("subject = %q", subject)
	}
	for _, want := range []string{"Wallet: hotwallet", "Round: 42", "Jackpot: 23.4000 SOL"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}
