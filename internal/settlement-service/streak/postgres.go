package streak

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Outcome é o estado do participante após registrar um desfecho.
type Outcome struct {
	Wallet           string
	NewStreak        int
	TotalWins        int
	JackpotTriggered bool
}

// Postgres mantém a sequência de vitórias por carteira.
// O registro é compartilhado entre todas as rodadas: o read-modify-write
// roda em transação com SELECT ... FOR UPDATE para que duas liquidações
// concorrentes que toquem a mesma carteira serializem.
type Postgres struct {
	db     *sql.DB
	policy Policy
}

func NewPostgres(db *sql.DB, policy Policy) *Postgres {
	return &Postgres{db: db, policy: policy}
}

// RecordOutcome aplica o desfecho de uma aposta à sequência da carteira.
// Cria a linha na primeira participação.
func (p *Postgres) RecordOutcome(ctx context.Context, wallet string, won bool, placedAt, roundStart time.Time, amount float64) (Outcome, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Outcome{}, fmt.Errorf("begin streak tx: %w", err)
	}
	defer tx.Rollback()

	var current, totalWins int
	err = tx.QueryRowContext(ctx,
		`SELECT current_streak, total_wins FROM streaks WHERE wallet=$1 FOR UPDATE`,
		wallet).Scan(&current, &totalWins)
	exists := true
	if err == sql.ErrNoRows {
		exists = false
		current, totalWins = 0, 0
	} else if err != nil {
		return Outcome{}, fmt.Errorf("select streak: %w", err)
	}

	res := p.policy.Apply(current, won, placedAt, roundStart, amount)
	if won {
		totalWins++
	}

	if exists {
		_, err = tx.ExecContext(ctx,
			`UPDATE streaks SET current_streak=$1, total_wins=$2, jackpot_pending=$3, updated_at=NOW() WHERE wallet=$4`,
			res.NewStreak, totalWins, res.JackpotTriggered, wallet)
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO streaks(wallet, current_streak, total_wins, jackpot_pending) VALUES($1,$2,$3,$4)`,
			wallet, res.NewStreak, totalWins, res.JackpotTriggered)
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("upsert streak: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return Outcome{}, fmt.Errorf("commit streak tx: %w", err)
	}

	return Outcome{
		Wallet:           wallet,
		NewStreak:        res.NewStreak,
		TotalWins:        totalWins,
		JackpotTriggered: res.JackpotTriggered,
	}, nil
}
