package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Postgres implementa a persistência de apostas.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

var (
	ErrNoOpenRound  = errors.New("no open round")
	ErrRoundSettled = errors.New("round already settled")
)

// CurrentRound retorna a rodada aberta de (date, hour).
func (p *Postgres) CurrentRound(ctx context.Context, date string, hour int) (*OpenRound, error) {
	var r OpenRound
	err := p.db.QueryRowContext(ctx, `
		SELECT id, date, hour, start_price, pot, jackpot, is_rollover
		FROM rounds WHERE date=$1 AND hour=$2 AND settled=false`,
		date, hour).Scan(&r.ID, &r.Date, &r.Hour, &r.StartPrice, &r.Pot, &r.Jackpot, &r.IsRollover)
	if err == sql.ErrNoRows {
		return nil, ErrNoOpenRound
	}
	if err != nil {
		return nil, fmt.Errorf("query current round: %w", err)
	}
	return &r, nil
}

// PlaceBet insere a aposta e incrementa pot e jackpot da rodada na mesma
// transação. A linha da rodada é travada (FOR UPDATE) e revalidada como
// aberta dentro da transação: aposta nunca entra em rodada liquidada.
// jackpotContrib é a fração da aposta que alimenta o jackpot.
func (p *Postgres) PlaceBet(ctx context.Context, b *Bet, jackpotContrib float64) (betID string, pot, jackpot float64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, 0, err
	}
	defer tx.Rollback()

	var settled bool
	err = tx.QueryRowContext(ctx,
		`SELECT settled FROM rounds WHERE id=$1 FOR UPDATE`, b.RoundID).Scan(&settled)
	if err == sql.ErrNoRows {
		return "", 0, 0, ErrNoOpenRound
	}
	if err != nil {
		return "", 0, 0, err
	}
	if settled {
		return "", 0, 0, ErrRoundSettled
	}

	betID = uuid.NewString()
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO bets (id, round_id, wallet, tier, amount, claimed)
		VALUES ($1,$2,$3,$4,$5,false)`,
		betID, b.RoundID, b.Wallet, b.Tier, b.Amount); err != nil {
		return "", 0, 0, err
	}

	contribution := b.Amount * jackpotContrib
	if err = tx.QueryRowContext(ctx, `
		UPDATE rounds SET pot = pot + $1, jackpot = jackpot + $2
		WHERE id=$3
		RETURNING pot, jackpot`,
		b.Amount, contribution, b.RoundID).Scan(&pot, &jackpot); err != nil {
		return "", 0, 0, err
	}

	if err = tx.Commit(); err != nil {
		return "", 0, 0, err
	}
	return betID, pot, jackpot, nil
}
