package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Postgres implementa a persistência de rodadas e apostas.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

var (
	ErrRoundNotFound = errors.New("round not found")
	ErrRoundExists   = errors.New("round already exists")
)

const roundColumns = `id, date, hour, start_price, end_price, pot, jackpot, settled, winning_tier, is_rollover, rollover_amount, created_at`

func scanRound(row interface{ Scan(...any) error }) (*Round, error) {
	var r Round
	err := row.Scan(&r.ID, &r.Date, &r.Hour, &r.StartPrice, &r.EndPrice, &r.Pot, &r.Jackpot,
		&r.Settled, &r.WinningTier, &r.IsRollover, &r.RolloverAmount, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// FindOpenRounds retorna todas as rodadas ainda não liquidadas.
func (p *Postgres) FindOpenRounds(ctx context.Context) ([]Round, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+roundColumns+` FROM rounds WHERE settled=false ORDER BY date, hour`)
	if err != nil {
		return nil, fmt.Errorf("query open rounds: %w", err)
	}
	defer rows.Close()

	var out []Round
	for rows.Next() {
		r, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// FindRoundByKey busca a rodada pela identidade (date, hour).
func (p *Postgres) FindRoundByKey(ctx context.Context, date string, hour int) (*Round, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+roundColumns+` FROM rounds WHERE date=$1 AND hour=$2`, date, hour)
	r, err := scanRound(row)
	if err == sql.ErrNoRows {
		return nil, ErrRoundNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query round by key: %w", err)
	}
	return r, nil
}

// CreateRound insere uma nova rodada. O índice único em (date, hour) faz
// do check-then-insert uma operação segura contra invocações duplicadas:
// a segunda inserção falha e é reportada como ErrRoundExists.
func (p *Postgres) CreateRound(ctx context.Context, r Round) (*Round, error) {
	row := p.db.QueryRowContext(ctx, `
		INSERT INTO rounds (date, hour, start_price, end_price, pot, jackpot, settled, winning_tier, is_rollover, rollover_amount)
		VALUES ($1,$2,$3,$4,$5,$6,false,$7,$8,$9)
		ON CONFLICT (date, hour) DO NOTHING
		RETURNING `+roundColumns,
		r.Date, r.Hour, r.StartPrice, r.EndPrice, r.Pot, r.Jackpot, r.WinningTier, r.IsRollover, r.RolloverAmount)
	created, err := scanRound(row)
	if err == sql.ErrNoRows {
		return nil, ErrRoundExists
	}
	if err != nil {
		return nil, fmt.Errorf("insert round: %w", err)
	}
	return created, nil
}

// ConditionalSettle é o ponto de linearização da liquidação: grava os
// campos terminais apenas se a rodada ainda estiver aberta. Retorna false
// quando outra invocação concorrente já liquidou (sucesso-no-op para o
// chamador, não erro).
func (p *Postgres) ConditionalSettle(ctx context.Context, roundID int64, s Settlement) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE rounds
		SET end_price=$1, winning_tier=$2, is_rollover=$3, settled=true
		WHERE id=$4 AND settled=false`,
		s.EndPrice, s.WinningTier, s.IsRollover, roundID)
	if err != nil {
		return false, fmt.Errorf("conditional settle: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// BetsByRound lista as apostas de uma rodada. Apostas só entram em rodada
// aberta, então após a liquidação a lista é imutável.
func (p *Postgres) BetsByRound(ctx context.Context, roundID int64) ([]Bet, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, round_id, wallet, tier, amount, claimed, created_at
		FROM bets WHERE round_id=$1 ORDER BY created_at`, roundID)
	if err != nil {
		return nil, fmt.Errorf("query bets: %w", err)
	}
	defer rows.Close()

	var out []Bet
	for rows.Next() {
		var b Bet
		if err := rows.Scan(&b.ID, &b.RoundID, &b.Wallet, &b.Tier, &b.Amount, &b.Claimed, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bet: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// LatestJackpot retorna o jackpot acumulado da rodada mais recente, para
// ser carregado para a próxima. ok=false numa instalação sem rodadas.
func (p *Postgres) LatestJackpot(ctx context.Context) (float64, bool, error) {
	var j float64
	err := p.db.QueryRowContext(ctx,
		`SELECT jackpot FROM rounds ORDER BY date DESC, hour DESC LIMIT 1`).Scan(&j)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query latest jackpot: %w", err)
	}
	return j, true, nil
}

// ReseedJackpot zera o pool de jackpot da rodada para o valor de replantio
// após um jackpot ser levado.
func (p *Postgres) ReseedJackpot(ctx context.Context, roundID int64, value float64) error {
	_, err := p.db.ExecContext(ctx, `UPDATE rounds SET jackpot=$1 WHERE id=$2`, value, roundID)
	if err != nil {
		return fmt.Errorf("reseed jackpot: %w", err)
	}
	return nil
}
