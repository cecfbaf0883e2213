package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/degenecho/price-game-platform/internal/settlement-service/payout"
	"github.com/degenecho/price-game-platform/internal/settlement-service/repo"
	"github.com/degenecho/price-game-platform/internal/settlement-service/streak"
	"github.com/degenecho/price-game-platform/internal/settlement-service/tier"
	"github.com/degenecho/price-game-platform/internal/shared/config"
	"github.com/degenecho/price-game-platform/pkg/contracts/events"
)

// PriceSource entrega o preço corrente. Falha aqui aborta o passe inteiro.
type PriceSource interface {
	CurrentPrice(ctx context.Context) (float64, error)
}

// RoundStore é o contrato de persistência de rodadas e apostas.
// ConditionalSettle é a única primitiva de exclusão mútua entre invocações
// concorrentes: grava os campos terminais apenas enquanto settled=false.
type RoundStore interface {
	FindOpenRounds(ctx context.Context) ([]repo.Round, error)
	FindRoundByKey(ctx context.Context, date string, hour int) (*repo.Round, error)
	CreateRound(ctx context.Context, r repo.Round) (*repo.Round, error)
	BetsByRound(ctx context.Context, roundID int64) ([]repo.Bet, error)
	ConditionalSettle(ctx context.Context, roundID int64, s repo.Settlement) (bool, error)
	LatestJackpot(ctx context.Context) (float64, bool, error)
	ReseedJackpot(ctx context.Context, roundID int64, value float64) error
}

// StreakStore registra o desfecho de cada aposta na sequência da carteira.
type StreakStore interface {
	RecordOutcome(ctx context.Context, wallet string, won bool, placedAt, roundStart time.Time, amount float64) (streak.Outcome, error)
}

// Publisher é o sink de notificações: melhor esforço, nunca propaga falha
// para a liquidação.
type Publisher interface {
	PublishRoundSettled(ctx context.Context, e events.RoundSettled) error
	PublishJackpotHit(ctx context.Context, e events.JackpotHit) error
}

// Status por rodada no resultado do passe.
const (
	StatusSettled  = "settled"  // liquidada com faixa vencedora
	StatusRollover = "rollover" // liquidada sem aposta vencedora ou sem faixa
	StatusDegraded = "degraded" // sem preço inicial: liquidação no-op
	StatusConflict = "conflict" // outra invocação liquidou primeiro (no-op)
	StatusOpen     = "open"     // rodada da hora corrente, nunca tocada
	StatusError    = "error"    // falha isolada desta rodada
)

// RoundResult descreve o que aconteceu com uma rodada candidata.
type RoundResult struct {
	RoundID    int64           `json:"round_id"`
	Date       string          `json:"date"`
	Hour       int             `json:"hour"`
	Status     string          `json:"status"`
	Tier       string          `json:"tier,omitempty"`
	PctChange  float64         `json:"pct_change"`
	Pot        float64         `json:"pot"`
	Payouts    []payout.Payout `json:"payouts,omitempty"`
	IsRollover bool            `json:"is_rollover"`
	Error      string          `json:"error,omitempty"`
}

// Result é o resumo estruturado de uma invocação do orquestrador.
type Result struct {
	Price           float64       `json:"price"`
	Rounds          []RoundResult `json:"rounds"`
	RolloverCarried float64       `json:"rollover_carried"`
	CurrentRoundID  int64         `json:"current_round_id"`
	CreatedRound    bool          `json:"created_round"`
}

// Engine é o orquestrador de liquidação: classifica o movimento de preço,
// calcula payouts, atualiza sequências/jackpot, decide rollover e cria a
// rodada corrente. Idempotente sob disparos repetidos, concorrentes ou
// fora de ordem do scheduler externo.
type Engine struct {
	Log        *zap.Logger
	Prices     PriceSource
	Rounds     RoundStore
	Streaks    StreakStore
	Publisher  Publisher
	Classifier tier.Classifier
	Calc       payout.Calculator
	Game       config.GameConfig

	// Now é injetável nos testes; nil usa time.Now.
	Now func() time.Time

	// Callbacks de métricas (counter++), ligadas no main.
	OnSettled  func()
	OnRollover func()
	OnConflict func()
	OnJackpot  func()

	// Estado SETTLING transitório: trava local por rodada, não persistida.
	// Impede que duas invocações concorrentes no mesmo processo disputem a
	// mesma rodada antes do ConditionalSettle decidir.
	mu       sync.Mutex
	settling map[int64]struct{}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// tryAcquire marca a rodada como SETTLING nesta instância.
func (e *Engine) tryAcquire(roundID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.settling == nil {
		e.settling = make(map[int64]struct{})
	}
	if _, busy := e.settling[roundID]; busy {
		return false
	}
	e.settling[roundID] = struct{}{}
	return true
}

func (e *Engine) release(roundID int64) {
	e.mu.Lock()
	delete(e.settling, roundID)
	e.mu.Unlock()
}

// Run executa um passe de liquidação: uma única leitura de preço, todas as
// rodadas candidatas liquidadas contra esse preço, e por fim a garantia de
// que a rodada da hora corrente existe. Re-invocar com tudo liquidado é
// no-op além do ensure-current-round.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	now := e.now().UTC()
	currentDate := now.Format("2006-01-02")
	currentHour := now.Hour()

	currentPrice, err := e.Prices.CurrentPrice(ctx)
	if err != nil {
		// falha transiente de preço: aborta sem tocar estado
		return nil, fmt.Errorf("fetch current price: %w", err)
	}

	open, err := e.Rounds.FindOpenRounds(ctx)
	if err != nil {
		return nil, fmt.Errorf("find open rounds: %w", err)
	}

	res := &Result{Price: currentPrice}
	var carry float64
	jackpotHit := false

	for _, r := range open {
		// a rodada aberta da hora corrente nunca é liquidada por este passe
		if r.Date == currentDate && r.Hour == currentHour {
			res.Rounds = append(res.Rounds, RoundResult{
				RoundID: r.ID, Date: r.Date, Hour: r.Hour, Status: StatusOpen, Pot: r.Pot,
			})
			continue
		}

		if !e.tryAcquire(r.ID) {
			res.Rounds = append(res.Rounds, RoundResult{
				RoundID: r.ID, Date: r.Date, Hour: r.Hour, Status: StatusConflict, Pot: r.Pot,
			})
			continue
		}
		rr, hit := e.settleRound(ctx, r, currentPrice)
		e.release(r.ID)

		if rr.IsRollover && rr.Status != StatusConflict {
			if e.Game.AccumulateRollovers {
				carry += r.Pot
			} else {
				carry = r.Pot // política alternativa: só a rodada mais recente
			}
		}
		jackpotHit = jackpotHit || hit
		res.Rounds = append(res.Rounds, rr)
	}

	cur, created, err := e.ensureCurrentRound(ctx, currentDate, currentHour, currentPrice, carry, jackpotHit)
	if err != nil {
		return res, fmt.Errorf("ensure current round: %w", err)
	}
	res.RolloverCarried = carry
	res.CurrentRoundID = cur.ID
	res.CreatedRound = created
	return res, nil
}

// settleRound liquida uma rodada candidata. Retorna o resultado e se um
// jackpot foi levado nesta rodada.
func (e *Engine) settleRound(ctx context.Context, r repo.Round, currentPrice float64) (RoundResult, bool) {
	rr := RoundResult{RoundID: r.ID, Date: r.Date, Hour: r.Hour, Pot: r.Pot}

	// pré-condição ausente: sem preço inicial não há o que classificar;
	// caminho degradado definido, não erro
	if r.StartPrice == nil || *r.StartPrice == 0 {
		ok, err := e.Rounds.ConditionalSettle(ctx, r.ID, repo.Settlement{
			EndPrice: currentPrice, WinningTier: nil, IsRollover: true,
		})
		if err != nil {
			rr.Status, rr.Error = StatusError, err.Error()
			return rr, false
		}
		if !ok {
			rr.Status = StatusConflict
			return rr, false
		}
		rr.Status, rr.IsRollover = StatusDegraded, true
		e.Log.Info("round settled without start price",
			zap.Int64("roundId", r.ID), zap.String("date", r.Date), zap.Int("hour", r.Hour))
		e.countRollover()
		e.publishSummary(ctx, r, rr, currentPrice)
		return rr, false
	}

	pct := tier.PctChange(*r.StartPrice, currentPrice)
	rr.PctChange = pct

	winning, matched := e.Classifier.Classify(pct)
	if !matched {
		// intervalo descoberto entre faixas: rollover por construção
		ok, err := e.Rounds.ConditionalSettle(ctx, r.ID, repo.Settlement{
			EndPrice: currentPrice, WinningTier: nil, IsRollover: true,
		})
		if err != nil {
			rr.Status, rr.Error = StatusError, err.Error()
			return rr, false
		}
		if !ok {
			rr.Status = StatusConflict
			return rr, false
		}
		rr.Status, rr.IsRollover = StatusRollover, true
		e.countRollover()
		e.publishSummary(ctx, r, rr, currentPrice)
		return rr, false
	}
	rr.Tier = string(winning)

	roundStart, err := r.StartTime()
	if err != nil {
		rr.Status, rr.Error = StatusError, fmt.Sprintf("round start time: %v", err)
		return rr, false
	}

	bets, err := e.Rounds.BetsByRound(ctx, r.ID)
	if err != nil {
		rr.Status, rr.Error = StatusError, err.Error()
		return rr, false
	}

	var winningBets []payout.Bet
	for _, b := range bets {
		if b.Tier == string(winning) {
			winningBets = append(winningBets, payout.Bet{Wallet: b.Wallet, Amount: b.Amount, PlacedAt: b.CreatedAt})
		}
	}
	payouts, pool, rollover := e.Calc.Compute(winningBets, r.Pot, roundStart)

	// ponto de linearização: só uma invocação concorrente atravessa
	winningTier := string(winning)
	ok, err := e.Rounds.ConditionalSettle(ctx, r.ID, repo.Settlement{
		EndPrice: currentPrice, WinningTier: &winningTier, IsRollover: rollover,
	})
	if err != nil {
		rr.Status, rr.Error = StatusError, err.Error()
		return rr, false
	}
	if !ok {
		// conflito de idempotência: outra invocação já liquidou; nenhum
		// payout deste cálculo é emitido
		rr.Status = StatusConflict
		e.countConflict()
		return rr, false
	}

	rr.Payouts = payouts
	rr.IsRollover = rollover
	if rollover {
		rr.Status = StatusRollover
		e.countRollover()
	} else {
		rr.Status = StatusSettled
		e.countSettled()
	}

	e.Log.Info("round settled",
		zap.Int64("roundId", r.ID),
		zap.String("tier", rr.Tier),
		zap.Float64("pctChange", pct),
		zap.Float64("pot", r.Pot),
		zap.Float64("pool", pool),
		zap.Int("winners", len(payouts)),
		zap.Bool("rollover", rollover))

	// sequências: todo participante da rodada tem seu desfecho registrado,
	// vencedores e perdedores; falha aqui é isolada por aposta
	hit := e.updateStreaks(ctx, r, bets, winningTier, roundStart)

	e.publishSummary(ctx, r, rr, currentPrice)
	return rr, hit
}

// updateStreaks registra o desfecho de cada aposta e dispara o jackpot
// quando uma carteira fecha a sequência. Retorna se houve jackpot.
func (e *Engine) updateStreaks(ctx context.Context, r repo.Round, bets []repo.Bet, winningTier string, roundStart time.Time) bool {
	hit := false
	for _, b := range bets {
		won := b.Tier == winningTier
		out, err := e.Streaks.RecordOutcome(ctx, b.Wallet, won, b.CreatedAt, roundStart, b.Amount)
		if err != nil {
			e.Log.Error("streak update failed",
				zap.String("wallet", b.Wallet), zap.Int64("roundId", r.ID), zap.Error(err))
			continue
		}
		if !out.JackpotTriggered {
			continue
		}

		hit = true
		if e.OnJackpot != nil {
			e.OnJackpot()
		}
		e.Log.Info("jackpot hit",
			zap.String("wallet", b.Wallet), zap.Int64("roundId", r.ID), zap.Float64("jackpot", r.Jackpot))

		if err := e.Rounds.ReseedJackpot(ctx, r.ID, e.Game.JackpotReseed); err != nil {
			e.Log.Error("jackpot reseed failed", zap.Int64("roundId", r.ID), zap.Error(err))
		}
		if err := e.Publisher.PublishJackpotHit(ctx, events.JackpotHit{
			RoundID:  r.ID,
			Wallet:   b.Wallet,
			Streak:   e.Game.JackpotStreak,
			Jackpot:  r.Jackpot,
			TsUnixMs: e.now().UnixMilli(),
		}); err != nil {
			// melhor esforço: a liquidação já está comprometida
			e.Log.Warn("publish jackpot_hit failed", zap.Error(err))
		}
	}
	return hit
}

// publishSummary emite o resumo da rodada para o sink de notificações.
// Melhor esforço: falha é logada e nunca desfaz a liquidação.
func (e *Engine) publishSummary(ctx context.Context, r repo.Round, rr RoundResult, endPrice float64) {
	lines := make([]events.PayoutLine, 0, len(rr.Payouts))
	for _, p := range rr.Payouts {
		lines = append(lines, events.PayoutLine{
			Wallet:           p.Wallet,
			Amount:           p.Amount,
			Multiplier:       p.Multiplier,
			MinutesIntoRound: p.MinutesIntoRound,
		})
	}
	err := e.Publisher.PublishRoundSettled(ctx, events.RoundSettled{
		RoundID:     r.ID,
		Date:        r.Date,
		Hour:        r.Hour,
		WinningTier: rr.Tier,
		PctChange:   rr.PctChange,
		EndPrice:    endPrice,
		Pot:         r.Pot,
		IsRollover:  rr.IsRollover,
		Payouts:     lines,
		TsUnixMs:    e.now().UnixMilli(),
	})
	if err != nil {
		e.Log.Warn("publish round_settled failed", zap.Int64("roundId", r.ID), zap.Error(err))
	}
}

// ensureCurrentRound garante a rodada da hora corrente, criando-a com o
// preço observado neste passe e o pot carregado dos rollovers. O insert é
// guardado por existence-check-then-insert (índice único em (date,hour)):
// invocação concorrente que crie primeiro vence e a nossa vira leitura.
func (e *Engine) ensureCurrentRound(ctx context.Context, date string, hour int, currentPrice, carry float64, jackpotHit bool) (*repo.Round, bool, error) {
	existing, err := e.Rounds.FindRoundByKey(ctx, date, hour)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repo.ErrRoundNotFound) {
		return nil, false, err
	}

	jackpot := e.Game.JackpotSeed
	if jackpotHit {
		jackpot = e.Game.JackpotReseed
	} else if j, ok, jerr := e.Rounds.LatestJackpot(ctx); jerr != nil {
		return nil, false, jerr
	} else if ok {
		jackpot = j
	}

	created, err := e.Rounds.CreateRound(ctx, repo.Round{
		Date:           date,
		Hour:           hour,
		StartPrice:     &currentPrice,
		Pot:            carry,
		Jackpot:        jackpot,
		RolloverAmount: carry,
	})
	if errors.Is(err, repo.ErrRoundExists) {
		// outra invocação criou no meio do caminho: no-op
		existing, ferr := e.Rounds.FindRoundByKey(ctx, date, hour)
		if ferr != nil {
			return nil, false, ferr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	e.Log.Info("current round created",
		zap.Int64("roundId", created.ID),
		zap.String("date", date), zap.Int("hour", hour),
		zap.Float64("startPrice", currentPrice),
		zap.Float64("carriedPot", carry),
		zap.Float64("jackpot", jackpot))
	return created, true, nil
}

func (e *Engine) countSettled() {
	if e.OnSettled != nil {
		e.OnSettled()
	}
}

func (e *Engine) countRollover() {
	if e.OnRollover != nil {
		e.OnRollover()
	}
}

func (e *Engine) countConflict() {
	if e.OnConflict != nil {
		e.OnConflict()
	}
}
