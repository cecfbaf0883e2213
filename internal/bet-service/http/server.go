package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/degenecho/price-game-platform/internal/bet-service/dto"
	"github.com/degenecho/price-game-platform/internal/bet-service/repo"
	"github.com/degenecho/price-game-platform/internal/settlement-service/tier"
	"github.com/degenecho/price-game-platform/pkg/contracts/events"
)

// BetRepo é o contrato de persistência que os handlers consomem.
type BetRepo interface {
	CurrentRound(ctx context.Context, date string, hour int) (*repo.OpenRound, error)
	PlaceBet(ctx context.Context, b *repo.Bet, jackpotContrib float64) (betID string, pot, jackpot float64, err error)
}

// Server expõe a API de apostas: entrada na rodada corrente e consulta da
// rodada aberta.
type Server struct {
	Log            *zap.Logger
	Repo           BetRepo
	JackpotContrib float64 // fração de cada aposta que vai pro jackpot
	Publ           interface {
		PublishBetPlaced(context.Context, events.BetPlaced) error
	}
	// Now é injetável nos testes; nil usa time.Now.
	Now func() time.Time
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/bets", s.placeBet)              // entra na rodada corrente
	r.Get("/v1/rounds/current", s.currentRound) // rodada aberta
	return r
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// placeBet registra uma aposta na rodada da hora corrente. A aposta é
// imutável depois de criada; pot e jackpot da rodada sobem na mesma
// transação.
func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	if req.Wallet == "" || req.Amount <= 0 || !tier.Valid(req.Tier) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	now := s.now().UTC()
	round, err := s.Repo.CurrentRound(r.Context(), now.Format("2006-01-02"), now.Hour())
	if err != nil {
		if errors.Is(err, repo.ErrNoOpenRound) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "no open round"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	betID, pot, jackpot, err := s.Repo.PlaceBet(r.Context(), &repo.Bet{
		RoundID: round.ID,
		Wallet:  req.Wallet,
		Tier:    req.Tier,
		Amount:  req.Amount,
	}, s.JackpotContrib)
	if err != nil {
		if errors.Is(err, repo.ErrRoundSettled) || errors.Is(err, repo.ErrNoOpenRound) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "round closed"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	// Publica evento bet_placed (melhor esforço)
	_ = s.Publ.PublishBetPlaced(r.Context(), events.BetPlaced{
		BetID:   betID,
		RoundID: round.ID,
		Wallet:  req.Wallet,
		Tier:    req.Tier,
		Amount:  req.Amount,
	})

	writeJSON(w, http.StatusOK, dto.PlaceBetResponse{
		BetID:   betID,
		RoundID: round.ID,
		Pot:     pot,
		Jackpot: jackpot,
	})
}

// currentRound retorna a rodada aberta da hora corrente.
func (s *Server) currentRound(w http.ResponseWriter, r *http.Request) {
	now := s.now().UTC()
	round, err := s.Repo.CurrentRound(r.Context(), now.Format("2006-01-02"), now.Hour())
	if err != nil {
		if errors.Is(err, repo.ErrNoOpenRound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no open round"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, dto.CurrentRoundResponse{
		RoundID:    round.ID,
		Date:       round.Date,
		Hour:       round.Hour,
		StartPrice: round.StartPrice,
		Pot:        round.Pot,
		Jackpot:    round.Jackpot,
		IsRollover: round.IsRollover,
	})
}
