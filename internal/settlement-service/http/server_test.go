package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/degenecho/price-game-platform/internal/settlement-service/engine"
	"github.com/degenecho/price-game-platform/internal/settlement-service/payout"
	"github.com/degenecho/price-game-platform/internal/settlement-service/repo"
	"github.com/degenecho/price-game-platform/internal/settlement-service/streak"
	"github.com/degenecho/price-game-platform/internal/shared/config"
	"github.com/degenecho/price-game-platform/pkg/contracts/events"
)

type stubPrice struct {
	price float64
	err   error
	calls int
}

func (s *stubPrice) CurrentPrice(ctx context.Context) (float64, error) {
	s.calls++
	return s.price, s.err
}

// stubRounds simula uma instalação onde a rodada corrente já existe:
// nenhuma rodada a liquidar, nenhuma a criar.
type stubRounds struct{ current repo.Round }

func (s *stubRounds) FindOpenRounds(ctx context.Context) ([]repo.Round, error) { return nil, nil }
func (s *stubRounds) FindRoundByKey(ctx context.Context, date string, hour int) (*repo.Round, error) {
	cp := s.current
	return &cp, nil
}
func (s *stubRounds) CreateRound(ctx context.Context, r repo.Round) (*repo.Round, error) {
	return nil, repo.ErrRoundExists
}
func (s *stubRounds) BetsByRound(ctx context.Context, roundID int64) ([]repo.Bet, error) {
	return nil, nil
}
func (s *stubRounds) ConditionalSettle(ctx context.Context, roundID int64, st repo.Settlement) (bool, error) {
	return false, nil
}
func (s *stubRounds) LatestJackpot(ctx context.Context) (float64, bool, error) {
	return 0, false, nil
}
func (s *stubRounds) ReseedJackpot(ctx context.Context, roundID int64, value float64) error {
	return nil
}

type stubStreaks struct{}

func (stubStreaks) RecordOutcome(ctx context.Context, wallet string, won bool, placedAt, roundStart time.Time, amount float64) (streak.Outcome, error) {
	return streak.Outcome{Wallet: wallet}, nil
}

type stubPublisher struct{}

func (stubPublisher) PublishRoundSettled(ctx context.Context, e events.RoundSettled) error {
	return nil
}
func (stubPublisher) PublishJackpotHit(ctx context.Context, e events.JackpotHit) error { return nil }

func newTestServer(prices *stubPrice, secret string) *Server {
	eng := &engine.Engine{
		Log:       zap.NewNop(),
		Prices:    prices,
		Rounds:    &stubRounds{current: repo.Round{ID: 7, Date: "2025-03-10", Hour: 14}},
		Streaks:   stubStreaks{},
		Publisher: stubPublisher{},
		Calc:      payout.NewCalculator(1100, true),
		Game:      config.GameConfig{JackpotSeed: 20.0},
	}
	return NewServer(zap.NewNop(), eng, secret)
}

func TestSettleRejectsMissingOrWrongBearer(t *testing.T) {
	cases := []struct {
		name string
		auth string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic s3cret"},
		{"wrong token", "Bearer nope"},
		{"empty token", "Bearer "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prices := &stubPrice{price: 100.0}
			srv := newTestServer(prices, "s3cret")

			req := httptest.NewRequest(http.MethodPost, "/v1/settle", nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			// a checagem vem antes de qualquer efeito
			if prices.calls != 0 {
				t.Fatal("engine must not run for unauthorized requests")
			}
		})
	}
}

// Segredo não configurado nega tudo, inclusive o token vazio.
func TestSettleDeniesAllWithoutConfiguredSecret(t *testing.T) {
	prices := &stubPrice{price: 100.0}
	srv := newTestServer(prices, "")

	req := httptest.NewRequest(http.MethodPost, "/v1/settle", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if prices.calls != 0 {
		t.Fatal("engine must not run")
	}
}

func TestSettleRunsPassWithValidBearer(t *testing.T) {
	prices := &stubPrice{price: 123.45}
	srv := newTestServer(prices, "s3cret")

	req := httptest.NewRequest(http.MethodPost, "/v1/settle", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		OK     bool           `json:"ok"`
		Result *engine.Result `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.OK || body.Result == nil {
		t.Fatalf("body = %+v", body)
	}
	if body.Result.Price != 123.45 || body.Result.CurrentRoundID != 7 {
		t.Fatalf("result = %+v", body.Result)
	}
	if prices.calls != 1 {
		t.Fatalf("price calls = %d, want 1", prices.calls)
	}
}

func TestSettleReportsPassFailure(t *testing.T) {
	prices := &stubPrice{err: errors.New("price feed down")}
	srv := newTestServer(prices, "s3cret")

	req := httptest.NewRequest(http.MethodPost, "/v1/settle", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	var body struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.OK || body.Error == "" {
		t.Fatalf("body = %+v", body)
	}
}
