package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/degenecho/price-game-platform/internal/bet-service/dto"
	"github.com/degenecho/price-game-platform/internal/bet-service/repo"
	"github.com/degenecho/price-game-platform/pkg/contracts/events"
)

type fakeRepo struct {
	round    *repo.OpenRound
	roundErr error
	betErr   error
	placed   []repo.Bet
	contrib  float64
	pot      float64
	jackpot  float64
}

func (f *fakeRepo) CurrentRound(ctx context.Context, date string, hour int) (*repo.OpenRound, error) {
	if f.roundErr != nil {
		return nil, f.roundErr
	}
	return f.round, nil
}

func (f *fakeRepo) PlaceBet(ctx context.Context, b *repo.Bet, jackpotContrib float64) (string, float64, float64, error) {
	if f.betErr != nil {
		return "", 0, 0, f.betErr
	}
	f.placed = append(f.placed, *b)
	f.contrib = jackpotContrib
	f.pot += b.Amount
	f.jackpot += b.Amount * jackpotContrib
	return "bet-1", f.pot, f.jackpot, nil
}

type capturePublisher struct{ events []events.BetPlaced }

func (c *capturePublisher) PublishBetPlaced(ctx context.Context, e events.BetPlaced) error {
	c.events = append(c.events, e)
	return nil
}

func betNow() time.Time { return time.Date(2025, 3, 10, 14, 5, 0, 0, time.UTC) }

func openRound() *repo.OpenRound {
	start := 100.0
	return &repo.OpenRound{
		ID: 7, Date: "2025-03-10", Hour: 14,
		StartPrice: &start, Pot: 3.0, Jackpot: 20.5,
	}
}

func newBetServer(r *fakeRepo, pub *capturePublisher) *Server {
	return &Server{
		Log:            zap.NewNop(),
		Repo:           r,
		JackpotContrib: 0.01,
		Publ:           pub,
		Now:            betNow,
	}
}

func postBet(t *testing.T, srv *Server, payload string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/bets", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestPlaceBet(t *testing.T) {
	fr := &fakeRepo{round: openRound()}
	pub := &capturePublisher{}
	srv := newBetServer(fr, pub)

	rec := postBet(t, srv, `{"wallet":"abc","tier":"smallpump","amount":2.5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp dto.PlaceBetResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.BetID != "bet-1" || resp.RoundID != 7 {
		t.Fatalf("resp = %+v", resp)
	}

	if len(fr.placed) != 1 {
		t.Fatalf("placed = %d, want 1", len(fr.placed))
	}
	b := fr.placed[0]
	if b.RoundID != 7 || b.Wallet != "abc" || b.Tier != "smallpump" || b.Amount != 2.5 {
		t.Fatalf("bet = %+v", b)
	}
	if fr.contrib != 0.01 {
		t.Fatalf("jackpot contrib = %v, want 0.01", fr.contrib)
	}

	if len(pub.events) != 1 || pub.events[0].BetID != "bet-1" || pub.events[0].Wallet != "abc" {
		t.Fatalf("published = %+v", pub.events)
	}
}

func TestPlaceBetRejectsInvalidPayload(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"bad json", `{`},
		{"missing wallet", `{"tier":"smallpump","amount":1}`},
		{"unknown tier", `{"wallet":"abc","tier":"moonshot","amount":1}`},
		{"zero amount", `{"wallet":"abc","tier":"smallpump","amount":0}`},
		{"negative amount", `{"wallet":"abc","tier":"smallpump","amount":-1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fr := &fakeRepo{round: openRound()}
			srv := newBetServer(fr, &capturePublisher{})

			rec := postBet(t, srv, tc.payload)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if len(fr.placed) != 0 {
				t.Fatal("invalid payload must not reach the repo")
			}
		})
	}
}

func TestPlaceBetWithoutOpenRound(t *testing.T) {
	fr := &fakeRepo{roundErr: repo.ErrNoOpenRound}
	srv := newBetServer(fr, &capturePublisher{})

	rec := postBet(t, srv, `{"wallet":"abc","tier":"smallpump","amount":1}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

// A rodada fecha entre a consulta e o insert: o lock transacional devolve
// ErrRoundSettled e a API responde conflito.
func TestPlaceBetRoundSettledRace(t *testing.T) {
	fr := &fakeRepo{round: openRound(), betErr: repo.ErrRoundSettled}
	pub := &capturePublisher{}
	srv := newBetServer(fr, pub)

	rec := postBet(t, srv, `{"wallet":"abc","tier":"smallpump","amount":1}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if len(pub.events) != 0 {
		t.Fatal("no event for a rejected bet")
	}
}

func TestCurrentRound(t *testing.T) {
	fr := &fakeRepo{round: openRound()}
	srv := newBetServer(fr, &capturePublisher{})

	req := httptest.NewRequest(http.MethodGet, "/v1/rounds/current", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp dto.CurrentRoundResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.RoundID != 7 || resp.Hour != 14 || resp.Jackpot != 20.5 || *resp.StartPrice != 100.0 {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestCurrentRoundNotFound(t *testing.T) {
	fr := &fakeRepo{roundErr: repo.ErrNoOpenRound}
	srv := newBetServer(fr, &capturePublisher{})

	req := httptest.NewRequest(http.MethodGet, "/v1/rounds/current", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
