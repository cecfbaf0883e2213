package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/degenecho/price-game-platform/internal/settlement-service/engine"
)

// Server expõe o endpoint de disparo da liquidação. A autenticação é um
// bearer de segredo compartilhado, checado antes de qualquer efeito.
type Server struct {
	Log    *zap.Logger
	Engine *engine.Engine
	Secret string
}

func NewServer(log *zap.Logger, e *engine.Engine, secret string) *Server {
	return &Server{Log: log, Engine: e, Secret: secret}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/settle", s.settle) // disparo do passe de liquidação
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// settle roda um passe de liquidação e devolve o resultado por rodada.
// Erros parciais aparecem por rodada; só a falha da fonte de preço (ou da
// listagem de rodadas) derruba a invocação inteira.
func (s *Server) settle(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	res, err := s.Engine.Run(r.Context())
	if err != nil {
		s.Log.Error("settlement pass failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"ok":    false,
			"error": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"result": res,
	})
}

func (s *Server) authorized(r *http.Request) bool {
	if s.Secret == "" {
		return false // sem segredo configurado, nega tudo
	}
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.Secret)) == 1
}
