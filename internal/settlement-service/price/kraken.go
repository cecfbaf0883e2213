package price

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// KrakenClient busca o preço corrente de um par no ticker REST público da
// Kraken. Uma falha aqui aborta a invocação de liquidação inteira, então o
// timeout é curto e explícito.
type KrakenClient struct {
	BaseURL string
	Pair    string // ex: "SOLUSD"
	HTTP    *http.Client
}

func NewKrakenClient(baseURL, pair string) *KrakenClient {
	return &KrakenClient{
		BaseURL: baseURL,
		Pair:    pair,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

// tickerResponse cobre só o que o settlement precisa do payload da Kraken:
// result.<PAIR>.c[0] é o preço do último trade.
type tickerResponse struct {
	Error  []string `json:"error"`
	Result map[string]struct {
		C []string `json:"c"`
	} `json:"result"`
}

// CurrentPrice retorna o preço do último trade do par configurado.
func (k *KrakenClient) CurrentPrice(ctx context.Context) (float64, error) {
	url := fmt.Sprintf("%s/0/public/Ticker?pair=%s", k.BaseURL, k.Pair)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := k.HTTP.Do(req)
	if err != nil {
		return 0, fmt.Errorf("kraken ticker: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("kraken ticker http %d", resp.StatusCode)
	}

	var out tickerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode ticker: %w", err)
	}
	if len(out.Error) > 0 {
		return 0, fmt.Errorf("kraken ticker: %s", out.Error[0])
	}

	// A Kraken responde com o nome canônico do par, que pode divergir do
	// solicitado (SOLUSD -> SOLUSD, XBTUSD -> XXBTZUSD); com um único par
	// na consulta, pega a única entrada.
	for _, t := range out.Result {
		if len(t.C) == 0 {
			break
		}
		p, err := strconv.ParseFloat(t.C[0], 64)
		if err != nil {
			return 0, fmt.Errorf("parse ticker price: %w", err)
		}
		if p <= 0 {
			return 0, fmt.Errorf("non-positive ticker price %v", p)
		}
		return p, nil
	}
	return 0, fmt.Errorf("kraken ticker: empty result for %s", k.Pair)
}
