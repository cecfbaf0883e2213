package repo

import "time"

// Round é uma janela de apostas de uma hora, identificada por (date, hour).
// StartPrice fica nulo até a primeira observação de preço; EndPrice e
// WinningTier só existem após a liquidação. Settled transiciona uma única
// vez de false para true.
type Round struct {
	ID             int64
	Date           string // "2006-01-02"
	Hour           int    // 0..23
	StartPrice     *float64
	EndPrice       *float64
	Pot            float64
	Jackpot        float64
	Settled        bool
	WinningTier    *string
	IsRollover     bool
	RolloverAmount float64
	CreatedAt      time.Time
}

// StartTime resolve o instante de abertura da rodada em UTC.
func (r Round) StartTime() (time.Time, error) {
	d, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return time.Time{}, err
	}
	return d.Add(time.Duration(r.Hour) * time.Hour), nil
}

// Bet é a aposta de um participante em uma rodada. Imutável após criada.
type Bet struct {
	ID        string
	RoundID   int64
	Wallet    string
	Tier      string
	Amount    float64
	Claimed   bool
	CreatedAt time.Time
}

// Settlement são os campos gravados no ponto de linearização da liquidação.
type Settlement struct {
	EndPrice    float64
	WinningTier *string // nil quando rollover sem faixa vencedora
	IsRollover  bool
}
