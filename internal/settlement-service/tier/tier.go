package tier

// Tier é uma das cinco faixas de resultado de variação de preço.
type Tier string

const (
	BigPump   Tier = "bigpump"
	SmallPump Tier = "smallpump"
	Stagnate  Tier = "stagnate"
	SmallDump Tier = "smalldump"
	BigDump   Tier = "bigdump"
)

// All lista as faixas na ordem de avaliação.
var All = []Tier{BigPump, SmallPump, Stagnate, SmallDump, BigDump}

// Valid informa se s corresponde a uma faixa conhecida.
func Valid(s string) bool {
	for _, t := range All {
		if string(t) == s {
			return true
		}
	}
	return false
}

// Classifier mapeia a variação percentual de preço para uma faixa.
// StagnateHalfWidth é a meia-largura da faixa stagnate em pontos
// percentuais: stagnate cobre (-b, b) exclusivo nas bordas.
type Classifier struct {
	StagnateHalfWidth float64
}

func NewClassifier(halfWidth float64) Classifier {
	return Classifier{StagnateHalfWidth: halfWidth}
}

// Classify resolve a faixa vencedora para a variação pct.
// Com meia-largura menor que 0.5 existem intervalos sem cobertura
// (ex.: b=0.2 deixa [0.2, 0.5) descoberto); nesses casos retorna
// ok=false e a rodada vira rollover, comportamento intencional.
// O chamador garante que o preço inicial existe e é não-zero antes
// de calcular pct.
func (c Classifier) Classify(pct float64) (Tier, bool) {
	b := c.StagnateHalfWidth
	switch {
	case pct > 1.5:
		return BigPump, true
	case pct >= 0.5 && pct <= 1.5:
		return SmallPump, true
	case pct > -b && pct < b:
		return Stagnate, true
	case pct <= -0.5 && pct >= -1.5:
		return SmallDump, true
	case pct < -1.5:
		return BigDump, true
	}
	return "", false
}

// PctChange retorna a variação percentual entre dois preços.
func PctChange(start, end float64) float64 {
	return (end - start) / start * 100
}
