package events

// PriceTick é uma observação de preço publicada pelo price-ingest-service.
type PriceTick struct {
	Pair     string  `json:"pair"`
	Price    float64 `json:"price"`
	TsUnixMs int64   `json:"ts_unix_ms"`
}
