package dto

type PlaceBetRequest struct {
	Wallet string  `json:"wallet"`
	Tier   string  `json:"tier"`
	Amount float64 `json:"amount"`
}
