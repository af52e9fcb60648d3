package model

// SwapRecord describes one executed, non-zero swap for slippage analysis.
type SwapRecord struct {
	Step             int       `json:"step"`
	Trader           string    `json:"trader"`
	Direction        Direction `json:"direction"`
	AmountIn         string    `json:"amount_in"`
	AmountOut        string    `json:"amount_out"`
	TradeLotFraction float64   `json:"trade_lot_fraction"`
	Slippage         float64   `json:"slippage"`
}
