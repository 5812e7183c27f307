// Package token defines the demo SPACE token summary and its synthetic
// transaction fixtures. None of the records are backed by a chain; the
// data stands in for a future on-chain integration.
package token

import "fmt"

// TxType classifies a transaction as a buy or a sell.
type TxType string

const (
	TxBuy  TxType = "buy"
	TxSell TxType = "sell"
)

// ParseTxType validates a raw transaction type string.
func ParseTxType(raw string) (TxType, error) {
	switch TxType(raw) {
	case TxBuy, TxSell:
		return TxType(raw), nil
	}
	return "", fmt.Errorf("invalid transaction type %q", raw)
}

// Info is the singleton token summary. TotalSupply is kept as the raw
// decimal string and never arithmetically normalised.
type Info struct {
	Name         string  `json:"name"`
	Symbol       string  `json:"symbol"`
	TotalSupply  string  `json:"totalSupply"`
	Decimals     int     `json:"decimals"`
	CurrentPrice float64 `json:"currentPrice"`
	MarketCap    float64 `json:"marketCap"`
	Volume24h    float64 `json:"volume24h"`
	HoldersCount int     `json:"holdersCount"`
}

// PricePoint is one entry of the chronological price history.
type PricePoint struct {
	// Timestamp is milliseconds since the Unix epoch.
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
}

// Transaction is one synthetic ledger entry. The set is generated once at
// process start and never mutated.
type Transaction struct {
	ID     string `json:"id"`
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
	// Timestamp is milliseconds since the Unix epoch.
	Timestamp int64  `json:"timestamp"`
	Type      TxType `json:"type"`
}

// HolderBucket is one range of the static holder distribution.
type HolderBucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}
