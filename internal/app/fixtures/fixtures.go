// Package fixtures seeds the demo data set: randomized experiments, the
// SPACE token summary with its price history, a synthetic transaction
// ledger and the static holder distribution. Everything here is mock
// data standing in for integrations that do not exist yet.
package fixtures

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/spacenexus/platform/internal/app/domain/experiment"
	"github.com/spacenexus/platform/internal/app/domain/token"
	tokensvc "github.com/spacenexus/platform/internal/app/services/token"
	"github.com/spacenexus/platform/internal/app/storage"
)

const day = 24 * time.Hour

// SeedExperiments inserts n randomized demo experiments.
func SeedExperiments(ctx context.Context, store storage.ExperimentStore, n int) error {
	now := time.Now()
	for i := 0; i < n; i++ {
		expType := experiment.Types[rand.Intn(len(experiment.Types))]
		exp := experiment.Experiment{
			Name:         fmt.Sprintf("%s Experiment %d", expType, i+1),
			Description:  fmt.Sprintf("This is a demonstration experiment for %s research.", expType),
			Type:         expType,
			IPFSDataHash: "ipfs://hash" + randomHex(20),
			Timestamp:    now.Add(-time.Duration(rand.Intn(30)) * day).UnixMilli(),
			Scientist:    randomAddress(),
			Verified:     rand.Intn(2) == 0,
		}
		if _, err := store.CreateExperiment(ctx, exp); err != nil {
			return fmt.Errorf("seed experiment %d: %w", i+1, err)
		}
	}
	return nil
}

// Token builds the immutable token fixture with txCount synthetic
// transactions.
func Token(txCount int) tokensvc.Fixture {
	now := time.Now()

	transactions := make([]token.Transaction, 0, txCount)
	for i := 0; i < txCount; i++ {
		txType := token.TxBuy
		if rand.Intn(2) == 0 {
			txType = token.TxSell
		}
		transactions = append(transactions, token.Transaction{
			ID:        fmt.Sprintf("tx-%d", i),
			From:      randomAddress(),
			To:        randomAddress(),
			Amount:    rand.Int63n(1_000_000),
			Timestamp: now.Add(-time.Duration(rand.Intn(30)) * day).UnixMilli(),
			Type:      txType,
		})
	}

	return tokensvc.Fixture{
		Info: token.Info{
			Name:         "Space Token",
			Symbol:       "SPACE",
			TotalSupply:  "1000000000",
			Decimals:     9,
			CurrentPrice: 0.00015,
			MarketCap:    150000,
			Volume24h:    25000,
			HoldersCount: 1250,
		},
		History: []token.PricePoint{
			{Timestamp: now.Add(-30 * day).UnixMilli(), Price: 0.00005},
			{Timestamp: now.Add(-20 * day).UnixMilli(), Price: 0.00008},
			{Timestamp: now.Add(-10 * day).UnixMilli(), Price: 0.00012},
			{Timestamp: now.UnixMilli(), Price: 0.00015},
		},
		Transactions: transactions,
		Distribution: []token.HolderBucket{
			{Range: "0-1000", Count: 800},
			{Range: "1000-10000", Count: 300},
			{Range: "10000-100000", Count: 120},
			{Range: "100000-1000000", Count: 25},
			{Range: "1000000+", Count: 5},
		},
	}
}

func randomAddress() string {
	return "0x" + randomHex(20)
}

func randomHex(n int) string {
	const digits = "0123456789abcdef"
	buf := make([]byte, 2*n)
	for i := range buf {
		buf[i] = digits[rand.Intn(len(digits))]
	}
	return string(buf)
}
