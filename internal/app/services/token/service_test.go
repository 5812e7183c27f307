package tokensvc

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacenexus/platform/internal/app/domain/token"
)

func testFixture(now time.Time) Fixture {
	ms := func(d time.Duration) int64 { return now.Add(-d).UnixMilli() }
	return Fixture{
		Info: token.Info{
			Name:         "Space Token",
			Symbol:       "SPACE",
			TotalSupply:  "1000000000",
			Decimals:     9,
			CurrentPrice: 0.00015,
			HoldersCount: 1250,
		},
		History: []token.PricePoint{
			{Timestamp: ms(30 * 24 * time.Hour), Price: 0.0001},
			{Timestamp: ms(7 * 24 * time.Hour), Price: 0.00012},
			{Timestamp: ms(12 * time.Hour), Price: 0.00014},
			{Timestamp: ms(0), Price: 0.00015},
		},
		Transactions: []token.Transaction{
			{ID: "tx-1", Amount: 100, Timestamp: ms(48 * time.Hour), Type: token.TxBuy},
			{ID: "tx-2", Amount: 200, Timestamp: ms(24 * time.Hour), Type: token.TxSell},
			{ID: "tx-3", Amount: 300, Timestamp: ms(time.Hour), Type: token.TxBuy},
		},
		Distribution: []token.HolderBucket{
			{Range: "0-1000", Count: 800},
		},
	}
}

func newTestService(t *testing.T) (*Service, time.Time) {
	t.Helper()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := New(testFixture(now), nil)
	svc.now = func() time.Time { return now }
	return svc, now
}

func TestInfo(t *testing.T) {
	svc, _ := newTestService(t)

	info := svc.Info()
	assert.Equal(t, "SPACE", info.Symbol)
	assert.Equal(t, "1000000000", info.TotalSupply)
	assert.Equal(t, 0.00015, info.CurrentPrice)
}

func TestPriceWindows(t *testing.T) {
	svc, _ := newTestService(t)

	price, history := svc.Price("24h")
	assert.Equal(t, 0.00015, price)
	require.Len(t, history, 2)
	for _, p := range history {
		assert.GreaterOrEqual(t, p.Price, 0.00014)
	}

	_, history = svc.Price("7d")
	assert.Len(t, history, 3)

	_, history = svc.Price("30d")
	assert.Len(t, history, 4)
}

func TestPriceUnknownRangeFallsBackTo30Days(t *testing.T) {
	svc, _ := newTestService(t)

	_, byDefault := svc.Price("")
	_, byUnknown := svc.Price("1y")
	_, by30d := svc.Price("30d")

	assert.Equal(t, by30d, byDefault)
	assert.Equal(t, by30d, byUnknown)
}

func TestHolders(t *testing.T) {
	svc, _ := newTestService(t)

	count, distribution := svc.Holders()
	assert.Equal(t, 1250, count)
	require.Len(t, distribution, 1)
	assert.Equal(t, "0-1000", distribution[0].Range)
}

func TestTransactionsSortedNewestFirst(t *testing.T) {
	svc, _ := newTestService(t)

	txs, total, err := svc.Transactions("", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, txs, 3)
	assert.Equal(t, "tx-3", txs[0].ID)
	assert.Equal(t, "tx-2", txs[1].ID)
	assert.Equal(t, "tx-1", txs[2].ID)
}

func TestTransactionsTypeFilter(t *testing.T) {
	svc, _ := newTestService(t)

	buys, total, err := svc.Transactions("buy", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, tx := range buys {
		assert.Equal(t, token.TxBuy, tx.Type)
	}

	sells, total, err := svc.Transactions("sell", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, sells, 1)
	assert.Equal(t, "tx-2", sells[0].ID)
}

func TestTransactionsInvalidType(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.Transactions("transfer", 10, 0)
	assert.True(t, errors.Is(err, ErrInvalid), "want ErrInvalid, got %v", err)
}

func TestTransactionsPagination(t *testing.T) {
	svc, _ := newTestService(t)

	page, total, err := svc.Transactions("", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "tx-3", page[0].ID)

	rest, total, err := svc.Transactions("", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, rest, 1)
	assert.Equal(t, "tx-1", rest[0].ID)

	beyond, _, err := svc.Transactions("", 2, 10)
	require.NoError(t, err)
	assert.Empty(t, beyond)
}
