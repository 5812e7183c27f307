// Package tokensvc implements the SPACE token façade over immutable
// fixture data: the summary singleton, windowed price history, holder
// distribution and the synthetic transaction ledger.
package tokensvc

import (
	"errors"
	"fmt"
	"time"

	"github.com/spacenexus/platform/internal/app/domain/token"
	"github.com/spacenexus/platform/internal/app/query"
	"github.com/spacenexus/platform/pkg/logger"
)

// ErrInvalid marks client errors on token queries.
var ErrInvalid = errors.New("invalid token query")

// Fixture is the immutable data set the service answers from. It is
// generated once at process start; the service never mutates it.
type Fixture struct {
	Info         token.Info
	History      []token.PricePoint
	Transactions []token.Transaction
	Distribution []token.HolderBucket
}

// Service serves token data. All reads operate on the fixture snapshot,
// so no locking is required.
type Service struct {
	fixture Fixture
	log     *logger.Logger
	now     func() time.Time
}

// New constructs a token service over the fixture.
func New(fixture Fixture, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("token")
	}
	return &Service{fixture: fixture, log: log, now: time.Now}
}

// Info returns the token summary. Price history and holder distribution
// are excluded; they have endpoints of their own.
func (s *Service) Info() token.Info {
	return s.fixture.Info
}

// Price returns the current price and the history entries inside the
// requested window. Unrecognized or absent timeRange values fall back to
// the 30-day window.
func (s *Service) Price(timeRange string) (float64, []token.PricePoint) {
	window := query.Window(timeRange)
	now := s.now()
	history := query.Filter(s.fixture.History, func(p token.PricePoint) bool {
		return query.WithinWindow(p.Timestamp, now, window)
	})
	return s.fixture.Info.CurrentPrice, history
}

// Holders returns the holder count and the static distribution buckets.
func (s *Service) Holders() (int, []token.HolderBucket) {
	return s.fixture.Info.HoldersCount, s.fixture.Distribution
}

// Transactions returns one page of the ledger, always sorted newest
// first. An empty txType means no filter; anything other than buy or
// sell is a client error. The returned total is the filtered size.
func (s *Service) Transactions(txType string, limit, offset int) ([]token.Transaction, int, error) {
	filtered := s.fixture.Transactions
	if txType != "" {
		parsed, err := token.ParseTxType(txType)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %s", ErrInvalid, err)
		}
		filtered = query.Filter(filtered, func(tx token.Transaction) bool {
			return tx.Type == parsed
		})
	}

	sorted := query.SortByTimestampDesc(filtered, func(tx token.Transaction) int64 {
		return tx.Timestamp
	})
	return query.Paginate(sorted, limit, offset), len(sorted), nil
}
