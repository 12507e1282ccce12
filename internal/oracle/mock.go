package oracle

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MockFeed is a settable price feed for tests. SetPrice advances the round
// and stamps updatedAt; SetUpdatedAt overrides the timestamp to simulate a
// stale feed.
type MockFeed struct {
	mu    sync.Mutex
	name  string
	round RoundData
}

// NewMockFeed creates a mock feed with an initial price stamped at now.
func NewMockFeed(name string, price decimal.Decimal) *MockFeed {
	now := time.Now().UTC()
	return &MockFeed{
		name: name,
		round: RoundData{
			RoundID:         1,
			Price:           price,
			StartedAt:       now,
			UpdatedAt:       now,
			AnsweredInRound: 1,
		},
	}
}

func (f *MockFeed) Description() string { return f.name }

func (f *MockFeed) LatestRound(_ context.Context) (RoundData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.round.RoundID == 0 {
		return RoundData{}, ErrNoRound
	}
	return f.round, nil
}

// SetPrice publishes a new round with the given price.
func (f *MockFeed) SetPrice(price decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	f.round.RoundID++
	f.round.Price = price
	f.round.StartedAt = now
	f.round.UpdatedAt = now
	f.round.AnsweredInRound = f.round.RoundID
}

// SetUpdatedAt overrides the last round's timestamp.
func (f *MockFeed) SetUpdatedAt(ts time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.round.UpdatedAt = ts
}
