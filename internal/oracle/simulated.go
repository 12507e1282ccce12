package oracle

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// SimulatedFeed is a random-walk price feed for development deployments
// where no external provider is configured. Each Tick multiplies the price
// by (1 + drift ± volatility).
type SimulatedFeed struct {
	mu         sync.Mutex
	name       string
	round      RoundData
	drift      float64
	volatility float64
	rng        *rand.Rand
}

// NewSimulatedFeed creates a simulated feed starting at price.
// Typical values: drift 0, volatility 0.01 (±1% per tick).
func NewSimulatedFeed(name string, price decimal.Decimal, drift, volatility float64, seed int64) *SimulatedFeed {
	now := time.Now().UTC()
	return &SimulatedFeed{
		name:       name,
		drift:      drift,
		volatility: volatility,
		rng:        rand.New(rand.NewSource(seed)),
		round: RoundData{
			RoundID:         1,
			Price:           price,
			StartedAt:       now,
			UpdatedAt:       now,
			AnsweredInRound: 1,
		},
	}
}

func (f *SimulatedFeed) Description() string { return f.name }

func (f *SimulatedFeed) LatestRound(_ context.Context) (RoundData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.round, nil
}

// Tick advances the random walk one step and publishes a new round.
func (f *SimulatedFeed) Tick() decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()

	step := f.drift + (f.rng.Float64()*2-1)*f.volatility
	factor := decimal.NewFromFloat(1 + step)
	price := f.round.Price.Mul(factor).Round(8)
	// Price floor so a long losing streak cannot zero the feed.
	if floor := decimal.NewFromFloat(0.00000001); price.LessThan(floor) {
		price = floor
	}

	now := time.Now().UTC()
	f.round.RoundID++
	f.round.Price = price
	f.round.StartedAt = now
	f.round.UpdatedAt = now
	f.round.AnsweredInRound = f.round.RoundID
	return price
}
