// Package registry maintains the symbol arena: a growable ordered
// sequence of symbol records plus a name-to-index lookup. Ids are dense
// integers assigned in creation order starting at 1. Symbols are never
// deleted, only deactivated.
package registry

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/sha3"

	"github.com/synthx/elastic-engine/internal/model"
	"github.com/synthx/elastic-engine/internal/oracle"
)

var (
	// ErrDuplicateSymbol is returned when adding a name that already exists.
	ErrDuplicateSymbol = errors.New("registry: symbol already exists")

	// ErrNotFound is returned for unknown ids or names.
	ErrNotFound = errors.New("registry: symbol not found")

	// ErrInvalidName is returned when a feed description is not a usable
	// symbol name.
	ErrInvalidName = errors.New("registry: invalid symbol name")
)

// nameRegex matches short uppercase tickers like "BTC" or "SOL2".
var nameRegex = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,11}$`)

// entry pairs a symbol record with its price feed handle.
type entry struct {
	symbol *model.Symbol
	feed   oracle.PriceFeed
}

// Registry is the symbol arena. It is not goroutine-safe; the ledger
// engine serializes access under its guard lock.
type Registry struct {
	entries []entry
	byName  map[string]int // name → arena index
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{byName: make(map[string]int)}
}

// HashName returns the Keccak-256 hash of a symbol name.
func HashName(name string) model.Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(name))
	var out model.Hash
	h.Sum(out[:0])
	return out
}

// Add registers a new symbol for the feed. The name comes from the feed
// description; the initial price and timestamp come from the caller's
// first oracle read. Returns the new record.
func (r *Registry) Add(feed oracle.PriceFeed, price decimal.Decimal, ts time.Time) (*model.Symbol, error) {
	name := feed.Description()
	if !nameRegex.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if _, exists := r.byName[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSymbol, name)
	}

	sym := &model.Symbol{
		ID:                 uint32(len(r.entries) + 1),
		Name:               name,
		NameHash:           HashName(name),
		Active:             true,
		LastPrice:          price,
		LastPriceTimestamp: ts,
		ReserveBalance:     decimal.Zero,
		TotalSupply:        decimal.Zero,
	}
	r.entries = append(r.entries, entry{symbol: sym, feed: feed})
	r.byName[name] = len(r.entries) - 1
	return sym, nil
}

// Deactivate marks a symbol inactive. Balances and reserve are kept.
func (r *Registry) Deactivate(id uint32) error {
	sym, err := r.ByID(id)
	if err != nil {
		return err
	}
	sym.Active = false
	return nil
}

// ByID returns the symbol record for an id.
func (r *Registry) ByID(id uint32) (*model.Symbol, error) {
	if id < 1 || int(id) > len(r.entries) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return r.entries[id-1].symbol, nil
}

// FeedByID returns the price feed handle for a symbol id.
func (r *Registry) FeedByID(id uint32) (oracle.PriceFeed, error) {
	if id < 1 || int(id) > len(r.entries) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return r.entries[id-1].feed, nil
}

// IDByName returns the id for a symbol name.
func (r *Registry) IDByName(name string) (uint32, error) {
	idx, ok := r.byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return r.entries[idx].symbol.ID, nil
}

// HashByName returns the name hash for a symbol name.
func (r *Registry) HashByName(name string) (model.Hash, error) {
	if _, ok := r.byName[name]; !ok {
		return model.Hash{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return HashName(name), nil
}

// Count returns the number of registered symbols.
func (r *Registry) Count() int {
	return len(r.entries)
}

// All returns the symbol records in creation order. The returned slice
// shares the arena records; callers must hold the engine lock.
func (r *Registry) All() []*model.Symbol {
	out := make([]*model.Symbol, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.symbol
	}
	return out
}
