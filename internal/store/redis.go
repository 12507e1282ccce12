package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/synthx/elastic-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache over symbol history. Writes go to the primary store and invalidate
// the cache; reads check Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary journal.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

func (s *CachedStore) InsertTrade(ctx context.Context, rec *model.TradeRecord) error {
	if err := s.primary.InsertTrade(ctx, rec); err != nil {
		return err
	}
	// Invalidate; next read re-populates.
	s.rdb.Del(ctx, symbolTradesKey(rec.SymbolID))
	s.rdb.Del(ctx, accountTradesKey(rec.Account))
	return nil
}

func (s *CachedStore) TradesBySymbol(ctx context.Context, symbolID uint32, limit int) ([]model.TradeRecord, error) {
	// Only the unlimited read is cached; limited reads pass through.
	if limit > 0 {
		return s.primary.TradesBySymbol(ctx, symbolID, limit)
	}

	data, err := s.rdb.Get(ctx, symbolTradesKey(symbolID)).Bytes()
	if err == nil {
		var trades []model.TradeRecord
		if json.Unmarshal(data, &trades) == nil {
			return trades, nil
		}
	}

	trades, err := s.primary.TradesBySymbol(ctx, symbolID, 0)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(trades); err == nil {
		s.rdb.Set(ctx, symbolTradesKey(symbolID), data, s.ttl)
	}
	return trades, nil
}

func (s *CachedStore) TradesByAccount(ctx context.Context, account string) ([]model.TradeRecord, error) {
	data, err := s.rdb.Get(ctx, accountTradesKey(account)).Bytes()
	if err == nil {
		var trades []model.TradeRecord
		if json.Unmarshal(data, &trades) == nil {
			return trades, nil
		}
	}

	trades, err := s.primary.TradesByAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(trades); err == nil {
		s.rdb.Set(ctx, accountTradesKey(account), data, s.ttl)
	}
	return trades, nil
}

func symbolTradesKey(id uint32) string    { return fmt.Sprintf("trades:symbol:%d", id) }
func accountTradesKey(acct string) string { return fmt.Sprintf("trades:account:%s", acct) }
