package guard

import (
	"sync"
	"time"
)

// BlockClock supplies wall time and a monotone block number. The rate
// limiter compares block numbers; staleness bounds and timelocks compare
// wall time.
type BlockClock interface {
	Now() time.Time
	BlockNumber() uint64
}

// WallClock derives block numbers from unix time at a fixed slot
// duration. The zero value uses 12-second slots.
type WallClock struct {
	SlotDuration time.Duration
}

func (c WallClock) Now() time.Time { return time.Now().UTC() }

func (c WallClock) BlockNumber() uint64 {
	slot := c.SlotDuration
	if slot <= 0 {
		slot = 12 * time.Second
	}
	return uint64(time.Now().UnixNano() / int64(slot))
}

// ManualClock is a settable clock for tests.
type ManualClock struct {
	mu    sync.Mutex
	now   time.Time
	block uint64
}

// NewManualClock creates a manual clock at the given start time and block.
func NewManualClock(now time.Time, block uint64) *ManualClock {
	return &ManualClock{now: now, block: block}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) BlockNumber() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.block
}

// AdvanceBlocks mines n blocks.
func (c *ManualClock) AdvanceBlocks(n uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.block += n
}

// AdvanceTime moves wall time forward by d.
func (c *ManualClock) AdvanceTime(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
