package session

import (
	"sync"
	"time"
)

// Clock is the whole-interview elapsed-time counter. Its lifecycle is
// independent of the per-question countdown.
type Clock struct {
	mu       sync.Mutex
	interval time.Duration
	onTick   func(elapsed int)

	elapsed int
	stop    chan struct{}
}

// NewClock creates a clock ticking at the given interval (one second in
// production).
func NewClock(interval time.Duration, onTick func(elapsed int)) *Clock {
	if interval <= 0 {
		interval = time.Second
	}
	return &Clock{interval: interval, onTick: onTick}
}

// Start resets the counter to zero and starts ticking. A running clock is
// restarted.
func (c *Clock) Start() {
	c.mu.Lock()
	if c.stop != nil {
		close(c.stop)
	}
	c.elapsed = 0
	stop := make(chan struct{})
	c.stop = stop
	c.mu.Unlock()

	go c.run(stop)
}

// Stop halts ticking. Ticks have no effect once stopped.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

// Elapsed returns the elapsed seconds.
func (c *Clock) Elapsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

func (c *Clock) run(stop chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.stop != stop {
				c.mu.Unlock()
				return
			}
			c.elapsed++
			elapsed := c.elapsed
			c.mu.Unlock()

			if c.onTick != nil {
				c.onTick(elapsed)
			}
		}
	}
}
