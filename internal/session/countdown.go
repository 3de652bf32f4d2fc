package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/talentpulse/interview-engine/internal/domain"
)

// Countdown runs the per-question countdown. Exactly one countdown ticks at
// a time; arming with the identity already armed is a no-op, so a question
// delivered twice (submit response plus poller) cannot restart its own
// timer. The timeout hook fires at most once per armed turn.
type Countdown struct {
	mu        sync.Mutex
	interval  time.Duration
	onTimeout func()
	onTick    func(remaining int)
	log       zerolog.Logger

	armed     domain.TurnIdentity
	remaining int
	fired     bool
	stop      chan struct{}
}

// NewCountdown creates a countdown ticking at the given interval (one
// second in production; tests shrink it).
func NewCountdown(interval time.Duration, onTimeout func(), log zerolog.Logger) *Countdown {
	if interval <= 0 {
		interval = time.Second
	}
	return &Countdown{
		interval:  interval,
		onTimeout: onTimeout,
		log:       log,
	}
}

// SetTickHook installs a per-tick observer. Must be set before arming.
func (c *Countdown) SetTickHook(fn func(remaining int)) {
	c.onTick = fn
}

// Arm starts a countdown for the given question turn. A no-op when the
// identity is already armed; otherwise any running countdown is cancelled
// and the one-shot timeout guard is reset.
func (c *Countdown) Arm(seconds int, id domain.TurnIdentity) {
	c.mu.Lock()
	if id == c.armed {
		c.mu.Unlock()
		return
	}

	if c.stop != nil {
		close(c.stop)
	}
	c.armed = id
	c.fired = false
	c.remaining = seconds
	stop := make(chan struct{})
	c.stop = stop
	c.mu.Unlock()

	c.log.Debug().Str("identity", id.String()).Int("seconds", seconds).Msg("countdown armed")
	go c.run(stop)
}

// Disarm cancels the running countdown unconditionally.
func (c *Countdown) Disarm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	c.armed = domain.TurnIdentity{}
	c.fired = true
	c.remaining = 0
}

// Armed returns the identity of the armed question turn.
func (c *Countdown) Armed() domain.TurnIdentity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed
}

// Remaining returns the seconds left on the running countdown.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Countdown) run(stop chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.stop != stop {
				// Superseded by a newer arm.
				c.mu.Unlock()
				return
			}
			if c.remaining > 0 {
				c.remaining--
			}
			remaining := c.remaining
			fire := false
			if remaining <= 0 && !c.fired {
				c.fired = true
				fire = true
			}
			c.mu.Unlock()

			if c.onTick != nil {
				c.onTick(remaining)
			}
			if fire {
				c.log.Debug().Msg("countdown expired")
				if c.onTimeout != nil {
					c.onTimeout()
				}
			}
			if remaining <= 0 {
				return
			}
		}
	}
}
