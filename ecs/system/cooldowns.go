package system

import (
	"github.com/rotisserie/eris"

	"github.com/milk9111/tractorbeam/common"
)

// Cooldowns maps entity ids to the sim time their cooldown ends. Sweep runs
// at most once per prune interval and only drops entries that have already
// expired, so an entry lives at most window+prune seconds. prune must be
// shorter than window.
type Cooldowns struct {
	window    float64
	prune     float64
	expiry    map[string]float64
	lastSweep float64
}

func NewCooldowns(window, prune float64) (*Cooldowns, error) {
	if window <= 0 || prune <= 0 || prune >= window {
		return nil, eris.Wrapf(common.ErrInvalidTuning, "prune %.3fs must be positive and shorter than cooldown %.3fs", prune, window)
	}
	return &Cooldowns{
		window: window,
		prune:  prune,
		expiry: make(map[string]float64),
	}, nil
}

// Ready reports whether id may trigger again at now.
func (c *Cooldowns) Ready(id string, now float64) bool {
	exp, ok := c.expiry[id]
	return !ok || now >= exp
}

// Start begins the cooldown for id at now.
func (c *Cooldowns) Start(id string, now float64) {
	c.expiry[id] = now + c.window
}

// Sweep drops expired entries when a prune interval has passed since the
// last sweep and returns how many were dropped.
func (c *Cooldowns) Sweep(now float64) int {
	if now-c.lastSweep < c.prune {
		return 0
	}
	c.lastSweep = now
	dropped := 0
	for id, exp := range c.expiry {
		if now >= exp {
			delete(c.expiry, id)
			dropped++
		}
	}
	return dropped
}

func (c *Cooldowns) Len() int {
	return len(c.expiry)
}

func (c *Cooldowns) Clear() {
	clear(c.expiry)
	c.lastSweep = 0
}
