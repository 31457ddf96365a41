package engine

import (
	"fmt"
	"math/rand/v2"

	"github.com/roach88/adversity/internal/event"
)

// Pause suspends an Active event. It keeps running membership: conflict
// checks still see it, and Resume returns it to Active.
func (c *Controller) Pause(id string) error {
	return c.transition(id, event.StatusPaused, func(from event.Status) bool {
		return from == event.StatusActive
	})
}

// Resume returns a Paused event to Active.
func (c *Controller) Resume(id string) error {
	return c.transition(id, event.StatusActive, func(from event.Status) bool {
		return from == event.StatusPaused
	})
}

// End stops a running event: it becomes Disabled and its cooldown starts.
func (c *Controller) End(id string) error {
	e, err := c.lookup(id)
	if err != nil {
		return err
	}
	from, _ := c.settle(e)
	if !from.IsActive() {
		return &TransitionError{Event: id, From: from, To: event.StatusDisabled}
	}
	e.SetStatus(event.StatusDisabled)
	e.SetCooldown(c.cooldownFor(e))
	c.logger.Info("event ended", "event", id, "context", e.Context())
	return nil
}

func (c *Controller) transition(id string, to event.Status, allowed func(event.Status) bool) error {
	e, err := c.lookup(id)
	if err != nil {
		return err
	}
	from, _ := c.settle(e)
	if !allowed(from) {
		return &TransitionError{Event: id, From: from, To: to}
	}
	e.SetStatus(to)
	c.logger.Info("event transition",
		"event", id,
		"from", from.String(),
		"to", to.String())
	return nil
}

func (c *Controller) lookup(id string) (*event.Event, error) {
	e, ok := c.pool.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, id)
	}
	return e, nil
}

// Draw picks one Enabled event of contextID at random, weighted by
// severity. It does not change any status.
func (c *Controller) Draw(contextID string, rng *rand.Rand) (*event.Event, error) {
	if !c.contexts.Has(contextID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContext, contextID)
	}

	var candidates []*event.Event
	var weights []int
	for _, e := range c.pool.InContext(contextID) {
		if !e.IsValid() || !c.contexts.PackEnabled(contextID, e.PackID()) {
			continue
		}
		if st, _ := c.settle(e); st != event.StatusEnabled {
			continue
		}
		candidates = append(candidates, e)
		weights = append(weights, e.Severity())
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	return candidates[WeightedIndex(weights, rng)], nil
}

// WeightedIndex returns an index into weights chosen with probability
// proportional to its weight. Negative weights count as zero. When every
// weight is zero the choice is uniform. weights must not be empty.
func WeightedIndex(weights []int, rng *rand.Rand) int {
	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total == 0 {
		return rng.IntN(len(weights))
	}

	n := rng.IntN(total)
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if n < w {
			return i
		}
		n -= w
	}
	return len(weights) - 1
}
