package engine

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/adversity/internal/event"
	"github.com/roach88/adversity/internal/testutil"
)

func TestWeightedIndex(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 200; i++ {
		assert.Equal(t, 1, WeightedIndex([]int{0, 5, -3}, rng))
	}

	for i := 0; i < 200; i++ {
		idx := WeightedIndex([]int{0, 0, 0}, rng)
		assert.True(t, idx >= 0 && idx < 3)
	}

	counts := make([]int, 2)
	for i := 0; i < 4000; i++ {
		counts[WeightedIndex([]int{1, 3}, rng)]++
	}
	assert.Greater(t, counts[1], counts[0]*2, "weight 3 drawn about three times as often as weight 1")
}

func TestDraw(t *testing.T) {
	r := newRig(t)
	rng := rand.New(rand.NewPCG(7, 7))

	_, err := r.c.Draw("player", rng)
	assert.ErrorIs(t, err, ErrNoCandidates)

	a := r.add(t, testutil.Def("A", 0))
	r.add(t, testutil.Def("B", 3))
	a.SetStatus(event.StatusEnabled)

	got, err := r.c.Draw("player", rng)
	require.NoError(t, err)
	assert.Equal(t, "core/a", got.ID(), "only enabled events are drawn")
	assert.Equal(t, event.StatusEnabled, a.Status(), "draw does not change status")

	_, err = r.c.Draw("ghost", rng)
	assert.ErrorIs(t, err, ErrUnknownContext)
}

func TestTransitionError_Message(t *testing.T) {
	err := &TransitionError{Event: "core/a", From: event.StatusDisabled, To: event.StatusPaused}
	assert.Equal(t, "event core/a: cannot move from Disabled to Paused", err.Error())
}
