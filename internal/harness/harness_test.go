package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoFilthEvents = `
events:
  - context: player
    pack: core
    name: Filthy
    severity: 5
    global: AdvFilthyStatus
    timer: AdvFilthyTimer
    conflicts:
      - type: filth
        slots: [32]
  - context: player
    pack: core
    name: Muddy
    severity: 2
    global: AdvMuddyStatus
    timer: AdvMuddyTimer
    requirements: [outside]
    conflicts:
      - type: filth
        slots: [32]
`

func parse(t *testing.T, doc string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(doc))
	require.NoError(t, err)
	return s
}

func run(t *testing.T, doc string) *Result {
	t.Helper()
	result, err := Run(parse(t, doc))
	require.NoError(t, err)
	return result
}

func TestGolden_FilthContention(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "filth_contention.yaml"))
	require.NoError(t, err)

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "%v", result.Errors)
	assert.Len(t, result.Decisions, 3, "every cycle reaches the decision log")
}

func TestRun_Deterministic(t *testing.T) {
	doc := `
name: twice
description: same input, same trace
facts: { outside: true }
steps:
  - cycle: player
  - advance: 2
  - cycle: player
` + twoFilthEvents

	a := run(t, doc)
	b := run(t, doc)

	first, err := MarshalSnapshot("twice", a.Trace)
	require.NoError(t, err)
	second, err := MarshalSnapshot("twice", b.Trace)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestRun_FactsDowngradeRunningEvent(t *testing.T) {
	result := run(t, `
name: downgrade
description: muddy stops when it is no longer outside
facts: { outside: true }
default_cooldown: 3
steps:
  - end: core/filthy
    expect_error: true
  - cycle: player
  - pause: core/filthy
  - facts: { outside: false }
  - cycle: player
assertions:
  - type: status
    id: core/muddy
    expect: Disabled
  - type: status
    id: core/filthy
    expect: Paused
events:
  - { context: player, pack: core, name: Filthy, severity: 5, global: AdvFilthyStatus }
  - { context: player, pack: core, name: Muddy, severity: 2, global: AdvMuddyStatus, requirements: [outside] }
`)

	require.True(t, result.Pass, "%v", result.Errors)
	require.Len(t, result.Trace, 5)
	assert.NotEmpty(t, result.Trace[0].Error, "ending a Disabled event is refused")

	last := result.Trace[4].Decision
	require.NotNil(t, last)
	assert.Equal(t, []string{"core/muddy"}, last.Downgraded)
	assert.Equal(t, []string{"core/filthy"}, last.Retained, "paused events keep running membership")
}

func TestRun_SaveDropsUncommittedSelection(t *testing.T) {
	result := run(t, `
name: stale
description: a save between decide and commit loses the selection
facts: { outside: true }
steps:
  - decide: player
  - save: true
  - commit: player
assertions:
  - type: status
    id: core/filthy
    expect: Enabled
  - type: cycles
    context: player
    count: 1
`+twoFilthEvents)

	require.True(t, result.Pass, "%v", result.Errors)
	assert.Equal(t, "Selected", result.Trace[0].Status["core/filthy"])
	assert.Equal(t, "Enabled", result.Trace[1].Status["core/filthy"])

	commit := result.Trace[2].Decision
	require.NotNil(t, commit)
	assert.Equal(t, []string{"core/filthy"}, commit.Stale)
	assert.Empty(t, commit.Activated)
}

func TestRun_OverlappingDecisionsKeepExclusion(t *testing.T) {
	result := run(t, `
name: overlap
description: a second decision respects the first one's uncommitted selection
facts: { outside: true }
steps:
  - decide: player
  - decide: player
  - commit: player
  - commit: player
assertions:
  - type: never_together
    ids: [core/filthy, core/muddy]
  - type: status
    id: core/filthy
    expect: Active
  - type: status
    id: core/muddy
    expect: Enabled
  - type: cycles
    context: player
    count: 2
`+twoFilthEvents)

	require.True(t, result.Pass, "%v", result.Errors)
	second := result.Trace[1].Decision
	require.NotNil(t, second)
	assert.Empty(t, second.Selected)
	require.Len(t, second.Rejected, 1)
	assert.Equal(t, []string{"core/filthy"}, second.Rejected[0].ConflictsWith)
	assert.Equal(t, []string{"core/filthy"}, result.Trace[2].Decision.Activated)
	assert.Empty(t, result.Trace[3].Decision.Activated)
}

func TestRun_LoadRestoresSavedState(t *testing.T) {
	result := run(t, `
name: reload
description: loading a save undoes later changes
facts: { outside: true }
steps:
  - cycle: player
  - save: true
  - end: core/filthy
  - disable_pack: player/core
  - load: true
assertions:
  - type: status
    id: core/filthy
    expect: Active
  - type: cycles
    context: player
    count: 1
`+twoFilthEvents)

	require.True(t, result.Pass, "%v", result.Errors)
	assert.Equal(t, "Disabled", result.Trace[2].Status["core/filthy"])
	assert.Equal(t, "Active", result.Trace[4].Status["core/filthy"])
	assert.True(t, result.Trace[4].Decision == nil)
}

func TestRun_DisabledPackIsSkipped(t *testing.T) {
	result := run(t, `
name: packs
description: a disabled pack sits out until enabled
facts: { outside: true }
steps:
  - disable_pack: player/core
  - cycle: player
  - enable_pack: player/core
  - cycle: player
assertions:
  - type: activated
    id: core/filthy
`+twoFilthEvents)

	require.True(t, result.Pass, "%v", result.Errors)
	assert.Empty(t, result.Trace[1].Decision.Enabled)
	assert.Equal(t, []string{"core/filthy"}, result.Trace[3].Decision.Activated)
}

func TestRun_MaxActive(t *testing.T) {
	result := run(t, `
name: quota
description: only one event may run
max_active: 1
steps:
  - cycle: player
assertions:
  - type: max_running
    context: player
    count: 1
events:
  - { context: player, pack: core, name: A, severity: 1, global: AStatus }
  - { context: player, pack: core, name: B, severity: 2, global: BStatus }
`)

	require.True(t, result.Pass, "%v", result.Errors)
	d := result.Trace[0].Decision
	assert.Equal(t, []string{"core/b"}, d.Activated)
	require.Len(t, d.Rejected, 1)
	assert.Equal(t, "quota", d.Rejected[0].Reason)
}

func TestRun_FailedAssertions(t *testing.T) {
	result := run(t, `
name: failing
description: every assertion here is wrong
facts: { outside: true }
steps:
  - cycle: player
  - pause: core/muddy
assertions:
  - type: status
    id: core/filthy
    expect: Paused
  - type: activated
    id: core/muddy
  - type: never_together
    ids: [core/filthy, core/muddy]
  - type: cycles
    context: player
    count: 2
  - type: max_running
    context: player
    count: 0
  - type: status
    id: core/ghost
    expect: Active
`+twoFilthEvents)

	assert.False(t, result.Pass)
	// one unexpected step error plus five failed assertions; never_together holds
	require.Len(t, result.Errors, 6, "%v", result.Errors)
	assert.Contains(t, result.Errors[0], "step 2 (pause core/muddy)")
	assert.True(t, strings.HasPrefix(result.Errors[1], "Assertion failed: status"))
}

func TestRun_UnknownContextStepFails(t *testing.T) {
	result := run(t, `
name: nowhere
description: cycling an unknown context is an error
contexts: [follower]
steps:
  - cycle: player
`)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Trace[0].Error, "unknown context")
}

func TestRun_InvalidEventIsSetupError(t *testing.T) {
	_, err := Run(parse(t, `
name: broken
description: an event without a global cannot run
steps:
  - cycle: player
events:
  - { context: player, pack: core, name: Broken }
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "core/broken")
}

func TestParseScenario_Errors(t *testing.T) {
	tests := map[string]string{
		"missing name":        "description: x\nsteps: [{cycle: player}]\n",
		"missing description": "name: x\nsteps: [{cycle: player}]\n",
		"no steps":            "name: x\ndescription: x\n",
		"unknown field":       "name: x\ndescription: x\nsteps: [{cycle: player}]\nstep: []\n",
		"two actions":         "name: x\ndescription: x\nsteps: [{cycle: player, advance: 1}]\n",
		"no action":           "name: x\ndescription: x\nsteps: [{expect_error: true}]\n",
		"bad pack ref":        "name: x\ndescription: x\nsteps: [{disable_pack: core}]\n",
		"event without pack":  "name: x\ndescription: x\nsteps: [{cycle: p}]\nevents: [{context: p, name: A, global: S}]\n",
		"unknown assertion":   "name: x\ndescription: x\nsteps: [{cycle: p}]\nassertions: [{type: vibes}]\n",
		"status without id":   "name: x\ndescription: x\nsteps: [{cycle: p}]\nassertions: [{type: status, expect: Active}]\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScenario([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}
