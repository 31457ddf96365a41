package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/adversity/internal/contexts"
	"github.com/roach88/adversity/internal/event"
	"github.com/roach88/adversity/internal/pool"
	"github.com/roach88/adversity/internal/predicate"
	"github.com/roach88/adversity/internal/testutil"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

type loaded struct {
	bench  *testutil.Bench
	pool   *pool.Pool
	ctxs   *contexts.Registry
	report *Report
}

func load(t *testing.T, root string, opts ...Option) (*loaded, error) {
	t.Helper()
	b := testutil.NewBench(predicate.Facts{"ok": true})
	p := pool.New()
	ctxs := contexts.New(p)

	opts = append([]Option{WithDeclarer(b.Slots)}, opts...)
	l, err := New(root, b.Env(), opts...)
	require.NoError(t, err)

	report, err := l.Load(p, ctxs)
	return &loaded{bench: b, pool: p, ctxs: ctxs, report: report}, err
}

const (
	muddyDoc = `
name: Muddy
severity: 2
global: AdvMuddyStatus
timer: AdvMuddyTimer
requirements: [ok]
conflicts:
  - type: filth
    slots: [32]
`
	rainDoc = `
name: Rain
global: AdvRainStatus
`
)

func TestLoad_Tree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "contexts/player/packs/core/events/muddy.yaml", muddyDoc)
	writeFile(t, root, "contexts/player/packs/core/events/rain.yml", rainDoc)
	writeFile(t, root, "contexts/player/packs/core/events/notes.txt", "ignored")
	writeFile(t, root, "contexts/player/packs/core/outfits/dress.yaml", "name: Dress\n")
	writeFile(t, root, "contexts/follower/packs/extra/events/rain.yaml", rainDoc)

	got, err := load(t, root)
	require.NoError(t, err)

	assert.Equal(t, []string{"follower", "player"}, got.report.Contexts)
	assert.Equal(t, []string{"extra/rain", "core/muddy", "core/rain"}, got.report.Loaded)
	assert.Empty(t, got.report.Skipped)
	assert.Empty(t, got.report.Invalid)
	assert.Equal(t, []string{"follower", "player"}, got.ctxs.IDs())

	muddy, ok := got.pool.Get("core/muddy")
	require.True(t, ok)
	assert.True(t, muddy.IsValid())
	assert.True(t, muddy.ReqsMet())
	assert.Equal(t, 2, muddy.Severity())
	assert.Equal(t, "player", muddy.Context())
	assert.Len(t, muddy.ConflictList(), 1)
}

func TestLoad_CustomOverride(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "contexts/player/packs/core/events/muddy.yaml", muddyDoc)
	writeFile(t, root, "contexts/player/packs/core/events/muddy.custom.yaml", `
name: Muddy
severity: 9
global: AdvMuddyStatus
`)
	writeFile(t, root, "contexts/player/packs/core/events/orphan.custom.yaml", rainDoc)

	got, err := load(t, root)
	require.NoError(t, err)

	assert.Equal(t, []string{"core/muddy"}, got.report.Loaded, "custom documents never load on their own")
	muddy, _ := got.pool.Get("core/muddy")
	assert.Equal(t, 9, muddy.Severity())
	assert.Empty(t, muddy.ConflictList(), "override replaces the whole document")
}

func TestLoad_BadFilesAreSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "contexts/player/packs/core/events/a_bad_yaml.yaml", "name: [unterminated\n")
	writeFile(t, root, "contexts/player/packs/core/events/b_bad_schema.yaml", "name: X\nglobal: G\nseverity: high\n")
	writeFile(t, root, "contexts/player/packs/core/events/c_bad_conflict.yaml", "name: Y\nglobal: G2\nconflicts:\n  - slots: [1]\n")
	writeFile(t, root, "contexts/player/packs/core/events/rain.yaml", rainDoc)

	got, err := load(t, root)
	require.NoError(t, err)

	assert.Equal(t, []string{"core/rain"}, got.report.Loaded)
	require.Len(t, got.report.Skipped, 3)
	assert.True(t, IsLoadError(got.report.Skipped[0], ErrCodeDecode), "%v", got.report.Skipped[0])
	assert.True(t, IsLoadError(got.report.Skipped[1], ErrCodeSchema), "%v", got.report.Skipped[1])
	assert.True(t, IsLoadError(got.report.Skipped[2], ErrCodeSchema), "%v", got.report.Skipped[2])
}

func TestLoad_MissingGlobalIsInvalid(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "contexts/player/packs/core/events/ghost.yaml", "name: Ghost\nseverity: 5\n")

	got, err := load(t, root)
	require.NoError(t, err)

	assert.Equal(t, []string{"core/ghost"}, got.report.Loaded)
	require.Contains(t, got.report.Invalid, "core/ghost")
	assert.True(t, event.IsDefinitionError(got.report.Invalid["core/ghost"][0]))

	ghost, _ := got.pool.Get("core/ghost")
	assert.False(t, ghost.IsValid())
}

func TestLoad_UndeclaredSlotsWithoutDeclarer(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "contexts/player/packs/core/events/rain.yaml", rainDoc)

	b := testutil.NewBench(nil)
	p := pool.New()
	l, err := New(root, b.Env())
	require.NoError(t, err)

	report, err := l.Load(p, contexts.New(p))
	require.NoError(t, err)
	assert.Contains(t, report.Invalid, "core/rain")
}

func TestLoad_DuplicateIDs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "contexts/player/packs/core/events/rain.yaml", rainDoc)
	writeFile(t, root, "contexts/player/packs/core/events/rain2.yaml", "name: RAIN\nglobal: AdvRain2Status\n")

	got, err := load(t, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"core/rain"}, got.report.Loaded)
	require.Len(t, got.report.Skipped, 1)
	assert.True(t, IsLoadError(got.report.Skipped[0], ErrCodeDuplicate))
}

func TestLoad_Contradictions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "contexts/player/packs/core/events/a.yaml", "name: A\nglobal: GA\nexcludes: [core/b]\n")
	writeFile(t, root, "contexts/player/packs/core/events/b.yaml", "name: B\nglobal: GB\ncompatible: [core/a]\n")

	got, err := load(t, root)
	require.NoError(t, err)
	assert.Equal(t, []Contradiction{{A: "core/a", B: "core/b"}}, got.report.Contradictions)
}

func TestLoad_PackRefs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "contexts/player/packs/core/events/a.yaml", "name: A\nglobal: GA\nrequirements:\n  - pack == \"core\"\n  - context == \"player\"\n")

	got, err := load(t, root)
	require.NoError(t, err)
	a, _ := got.pool.Get("core/a")
	assert.True(t, a.ReqsMet())
}

func TestLoad_MissingRoot(t *testing.T) {
	_, err := load(t, filepath.Join(t.TempDir(), "nope"))
	assert.True(t, IsLoadError(err, ErrCodeNotFound))
}

func TestLoad_ContextWithoutPacks(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "contexts", "empty"), 0o755))

	got, err := load(t, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"empty"}, got.report.Contexts)
	assert.Empty(t, got.report.Skipped)
}

func TestLoadError_Format(t *testing.T) {
	err := &LoadError{Code: ErrCodeRead, Path: "/x.yaml", Message: "denied"}
	assert.Equal(t, "/x.yaml: E201: denied", err.Error())
	assert.True(t, IsLoadError(err, ""))
	assert.False(t, IsLoadError(err, ErrCodeSchema))
}
