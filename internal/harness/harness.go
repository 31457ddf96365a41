package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/roach88/adversity/internal/contexts"
	"github.com/roach88/adversity/internal/engine"
	"github.com/roach88/adversity/internal/event"
	"github.com/roach88/adversity/internal/loader"
	"github.com/roach88/adversity/internal/pool"
	"github.com/roach88/adversity/internal/predicate"
	"github.com/roach88/adversity/internal/saves"
	"github.com/roach88/adversity/internal/store"
	"github.com/roach88/adversity/internal/testutil"
)

// Harness executes one scenario. Game time is a manual clock, cycle
// tokens are sequential and the decision log is an in-memory database,
// so the same scenario always yields the same trace.
type Harness struct {
	bench    *testutil.Bench
	pool     *pool.Pool
	contexts *contexts.Registry
	ctrl     *engine.Controller
	gateway  *saves.Gateway
	store    *store.Store
	logger   *slog.Logger

	pending    map[string][]*engine.Decision // uncommitted, oldest first
	saved      *saves.Cosave
	savedSlots map[string]float64
}

// Run executes a scenario and returns its result. Step failures and
// failed assertions are reported in the result; the error is only for
// setup problems such as an invalid event definition.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	st, err := store.Open(":memory:", store.WithLogger(discardLogger()))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h, err := newHarness(scenario, st)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.execute(ctx, i, step, result)
	}

	recs, err := st.ReadDecisions(ctx, "", 0)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		var d engine.Decision
		if err := json.Unmarshal(rec.Payload, &d); err != nil {
			return nil, fmt.Errorf("decision %d: %w", rec.Seq, err)
		}
		result.Decisions = append(result.Decisions, &d)
	}

	for _, a := range scenario.Assertions {
		if err := h.check(a, result); err != nil {
			result.AddError(err.Error())
		}
	}
	return result, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(s *Scenario, st *store.Store) (*Harness, error) {
	logger := discardLogger()
	h := &Harness{
		bench:   testutil.NewBench(predicate.Facts(s.Facts)),
		pool:    pool.New(pool.WithLogger(logger)),
		store:   st,
		logger:  logger,
		pending: make(map[string][]*engine.Decision),
	}
	h.contexts = contexts.New(h.pool, contexts.WithLogger(logger))
	h.gateway = saves.NewGateway(h.contexts, h.pool, saves.WithLogger(logger))

	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithTokenGenerator(testutil.NewSeqTokenGenerator(s.Token)),
		engine.WithDecisionLog(st),
		engine.WithMaxActive(s.MaxActive),
	}
	if s.DefaultCooldown != nil {
		opts = append(opts, engine.WithDefaultCooldown(*s.DefaultCooldown))
	}
	h.ctrl = engine.New(h.pool, h.contexts, opts...)

	for _, id := range s.Contexts {
		h.contexts.Register(id)
	}
	for i, es := range s.Events {
		h.contexts.Register(es.Context)

		def := es.Definition
		for _, name := range []string{def.Global, def.Timer} {
			if name != "" {
				h.bench.Slots.Declare(name, 0)
			}
		}
		e := event.New(def, h.bench.Env())
		e.Init(es.Context, es.Pack, loader.DefaultRefs(es.Context, es.Pack))
		if !e.IsValid() {
			return nil, fmt.Errorf("events[%d] %s: %w", i, e.ID(), errors.Join(e.Errors()...))
		}
		if err := h.pool.Add(e); err != nil {
			return nil, fmt.Errorf("events[%d]: %w", i, err)
		}
	}
	return h, nil
}

func (h *Harness) execute(ctx context.Context, i int, step Step, result *Result) {
	op, arg := step.Op()
	entry := TraceEntry{Step: i + 1, Op: op, Arg: arg}

	d, err := h.apply(ctx, op, step)
	if d != nil {
		cp := *d
		entry.Decision = &cp
	}

	switch {
	case err != nil:
		entry.Error = err.Error()
		if !step.ExpectError {
			result.AddError(fmt.Sprintf("step %d (%s %s): %v", i+1, op, arg, err))
		}
	case step.ExpectError:
		result.AddError(fmt.Sprintf("step %d (%s %s): expected an error", i+1, op, arg))
	}

	for _, clash := range h.runningConflicts() {
		result.AddError(fmt.Sprintf("step %d (%s %s): %s", i+1, op, arg, clash))
	}

	entry.Time = h.bench.Clock.Now()
	entry.Status = h.statuses()
	result.Trace = append(result.Trace, entry)
}

func (h *Harness) apply(ctx context.Context, op string, step Step) (*engine.Decision, error) {
	switch op {
	case OpCycle:
		return h.ctrl.Cycle(ctx, step.Cycle)

	case OpDecide:
		d, err := h.ctrl.Decide(step.Decide)
		if err == nil {
			h.pending[step.Decide] = append(h.pending[step.Decide], d)
		}
		return d, err

	case OpCommit:
		queue := h.pending[step.Commit]
		if len(queue) == 0 {
			return nil, fmt.Errorf("no pending decision for %s", step.Commit)
		}
		d := queue[0]
		h.pending[step.Commit] = queue[1:]
		return d, h.ctrl.Commit(ctx, d)

	case OpAdvance:
		h.bench.Clock.Advance(step.Advance)

	case OpFacts:
		keys := make([]string, 0, len(step.Facts))
		for k := range step.Facts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			h.bench.World.Set(k, step.Facts[k])
		}

	case OpPause:
		return nil, h.ctrl.Pause(step.Pause)
	case OpResume:
		return nil, h.ctrl.Resume(step.Resume)
	case OpEnd:
		return nil, h.ctrl.End(step.End)

	case OpDisablePack, OpEnablePack:
		ref := step.DisablePack + step.EnablePack
		ctxID, pack, _ := strings.Cut(ref, "/")
		if op == OpDisablePack {
			return nil, h.contexts.DisablePack(ctxID, pack)
		}
		return nil, h.contexts.EnablePack(ctxID, pack)

	case OpSave:
		cosave := saves.NewCosave()
		if err := h.gateway.Save(cosave); err != nil {
			return nil, err
		}
		h.saved = cosave
		h.savedSlots = h.bench.Slots.Values()

	case OpLoad:
		if h.saved == nil {
			return nil, fmt.Errorf("nothing saved")
		}
		h.bench.Slots.Restore(h.savedSlots)
		h.saved.Rewind()
		return nil, h.gateway.Load(h.saved)

	case OpRevert:
		h.gateway.Revert()
	}
	return nil, nil
}

// statuses reads every event's stored status without revalidation.
func (h *Harness) statuses() map[string]string {
	out := make(map[string]string, h.pool.Len())
	for _, e := range h.pool.All() {
		out[e.ID()] = e.State().Status.String()
	}
	return out
}

// runningConflicts lists pairs of running events that may not run
// together.
func (h *Harness) runningConflicts() []string {
	var out []string
	for _, ctxID := range h.contexts.IDs() {
		var running []*event.Event
		for _, e := range h.pool.InContext(ctxID) {
			if e.State().Status.IsActive() {
				running = append(running, e)
			}
		}
		for i, a := range running {
			for _, b := range running[i+1:] {
				if a.Conflicts(b) {
					out = append(out, fmt.Sprintf("conflicting events running together: %s and %s", a.ID(), b.ID()))
				}
			}
		}
	}
	return out
}
