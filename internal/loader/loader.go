package loader

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"

	"github.com/roach88/adversity/internal/contexts"
	"github.com/roach88/adversity/internal/event"
	"github.com/roach88/adversity/internal/pool"
	"github.com/roach88/adversity/internal/predicate"
	"github.com/roach88/adversity/internal/slots"
)

//go:embed schema.cue
var schemaSrc string

// EventsType is the type directory holding event documents.
const EventsType = "events"

const customSuffix = ".custom"

var extensions = map[string]bool{".yaml": true, ".yml": true}

// Declarer creates slots on demand. Implemented by *slots.Registry.
type Declarer interface {
	Declare(editorID string, initial float64) slots.Key
}

// RefsFunc returns the names bound into requirement expressions of one
// pack. They shadow world facts of the same name.
type RefsFunc func(context, pack string) predicate.Refs

// DefaultRefs binds "context" and "pack" to the event's provenance.
func DefaultRefs(context, pack string) predicate.Refs {
	return predicate.Refs{"context": context, "pack": pack}
}

// Loader reads a content tree.
type Loader struct {
	root    string
	env     event.Env
	refs    RefsFunc
	declare Declarer
	logger  *slog.Logger

	cue    *cue.Context
	schema cue.Value
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(ld *Loader) {
		ld.logger = l
	}
}

// WithRefs sets the reference binder. Default: DefaultRefs.
func WithRefs(fn RefsFunc) Option {
	return func(ld *Loader) {
		ld.refs = fn
	}
}

// WithDeclarer declares the global and timer slots named by each
// document before binding it. Standalone hosts that own the slot registry
// use it; embedded hosts whose slots come from elsewhere leave it unset so
// that unknown slot names invalidate the event.
func WithDeclarer(d Declarer) Option {
	return func(ld *Loader) {
		ld.declare = d
	}
}

// New creates a loader for root binding events to env.
func New(root string, env event.Env, opts ...Option) (*Loader, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile event schema: %w", err)
	}

	l := &Loader{
		root:   root,
		env:    env,
		refs:   DefaultRefs,
		logger: slog.Default(),
		cue:    ctx,
		schema: schema.LookupPath(cue.ParsePath("#Event")),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Contradiction names a pair of events declared both excluded and
// compatible. The pair is treated as conflicting.
type Contradiction struct {
	A, B string
}

// Report summarizes one Load.
type Report struct {
	Contexts       []string
	Loaded         []string
	Invalid        map[string][]error
	Skipped        []error
	Contradictions []Contradiction
}

// Load walks the tree, registers every context it finds and adds every
// decoded event to p. Only a missing or unreadable root is an error;
// everything else is reported and skipped.
func (l *Loader) Load(p *pool.Pool, ctxs *contexts.Registry) (*Report, error) {
	dir := filepath.Join(l.root, "contexts")
	entries, err := os.ReadDir(dir)
	if err != nil {
		code := ErrCodeRead
		if os.IsNotExist(err) {
			code = ErrCodeNotFound
		}
		return nil, &LoadError{Code: code, Path: dir, Message: err.Error()}
	}

	report := &Report{Invalid: make(map[string][]error)}
	for _, ent := range entries {
		if !ent.IsDir() {
			continue
		}
		name := ent.Name()
		ctxs.Register(name)
		report.Contexts = append(report.Contexts, name)
		l.loadContext(name, filepath.Join(dir, name), p, report)
	}

	for _, ctx := range report.Contexts {
		report.Contradictions = append(report.Contradictions, contradictions(p.InContext(ctx))...)
	}
	for _, c := range report.Contradictions {
		l.logger.Warn("events are both excluded and compatible; treating as conflicting",
			"event", c.A,
			"other", c.B)
	}

	l.logger.Info("content loaded",
		"root", l.root,
		"contexts", len(report.Contexts),
		"events", len(report.Loaded),
		"invalid", len(report.Invalid),
		"skipped", len(report.Skipped))
	return report, nil
}

func (l *Loader) loadContext(name, dir string, p *pool.Pool, report *Report) {
	packsDir := filepath.Join(dir, "packs")
	packs, err := os.ReadDir(packsDir)
	if err != nil {
		if !os.IsNotExist(err) {
			l.skip(report, &LoadError{Code: ErrCodeRead, Path: packsDir, Message: err.Error()})
		}
		return
	}

	for _, pk := range packs {
		if !pk.IsDir() {
			continue
		}
		packDir := filepath.Join(packsDir, pk.Name())
		types, err := os.ReadDir(packDir)
		if err != nil {
			l.skip(report, &LoadError{Code: ErrCodeRead, Path: packDir, Message: err.Error()})
			continue
		}
		for _, ty := range types {
			if !ty.IsDir() {
				continue
			}
			if ty.Name() != EventsType {
				l.logger.Debug("skipping type directory", "path", filepath.Join(packDir, ty.Name()))
				continue
			}
			l.loadEvents(name, pk.Name(), filepath.Join(packDir, ty.Name()), p, report)
		}
	}
}

func (l *Loader) loadEvents(context, pack, dir string, p *pool.Pool, report *Report) {
	files, err := documents(dir)
	if err != nil {
		l.skip(report, &LoadError{Code: ErrCodeRead, Path: dir, Message: err.Error()})
		return
	}

	refs := l.refs(context, pack)
	for _, path := range files {
		def, lerr := l.decode(path)
		if lerr != nil {
			l.skip(report, lerr)
			continue
		}

		if l.declare != nil {
			for _, name := range []string{def.Global, def.Timer} {
				if name != "" {
					l.declare.Declare(name, 0)
				}
			}
		}

		e := event.New(def, l.env)
		e.Init(context, pack, refs)
		if err := p.Add(e); err != nil {
			l.skip(report, &LoadError{Code: ErrCodeDuplicate, Path: path, Message: err.Error()})
			continue
		}

		report.Loaded = append(report.Loaded, e.ID())
		if !e.IsValid() {
			report.Invalid[e.ID()] = e.Errors()
			l.logger.Warn("event is invalid and will never be selected",
				"event", e.ID(),
				"path", path,
				"errors", e.Errors())
		}
	}
}

// documents lists the files to load in dir, in name order, with custom
// overrides substituted for their base documents.
func documents(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	base := make(map[string]string)
	custom := make(map[string]string)
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		ext := filepath.Ext(ent.Name())
		if !extensions[strings.ToLower(ext)] {
			continue
		}
		stem := strings.TrimSuffix(ent.Name(), ext)
		path := filepath.Join(dir, ent.Name())
		if strings.HasSuffix(stem, customSuffix) {
			custom[strings.TrimSuffix(stem, customSuffix)] = path
			continue
		}
		base[stem] = path
	}

	stems := make([]string, 0, len(base))
	for stem := range base {
		stems = append(stems, stem)
	}
	sort.Strings(stems)

	out := make([]string, 0, len(stems))
	for _, stem := range stems {
		if path, ok := custom[stem]; ok {
			out = append(out, path)
			continue
		}
		out = append(out, base[stem])
	}
	return out, nil
}

// decode reads one document, checks it against the schema and decodes it.
func (l *Loader) decode(path string) (event.Definition, *LoadError) {
	data, err := os.ReadFile(path)
	if err != nil {
		return event.Definition{}, &LoadError{Code: ErrCodeRead, Path: path, Message: err.Error()}
	}

	f, err := cueyaml.Extract(path, data)
	if err != nil {
		return event.Definition{}, cueError(ErrCodeDecode, path, err)
	}
	v := l.cue.BuildFile(f)
	if err := v.Err(); err != nil {
		return event.Definition{}, cueError(ErrCodeDecode, path, err)
	}
	if err := l.schema.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return event.Definition{}, cueError(ErrCodeSchema, path, err)
	}

	def, err := event.ParseDefinition(data)
	if err != nil {
		return event.Definition{}, &LoadError{Code: ErrCodeDecode, Path: path, Message: err.Error()}
	}
	return def, nil
}

func (l *Loader) skip(report *Report, err *LoadError) {
	report.Skipped = append(report.Skipped, err)
	l.logger.Warn("skipped", "path", err.Path, "code", err.Code, "error", err.Message)
}

func contradictions(events []*event.Event) []Contradiction {
	var out []Contradiction
	for i, a := range events {
		for _, b := range events[i+1:] {
			if event.Contradicts(a, b) {
				out = append(out, Contradiction{A: a.ID(), B: b.ID()})
			}
		}
	}
	return out
}
