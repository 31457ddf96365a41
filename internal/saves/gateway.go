package saves

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
)

// Persister flushes in-memory state into durable slots before a save.
type Persister interface {
	PersistAll() error
}

// Subsystem is a stateful part of the record: it flushes, serializes,
// restores and reverts its own state.
type Subsystem interface {
	Persister
	Save(w io.Writer) error
	Load(r io.Reader) error
	Revert()
}

// ContextSubsystem is the contexts subsystem, which also reconciles
// after every load. Implemented by *contexts.Registry.
type ContextSubsystem interface {
	Subsystem
	Reload()
}

// Gateway wires the subsystems to the host's record stream.
type Gateway struct {
	contexts   ContextSubsystem
	events     Subsystem
	persisters []Persister
	logger     *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithPersister adds a subsystem that only needs flushing before a save,
// such as a host's actor model. Persisters run before contexts and events.
func WithPersister(p Persister) Option {
	return func(g *Gateway) {
		g.persisters = append(g.persisters, p)
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = l
	}
}

// NewGateway creates a gateway over the contexts and events subsystems
// (*contexts.Registry and *pool.Pool).
func NewGateway(contexts ContextSubsystem, events Subsystem, opts ...Option) *Gateway {
	g := &Gateway{contexts: contexts, events: events, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Save flushes every subsystem, serializes contexts then events and
// writes them as one record. The payload is fully built before the
// record is opened, so a failure at any step writes nothing.
func (g *Gateway) Save(w Writer) error {
	persisters := append(append([]Persister(nil), g.persisters...), g.contexts, g.events)
	for _, p := range persisters {
		if err := p.PersistAll(); err != nil {
			g.logger.Error("persist failed, save abandoned", "error", err)
			return fmt.Errorf("persist: %w", err)
		}
	}

	var payload bytes.Buffer
	for _, part := range []struct {
		name string
		sub  Subsystem
	}{
		{"contexts", g.contexts},
		{"events", g.events},
	} {
		var chunk bytes.Buffer
		if err := part.sub.Save(&chunk); err != nil {
			g.logger.Error("serialize failed, save abandoned", "subsystem", part.name, "error", err)
			return fmt.Errorf("save %s: %w", part.name, err)
		}
		if err := writeChunk(&payload, chunk.Bytes()); err != nil {
			return fmt.Errorf("save %s: %w", part.name, err)
		}
	}

	if err := w.OpenRecord(Tag, Version); err != nil {
		g.logger.Error("failed to open record", "tag", TagString(Tag), "error", err)
		return fmt.Errorf("open record %s: %w", TagString(Tag), err)
	}
	if err := w.WriteRecordData(payload.Bytes()); err != nil {
		g.logger.Error("failed to write record", "tag", TagString(Tag), "error", err)
		return fmt.Errorf("write record %s: %w", TagString(Tag), err)
	}

	g.logger.Debug("saved", "tag", TagString(Tag), "bytes", payload.Len())
	return nil
}

// Load scans r for the ADVY record and restores contexts then events from
// it. Contexts are reloaded afterwards whether or not a record was found.
func (g *Gateway) Load(r Reader) error {
	defer g.contexts.Reload()

	for {
		tag, version, length, ok := r.NextRecordInfo()
		if !ok {
			g.logger.Info("no saved state, starting fresh")
			return nil
		}
		if tag != Tag {
			continue
		}
		if length == 0 {
			g.logger.Info("empty saved state, starting fresh")
			return nil
		}

		g.logger.Debug("loading", "tag", TagString(tag), "version", version, "bytes", length)
		return g.restore(r, length)
	}
}

func (g *Gateway) restore(r Reader, length uint32) error {
	data := make([]byte, length)
	if _, err := io.ReadFull(readerFunc(r.ReadRecordData), data); err != nil {
		g.logger.Error("failed to read record", "error", err)
		return fmt.Errorf("read record %s: %w", TagString(Tag), err)
	}

	ctxChunk, rest, err := readChunk(data)
	if err != nil {
		return fmt.Errorf("load contexts: %w", err)
	}
	evChunk, _, err := readChunk(rest)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}

	if err := g.contexts.Load(bytes.NewReader(ctxChunk)); err != nil {
		g.logger.Error("failed to load contexts", "error", err)
		return fmt.Errorf("load contexts: %w", err)
	}
	if err := g.events.Load(bytes.NewReader(evChunk)); err != nil {
		g.logger.Error("failed to load events", "error", err)
		return fmt.Errorf("load events: %w", err)
	}
	return nil
}

// Revert discards volatile state of contexts then events. Slots are not
// touched: the host owns them.
func (g *Gateway) Revert() {
	g.contexts.Revert()
	g.events.Revert()
}

type readerFunc func(p []byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }
