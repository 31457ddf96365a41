package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/adversity/internal/config"
	"github.com/roach88/adversity/internal/contexts"
	"github.com/roach88/adversity/internal/engine"
	"github.com/roach88/adversity/internal/event"
	"github.com/roach88/adversity/internal/loader"
	"github.com/roach88/adversity/internal/pool"
	"github.com/roach88/adversity/internal/predicate"
	"github.com/roach88/adversity/internal/saves"
	"github.com/roach88/adversity/internal/slots"
	"github.com/roach88/adversity/internal/store"
)

// WorldFile is the default facts file inside the content root.
const WorldFile = "world.yaml"

// content is a loaded content tree bound to fresh slots.
type content struct {
	logger   *slog.Logger
	slots    *slots.Registry
	time     *slots.GameTime
	world    *predicate.World
	pool     *pool.Pool
	contexts *contexts.Registry
	report   *loader.Report
}

// session is content plus the save it was restored from. Commands that
// change state call save before returning.
type session struct {
	*content
	cfg        config.Config
	store      *store.Store
	gateway    *saves.Gateway
	controller *engine.Controller
}

// resolveConfig reads the environment and applies flag overrides.
func resolveConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.Dotenv)
	if err != nil {
		return config.Config{}, err
	}
	if opts.Root != "" {
		cfg.Root = opts.Root
	}
	if opts.DB != "" {
		cfg.DB = opts.DB
	}
	if opts.SaveName != "" {
		cfg.SaveName = opts.SaveName
	}
	return cfg, nil
}

func newLogger(w io.Writer, cfg config.Config, verbose bool) *slog.Logger {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadFacts reads a YAML mapping of world facts. A missing default file
// yields no facts; a missing explicit file is an error.
func loadFacts(path string, explicit bool) (predicate.Facts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return predicate.Facts{}, nil
		}
		return nil, fmt.Errorf("read facts: %w", err)
	}

	facts := predicate.Facts{}
	if err := yaml.Unmarshal(data, &facts); err != nil {
		return nil, fmt.Errorf("parse facts %s: %w", path, err)
	}
	return facts, nil
}

// loadContent binds a fresh slot registry and loads root into it.
func loadContent(opts *RootOptions, cfg config.Config, logger *slog.Logger) (*content, error) {
	factsPath, explicit := opts.Facts, opts.Facts != ""
	if !explicit {
		factsPath = filepath.Join(cfg.Root, WorldFile)
	}
	facts, err := loadFacts(factsPath, explicit)
	if err != nil {
		return nil, err
	}

	reg := slots.NewRegistry()
	c := &content{
		logger: logger,
		slots:  reg,
		time:   slots.NewGameTime(reg),
		world:  predicate.NewWorld(facts),
		pool:   pool.New(pool.WithLogger(logger)),
	}
	c.contexts = contexts.New(c.pool, contexts.WithLogger(logger))

	env := event.Env{Slots: reg, Clock: c.time, World: c.world}
	ld, err := loader.New(cfg.Root, env, loader.WithLogger(logger), loader.WithDeclarer(reg))
	if err != nil {
		return nil, err
	}
	c.report, err = ld.Load(c.pool, c.contexts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// openSession loads content, opens the store and restores the named save.
// Failures are reported through f and returned as ExitErrors.
func openSession(ctx context.Context, opts *RootOptions, f *OutputFormatter) (*session, error) {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}
	logger := newLogger(f.errWriter(), cfg, opts.Verbose)

	c, err := loadContent(opts, cfg, logger)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeContent, "failed to load content", err)
	}

	st, err := store.Open(cfg.DB, store.WithLogger(logger))
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}

	s := &session{content: c, cfg: cfg, store: st}
	s.gateway = saves.NewGateway(c.contexts, c.pool, saves.WithLogger(logger))
	if err := s.restore(ctx); err != nil {
		st.Close()
		return nil, f.Fail(ExitCommandError, ErrCodeStore, "failed to restore save", err)
	}

	last, err := st.LastSeq(ctx)
	if err != nil {
		st.Close()
		return nil, f.Fail(ExitCommandError, ErrCodeStore, "failed to read decision log", err)
	}

	ctrlOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithDefaultCooldown(cfg.DefaultCooldown),
		engine.WithMaxActive(cfg.MaxActive),
		engine.WithClock(engine.NewClockAt(last)),
		engine.WithDecisionLog(st),
	}
	if opts.Tokens != nil {
		ctrlOpts = append(ctrlOpts, engine.WithTokenGenerator(opts.Tokens))
	}
	s.controller = engine.New(c.pool, c.contexts, ctrlOpts...)

	f.VerboseLog("loaded %d events in %d contexts from %s, save %q",
		len(c.report.Loaded), len(c.report.Contexts), cfg.Root, cfg.SaveName)
	return s, nil
}

// restore puts slot values back first, then replays the co-save so that
// contexts and events see their saved state.
func (s *session) restore(ctx context.Context) error {
	values, err := s.store.LoadSlots(ctx, s.cfg.SaveName)
	if err != nil {
		return err
	}
	if unknown := s.slots.Restore(values); len(unknown) > 0 {
		s.logger.Debug("saved slots not declared by content", "slots", unknown)
	}

	cosave := saves.NewCosave()
	data, err := s.store.ReadCosave(ctx, s.cfg.SaveName)
	switch {
	case errors.Is(err, store.ErrNoSave):
	case err != nil:
		return err
	default:
		if err := cosave.UnmarshalBinary(data); err != nil {
			return err
		}
	}
	return s.gateway.Load(cosave)
}

// save writes the co-save and the slot values together. The gateway
// flushes volatile state into slots, so slot values are read after it.
func (s *session) save(ctx context.Context) error {
	cosave := saves.NewCosave()
	if err := s.gateway.Save(cosave); err != nil {
		return err
	}
	data, err := cosave.MarshalBinary()
	if err != nil {
		return err
	}
	return s.store.WriteSave(ctx, s.cfg.SaveName, data, s.slots.Values())
}

func (s *session) close() {
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing database", "error", err)
	}
}

// commandContext returns the command's context or Background.
func commandContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
