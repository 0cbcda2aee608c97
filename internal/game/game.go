// Package game implements the main game loop and state management.
package game

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/titlecard/internal/engine/clock"
	"github.com/Faultbox/titlecard/internal/engine/fault"
	"github.com/Faultbox/titlecard/internal/engine/graphics"
	"github.com/Faultbox/titlecard/internal/engine/input"
)

// DefaultMaxStates is the number of states a game holds unless configured.
const DefaultMaxStates = 16

// Hooks a game may implement. Each one is optional.
type (
	Creator interface {
		Create(g *Game) error
	}
	Destroyer interface {
		Destroy(g *Game) error
	}
	Starter interface {
		Start(g *Game) error
	}
	Stopper interface {
		Stop(g *Game) error
	}
	PreUpdater interface {
		PreUpdate(g *Game, delta time.Duration) error
	}
	PostUpdater interface {
		PostUpdate(g *Game, delta time.Duration) error
	}
	PreRenderer interface {
		PreRender(g *Game) error
	}
	PostRenderer interface {
		PostRender(g *Game) error
	}
)

// Config holds game configuration.
type Config struct {
	// Clock drives frame deltas. Defaults to the system clock.
	Clock clock.Clock
	// Graphics is polled for window events each frame when set.
	Graphics *graphics.Context
	// Input receives the polled events. Defaults to a fresh input state.
	Input *input.State
	Log   *zap.Logger
	// MaxStates caps AddState. Defaults to DefaultMaxStates.
	MaxStates int
}

// Game dispatches the frame loop to its hooks and current state.
type Game struct {
	hooks     any
	clock     clock.Clock
	gfx       *graphics.Context
	input     *input.State
	log       *zap.Logger
	maxStates int

	states  []State
	current State

	running    bool
	stopped    bool
	destroyed  bool
	lastUpdate time.Duration

	frameCount int
	fpsTimer   time.Duration
	fps        int
}

// New creates a new game instance. hooks may implement any of the hook
// interfaces; Create is called before New returns.
func New(hooks any, cfg Config) (*Game, error) {
	if cfg.Clock == nil {
		cfg.Clock = clock.NewSystem()
	}
	if cfg.Input == nil {
		cfg.Input = input.New()
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.MaxStates <= 0 {
		cfg.MaxStates = DefaultMaxStates
	}

	g := &Game{
		hooks:     hooks,
		clock:     cfg.Clock,
		gfx:       cfg.Graphics,
		input:     cfg.Input,
		log:       cfg.Log,
		maxStates: cfg.MaxStates,
	}

	if h, ok := hooks.(Creator); ok {
		if err := h.Create(g); err != nil {
			return nil, fmt.Errorf("creating game: %w", err)
		}
	}
	return g, nil
}

// Clock returns the time source driving the loop.
func (g *Game) Clock() clock.Clock { return g.clock }

// Graphics returns the graphics context, or nil for a game without one.
func (g *Game) Graphics() *graphics.Context { return g.gfx }

// Input returns the keyboard state for the current frame.
func (g *Game) Input() *input.State { return g.input }

// Log returns the game's logger.
func (g *Game) Log() *zap.Logger { return g.log }

// FPS returns the number of frames rendered during the last full second.
func (g *Game) FPS() int { return g.fps }

// Running reports whether the loop is active.
func (g *Game) Running() bool { return g.running }

// Run starts the main game loop and blocks until Stop is called or a hook
// fails. A game runs at most once.
func (g *Game) Run() error {
	switch {
	case g.destroyed:
		return fmt.Errorf("%w: game is destroyed", fault.ErrIllegalState)
	case g.running:
		return fmt.Errorf("%w: game is already running", fault.ErrIllegalState)
	case g.stopped:
		return fmt.Errorf("%w: game cannot be started after being stopped", fault.ErrIllegalState)
	}

	g.log.Info("starting game loop", zap.Int("states", len(g.states)))
	err := g.start()
	for err == nil && g.running {
		err = g.Step()
	}
	if err != nil {
		g.log.Error("game loop failed", zap.Error(err))
	}
	return multierr.Append(err, g.stop())
}

func (g *Game) start() error {
	g.running = true
	g.lastUpdate = g.clock.Now()
	g.fpsTimer = g.lastUpdate
	if h, ok := g.hooks.(Starter); ok {
		if err := h.Start(g); err != nil {
			return fmt.Errorf("starting game: %w", err)
		}
	}
	return nil
}

func (g *Game) stop() error {
	g.running = false
	g.stopped = true

	err := multierr.Append(g.ExitState(), g.deinitStates())
	if h, ok := g.hooks.(Stopper); ok {
		err = multierr.Append(err, h.Stop(g))
	}
	g.log.Info("game stopped")
	return err
}

func (g *Game) deinitStates() error {
	var err error
	for _, s := range g.states {
		if d, ok := s.(Deinitializer); ok {
			err = multierr.Append(err, d.Deinit(g))
		}
	}
	return err
}

// Stop ends the loop after the current frame.
func (g *Game) Stop() {
	if g.running {
		g.running = false
		g.stopped = true
	}
}

// Step runs one update and one render.
func (g *Game) Step() error {
	if !g.running {
		return fmt.Errorf("%w: game is not running", fault.ErrIllegalState)
	}

	now := g.clock.Now()
	delta := now - g.lastUpdate
	g.lastUpdate = now

	if err := g.update(delta); err != nil {
		return fmt.Errorf("update error: %w", err)
	}
	if err := g.render(); err != nil {
		return fmt.Errorf("render error: %w", err)
	}

	// FPS counter
	g.frameCount++
	if now-g.fpsTimer >= time.Second {
		g.fps = g.frameCount
		g.log.Debug("fps", zap.Int("count", g.frameCount), zap.Duration("dt", delta))
		g.frameCount = 0
		g.fpsTimer = now
	}
	return nil
}

func (g *Game) update(delta time.Duration) error {
	var events []input.Event
	if g.gfx != nil {
		events = g.gfx.PollEvents()
	}
	g.input.Update(events)

	if h, ok := g.hooks.(PreUpdater); ok {
		if err := h.PreUpdate(g, delta); err != nil {
			return err
		}
	}
	if g.current != nil {
		if err := g.current.Update(g, delta); err != nil {
			return err
		}
	}
	if h, ok := g.hooks.(PostUpdater); ok {
		return h.PostUpdate(g, delta)
	}
	return nil
}

func (g *Game) render() error {
	if h, ok := g.hooks.(PreRenderer); ok {
		if err := h.PreRender(g); err != nil {
			return err
		}
	}
	if g.current != nil {
		if err := g.current.Render(g); err != nil {
			return err
		}
	}
	if h, ok := g.hooks.(PostRenderer); ok {
		return h.PostRender(g)
	}
	return nil
}

// Destroy releases the game. It fails while the loop is running.
func (g *Game) Destroy() error {
	if g.running {
		return fmt.Errorf("%w: cannot destroy a game while it is running", fault.ErrIllegalState)
	}
	if g.destroyed {
		return nil
	}
	g.destroyed = true

	var err error
	if !g.stopped {
		err = g.deinitStates()
	}
	if h, ok := g.hooks.(Destroyer); ok {
		err = multierr.Append(err, h.Destroy(g))
	}
	g.states = nil
	g.current = nil
	return err
}
