package game

import (
	"fmt"
	"slices"
	"time"

	"github.com/Faultbox/titlecard/internal/engine/fault"
)

// State represents a game state (title screen, loading, level, etc.)
type State interface {
	// Update is called every frame.
	Update(g *Game, delta time.Duration) error

	// Render is called every frame to draw the state.
	Render(g *Game) error
}

// Optional state hooks.
type (
	// Initializer is called once when the state is added.
	Initializer interface {
		Init(g *Game) error
	}
	// Deinitializer is called once when the game stops.
	Deinitializer interface {
		Deinit(g *Game) error
	}
	// Enterer is called when entering the state.
	Enterer interface {
		Enter(g *Game, args any) error
	}
	// Exiter is called when leaving the state.
	Exiter interface {
		Exit(g *Game) error
	}
)

// HasState reports whether s was added to the game.
func (g *Game) HasState(s State) bool {
	return slices.Contains(g.states, s)
}

// AddState registers s and initializes it. States must be added before
// the game runs; adding a state twice is a no-op.
func (g *Game) AddState(s State) error {
	if s == nil {
		return fmt.Errorf("%w: nil state", fault.ErrIllegalArgument)
	}
	if g.HasState(s) {
		return nil
	}
	if g.running || g.stopped || g.destroyed {
		return fmt.Errorf("%w: states must be added before the game is started", fault.ErrIllegalState)
	}
	if len(g.states) >= g.maxStates {
		return fmt.Errorf("%w: max number of game states (%d) reached", fault.ErrOutOfMemory, g.maxStates)
	}

	if i, ok := s.(Initializer); ok {
		if err := i.Init(g); err != nil {
			return fmt.Errorf("initializing state: %w", err)
		}
	}
	g.states = append(g.states, s)
	return nil
}

// EnterState exits the current state and enters s with args.
func (g *Game) EnterState(s State, args any) error {
	if !g.HasState(s) {
		return fmt.Errorf("%w: state is not part of the game", fault.ErrIllegalArgument)
	}
	if err := g.ExitState(); err != nil {
		return err
	}
	if e, ok := s.(Enterer); ok {
		if err := e.Enter(g, args); err != nil {
			return fmt.Errorf("entering state: %w", err)
		}
	}
	g.current = s
	return nil
}

// ExitState leaves the current state, if any.
func (g *Game) ExitState() error {
	s := g.current
	if s == nil {
		return nil
	}
	g.current = nil
	if e, ok := s.(Exiter); ok {
		if err := e.Exit(g); err != nil {
			return fmt.Errorf("exiting state: %w", err)
		}
	}
	return nil
}

// Current returns the current state.
func (g *Game) Current() State {
	return g.current
}
