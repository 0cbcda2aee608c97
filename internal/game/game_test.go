package game

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/titlecard/internal/engine/backend/headless"
	"github.com/Faultbox/titlecard/internal/engine/clock"
	"github.com/Faultbox/titlecard/internal/engine/fault"
	"github.com/Faultbox/titlecard/internal/engine/graphics"
	"github.com/Faultbox/titlecard/internal/engine/input"
)

// recorder logs every hook call and stops the game after a number of frames.
type recorder struct {
	calls   []string
	frames  int
	stopAt  int
	clk     *clock.Manual
	step    time.Duration
	deltas  []time.Duration
	failOn  string
	initial State
}

func (r *recorder) hook(name string) error {
	r.calls = append(r.calls, name)
	if r.failOn == name {
		return errors.New(name + " failed")
	}
	return nil
}

func (r *recorder) Create(g *Game) error  { return r.hook("create") }
func (r *recorder) Destroy(g *Game) error { return r.hook("destroy") }
func (r *recorder) Stop(g *Game) error    { return r.hook("stop") }

func (r *recorder) Start(g *Game) error {
	if err := r.hook("start"); err != nil {
		return err
	}
	if r.initial != nil {
		return g.EnterState(r.initial, "from-start")
	}
	return nil
}

func (r *recorder) PreUpdate(g *Game, delta time.Duration) error {
	r.deltas = append(r.deltas, delta)
	return r.hook("pre_update")
}

func (r *recorder) PostUpdate(g *Game, delta time.Duration) error {
	return r.hook("post_update")
}

func (r *recorder) PreRender(g *Game) error { return r.hook("pre_render") }

func (r *recorder) PostRender(g *Game) error {
	r.frames++
	if r.clk != nil {
		r.clk.Advance(r.step)
	}
	if r.frames >= r.stopAt {
		g.Stop()
	}
	return r.hook("post_render")
}

type testState struct {
	log  *[]string
	name string
	args any
}

func (s *testState) add(call string) { *s.log = append(*s.log, s.name+"."+call) }

func (s *testState) Init(g *Game) error   { s.add("init"); return nil }
func (s *testState) Deinit(g *Game) error { s.add("deinit"); return nil }
func (s *testState) Exit(g *Game) error   { s.add("exit"); return nil }
func (s *testState) Render(g *Game) error { s.add("render"); return nil }

func (s *testState) Enter(g *Game, args any) error {
	s.args = args
	s.add("enter")
	return nil
}

func (s *testState) Update(g *Game, delta time.Duration) error {
	s.add("update")
	return nil
}

// bare implements only the required methods.
type bare struct{ updates int }

func (b *bare) Update(g *Game, delta time.Duration) error { b.updates++; return nil }
func (b *bare) Render(g *Game) error                      { return nil }

func TestGame_RunDispatchOrder(t *testing.T) {
	clk := &clock.Manual{}
	r := &recorder{stopAt: 2, clk: clk, step: 16 * time.Millisecond}
	g, err := New(r, Config{Clock: clk})
	require.NoError(t, err)

	var log []string
	st := &testState{log: &log, name: "title"}
	require.NoError(t, g.AddState(st))
	r.initial = st

	require.NoError(t, g.Run())
	assert.False(t, g.Running())
	assert.Nil(t, g.Current())
	assert.Equal(t, "from-start", st.args)

	assert.Equal(t, []string{
		"create", "start",
		"pre_update", "post_update", "pre_render", "post_render",
		"pre_update", "post_update", "pre_render", "post_render",
		"stop",
	}, r.calls)
	assert.Equal(t, []string{
		"title.init", "title.enter",
		"title.update", "title.render",
		"title.update", "title.render",
		"title.exit", "title.deinit",
	}, log)
	assert.Equal(t, []time.Duration{0, 16 * time.Millisecond}, r.deltas)

	require.NoError(t, g.Destroy())
	assert.Equal(t, "destroy", r.calls[len(r.calls)-1])
}

func TestGame_RunOnlyOnce(t *testing.T) {
	g, err := New(&recorder{stopAt: 1}, Config{Clock: &clock.Manual{}})
	require.NoError(t, err)
	require.NoError(t, g.Run())

	err = g.Run()
	assert.True(t, errors.Is(err, fault.ErrIllegalState))

	err = g.AddState(&bare{})
	assert.True(t, errors.Is(err, fault.ErrIllegalState))
}

func TestGame_HookErrorStopsLoop(t *testing.T) {
	r := &recorder{stopAt: 100, failOn: "pre_render"}
	g, err := New(r, Config{Clock: &clock.Manual{}})
	require.NoError(t, err)

	err = g.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render error: pre_render failed")
	assert.False(t, g.Running())
	assert.Equal(t, "stop", r.calls[len(r.calls)-1])
}

func TestGame_CreateError(t *testing.T) {
	_, err := New(&recorder{failOn: "create"}, Config{})
	assert.Error(t, err)
}

func TestGame_NoHooks(t *testing.T) {
	clk := &clock.Manual{}
	g, err := New(nil, Config{Clock: clk})
	require.NoError(t, err)

	b := &bare{}
	require.NoError(t, g.AddState(b))
	require.NoError(t, g.EnterState(b, nil))

	err = g.Step()
	assert.True(t, errors.Is(err, fault.ErrIllegalState), "step before run")
	assert.Equal(t, 0, b.updates)
}

func TestGame_States(t *testing.T) {
	g, err := New(nil, Config{MaxStates: 2})
	require.NoError(t, err)

	var log []string
	a := &testState{log: &log, name: "a"}
	b := &testState{log: &log, name: "b"}
	c := &bare{}

	err = g.EnterState(a, nil)
	assert.True(t, errors.Is(err, fault.ErrIllegalArgument))

	require.NoError(t, g.AddState(a))
	require.NoError(t, g.AddState(a), "adding twice is a no-op")
	require.NoError(t, g.AddState(b))
	assert.True(t, g.HasState(b))

	err = g.AddState(c)
	assert.True(t, errors.Is(err, fault.ErrOutOfMemory))
	assert.False(t, g.HasState(c))

	err = g.AddState(nil)
	assert.True(t, errors.Is(err, fault.ErrIllegalArgument))

	require.NoError(t, g.EnterState(a, 1))
	require.NoError(t, g.EnterState(b, 2))
	assert.Equal(t, State(b), g.Current())
	require.NoError(t, g.ExitState())
	require.NoError(t, g.ExitState())
	assert.Nil(t, g.Current())

	assert.Equal(t, []string{"a.init", "b.init", "a.enter", "a.exit", "b.enter", "b.exit"}, log)

	require.NoError(t, g.Destroy())
	assert.Equal(t, []string{"a.deinit", "b.deinit"}, log[len(log)-2:])
	require.NoError(t, g.Destroy())
}

func TestGame_DestroyWhileRunning(t *testing.T) {
	var destroyErr error
	r := &recorder{stopAt: 1}
	g, err := New(r, Config{Clock: &clock.Manual{}})
	require.NoError(t, err)

	st := &destroyingState{err: &destroyErr}
	require.NoError(t, g.AddState(st))
	require.NoError(t, g.EnterState(st, nil))
	require.NoError(t, g.Run())
	assert.True(t, errors.Is(destroyErr, fault.ErrIllegalState))
}

type destroyingState struct{ err *error }

func (s *destroyingState) Update(g *Game, delta time.Duration) error {
	*s.err = g.Destroy()
	return nil
}
func (s *destroyingState) Render(g *Game) error { return nil }

func TestGame_PollsInput(t *testing.T) {
	b := headless.New(nil)
	gfx := graphics.NewContext(b, nil)
	defer gfx.Close()
	_, err := gfx.CreateWindow(graphics.WindowConfig{Title: "test", Width: 64, Height: 64})
	require.NoError(t, err)

	clk := &clock.Manual{}
	r := &recorder{stopAt: 1}
	g, err := New(r, Config{Clock: clk, Graphics: gfx})
	require.NoError(t, err)

	b.Push(input.Event{Type: input.EventKeyDown, Key: input.KeyEnter})
	require.NoError(t, g.Run())
	assert.True(t, g.Input().IsKeyJustPressed(input.KeyEnter))
}

func TestGame_FPS(t *testing.T) {
	clk := &clock.Manual{}
	r := &recorder{stopAt: 60, clk: clk, step: 20 * time.Millisecond}
	g, err := New(r, Config{Clock: clk})
	require.NoError(t, err)

	require.NoError(t, g.Run())
	assert.InDelta(t, 50, g.FPS(), 1)
}
