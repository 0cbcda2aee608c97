package title

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/titlecard/internal/engine/backend"
	"github.com/Faultbox/titlecard/internal/engine/debug"
	"github.com/Faultbox/titlecard/internal/engine/fault"
	"github.com/Faultbox/titlecard/internal/engine/graphics"
	"github.com/Faultbox/titlecard/internal/engine/input"
	"github.com/Faultbox/titlecard/internal/game"
)

// AppConfig configures the window the title screen runs in.
type AppConfig struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	// ScreenWidth and ScreenHeight are the logical resolution stretched
	// over the window. Zero means ScreenWidth by ScreenHeight.
	ScreenWidth  int
	ScreenHeight int
	// ShowFPS appends the frame rate to the window title.
	ShowFPS bool
	// ScreenshotDir receives F12 screenshots. Empty disables them.
	ScreenshotDir string
}

// App holds the game hooks: it owns the window scene and hands it to the
// title state.
type App struct {
	cfg   AppConfig
	state *State

	window *graphics.Window
	proj   *graphics.Projection
	scene  *graphics.Scene

	shots *debug.Screenshots
	shoot bool
	fps   int
}

// NewApp creates the hooks for a game running state.
func NewApp(cfg AppConfig, state *State) *App {
	a := &App{cfg: cfg, state: state}
	if cfg.ScreenshotDir != "" {
		a.shots = debug.NewScreenshots(cfg.ScreenshotDir, "titlecard")
	}
	return a
}

// Scene returns the scene bound to the window while the game runs.
func (a *App) Scene() *graphics.Scene { return a.scene }

// Create registers the title state.
func (a *App) Create(g *game.Game) error {
	return g.AddState(a.state)
}

// Start sets up the window and its scene, then enters the title state.
func (a *App) Start(g *game.Game) error {
	gfx := g.Graphics()
	if gfx == nil {
		return fmt.Errorf("%w: no graphics context", fault.ErrIllegalState)
	}
	a.window = gfx.PrimaryWindow()
	if a.window == nil {
		return fmt.Errorf("%w: no primary window", fault.ErrIllegalState)
	}

	a.window.SetTitle(a.cfg.Title)
	if err := a.window.SetSize(a.cfg.Width, a.cfg.Height); err != nil {
		return err
	}
	if a.cfg.Fullscreen {
		if err := a.window.SetDisplayMode(backend.BorderlessFullscreen); err != nil {
			g.Log().Warn("fullscreen unavailable", zap.Error(err))
		}
	}

	sw, sh := a.cfg.ScreenWidth, a.cfg.ScreenHeight
	if sw <= 0 || sh <= 0 {
		sw, sh = ScreenWidth, ScreenHeight
	}
	proj, err := graphics.NewScreenOrtho(float32(sw), float32(sh), 1000)
	if err != nil {
		return err
	}
	width, height := a.window.Size()
	scene, err := gfx.CreateScene(proj, width, height)
	if err != nil {
		return multierr.Append(err, proj.Destroy())
	}
	a.proj, a.scene = proj, scene
	if err := a.window.BindScene(scene); err != nil {
		return err
	}

	if err := g.EnterState(a.state, scene); err != nil {
		return err
	}
	a.window.Show()
	return nil
}

// Stop unbinds and destroys the window scene.
func (a *App) Stop(g *game.Game) error {
	var err error
	if a.window != nil {
		err = a.window.BindScene(nil)
	}
	if a.scene != nil {
		err = multierr.Append(err, a.scene.Destroy())
	}
	if a.proj != nil {
		err = multierr.Append(err, a.proj.Destroy())
	}
	a.scene, a.proj = nil, nil
	return err
}

// PreUpdate handles Escape and F12.
func (a *App) PreUpdate(g *game.Game, delta time.Duration) error {
	if g.Input().IsKeyJustPressed(input.KeyEscape) && a.window != nil {
		a.window.SetShouldClose(true)
	}
	if g.Input().IsKeyJustPressed(input.KeyF12) && a.shots != nil {
		a.shoot = true
	}
	return nil
}

// PostUpdate stops the game once a window asks to close.
func (a *App) PostUpdate(g *game.Game, delta time.Duration) error {
	if g.Graphics().AnyWindowShouldClose() {
		g.Stop()
	}
	return nil
}

// PreRender clears the window scene.
func (a *App) PreRender(g *game.Game) error {
	return a.window.Clear()
}

// PostRender presents the frame, then takes any pending screenshot.
func (a *App) PostRender(g *game.Game) error {
	if _, err := a.window.Render(); err != nil {
		return err
	}
	if a.shoot {
		a.shoot = false
		a.screenshot(g)
	}
	if a.cfg.ShowFPS && g.FPS() != a.fps {
		a.fps = g.FPS()
		a.window.SetTitle(fmt.Sprintf("%s (%d fps)", a.cfg.Title, a.fps))
	}
	return nil
}

// screenshot saves the frame just rendered. Failures are logged only.
func (a *App) screenshot(g *game.Game) {
	img, err := a.scene.Capture()
	if err == nil {
		var path string
		path, err = a.shots.Save(img)
		if err == nil {
			g.Log().Info("screenshot saved", zap.String("path", path))
			return
		}
	}
	g.Log().Warn("screenshot failed", zap.Error(err))
}
