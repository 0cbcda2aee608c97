package title

import (
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/titlecard/internal/assets"
	"github.com/Faultbox/titlecard/internal/engine/audio"
	"github.com/Faultbox/titlecard/internal/engine/backend/headless"
	"github.com/Faultbox/titlecard/internal/engine/clock"
	"github.com/Faultbox/titlecard/internal/engine/graphics"
	"github.com/Faultbox/titlecard/internal/engine/input"
	"github.com/Faultbox/titlecard/internal/game"
)

var spriteSizes = map[string][2]int{
	"medal":       {64, 48},
	"banner":      {100, 20},
	"tm":          {8, 8},
	"press_enter": {60, 8},
	"c_sega_1993": {80, 8},
}

func writePNG(t *testing.T, root, rel string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{B: 255, A: 255})
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	f, err := os.Create(p)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func writeWAV(t *testing.T, root, rel string, length time.Duration) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	f, err := os.Create(p)
	require.NoError(t, err)
	defer f.Close()
	format := beep.Format{SampleRate: audio.DefaultSampleRate, NumChannels: 2, Precision: 2}
	require.NoError(t, wav.Encode(f, beep.Silence(audio.DefaultSampleRate.N(length)), format))
}

// writeAssets lays out a title asset tree with WAV sounds and returns a
// manifest for it.
func writeAssets(t *testing.T) (string, *assets.Manifest) {
	t.Helper()
	root := t.TempDir()
	for _, name := range sprites {
		size, ok := spriteSizes[name]
		if !ok {
			size = [2]int{16, 16}
		}
		writePNG(t, root, assets.SpritePath(object, name), size[0], size[1])
	}
	for i := range bustAppearFrames {
		writePNG(t, root, assets.FramePath(object, "sonic_bust_appear", i), 30+2*i, 50+i)
	}
	for i := range fingerWagFrames {
		writePNG(t, root, assets.FramePath(object, "sonic_finger_wag", i), 10, 10)
	}
	writeWAV(t, root, "ost/title/title_theme_intro.wav", 200*time.Millisecond)
	writeWAV(t, root, "ost/title/title_theme_loop.wav", 300*time.Millisecond)
	writeWAV(t, root, "sfx/menu/select.wav", 50*time.Millisecond)

	mf := Manifest(false)
	mf.Sounds = assets.SoundSpecs{
		OST: map[string][]string{object: {"title_theme_intro.wav", "title_theme_loop.wav"}},
		SFX: map[string][]string{"menu": {"select.wav"}},
	}
	return root, mf
}

type fixture struct {
	backend *headless.Backend
	gfx     *graphics.Context
	mixer   *audio.SilentMixer
	sounds  *audio.Manager
	clock   *clock.Manual
	state   *State
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root, mf := writeAssets(t)

	b := headless.New(nil)
	gfx := graphics.NewContext(b, nil)
	t.Cleanup(func() { _ = gfx.Close() })
	_, err := gfx.CreateWindow(graphics.WindowConfig{Title: "test", Width: 64, Height: 64, Hidden: true})
	require.NoError(t, err)

	mixer := audio.NewSilentMixer(audio.DefaultSampleRate)
	sounds := audio.New(mixer, nil)
	t.Cleanup(func() { _ = sounds.Close() })

	st := NewState(Options{
		Assets:   assets.NewManager(root, nil),
		Sounds:   sounds,
		Manifest: mf,
	})
	return &fixture{backend: b, gfx: gfx, mixer: mixer, sounds: sounds, clock: &clock.Manual{}, state: st}
}

// run steps the state in 10ms frames for d, as the game loop would.
func (f *fixture) run(t *testing.T, g *game.Game, d time.Duration) {
	t.Helper()
	const frame = 10 * time.Millisecond
	for elapsed := time.Duration(0); elapsed < d; elapsed += frame {
		f.mixer.Advance(frame)
		f.clock.Advance(frame)
		require.NoError(t, f.state.Update(g, frame))
		if g.Current() == nil {
			return
		}
		require.NoError(t, f.state.Render(g))
		g.Input().Update(nil)
	}
}

func TestState_Sequence(t *testing.T) {
	f := newFixture(t)
	g, err := game.New(nil, game.Config{Clock: f.clock, Graphics: f.gfx})
	require.NoError(t, err)
	require.NoError(t, g.AddState(f.state))

	proj, err := graphics.NewScreenOrtho(ScreenWidth, ScreenHeight, 1000)
	require.NoError(t, err)
	target, err := f.gfx.CreateScene(proj, ScreenWidth, ScreenHeight)
	require.NoError(t, err)
	require.NoError(t, g.EnterState(f.state, target))

	st := f.state
	bw, bh := st.bust.scene.Size()
	assert.Equal(t, 38, bw, "widest appear frame")
	assert.Equal(t, 54, bh, "tallest appear frame")

	f.run(t, g, 990*time.Millisecond)
	assert.Equal(t, introSuspense, st.intro.phase)
	assert.Equal(t, audio.Stopped, st.themeIntro.State())

	f.run(t, g, 10*time.Millisecond)
	assert.Equal(t, audio.Playing, st.themeIntro.State())
	assert.False(t, st.intro.startedLoop)

	f.run(t, g, 30*time.Millisecond)
	assert.Equal(t, introReveal, st.intro.phase)

	f.run(t, g, 270*time.Millisecond)
	assert.Equal(t, introDone, st.intro.phase)
	assert.Equal(t, audio.Stopped, st.themeIntro.State())
	assert.Equal(t, audio.Playing, st.themeLoop.State())
	assert.True(t, st.themeLoop.Looping())
	assert.Less(t, st.intro.flashAlpha, float32(1))
	assert.Greater(t, st.intro.flashAlpha, float32(0))
	assert.Zero(t, st.bust.wags)

	f.run(t, g, 2100*time.Millisecond)
	assert.LessOrEqual(t, st.intro.flashAlpha, float32(0))
	assert.True(t, st.bust.wagged)
	assert.Positive(t, st.bust.wags)

	f.run(t, g, time.Second)
	assert.Zero(t, st.bust.wags, "finger wagged twice")
	assert.False(t, st.bust.wag.Backwards())
	assert.Equal(t, audio.Playing, st.themeLoop.State())

	g.Input().Update([]input.Event{{Type: input.EventKeyDown, Key: input.KeyEnter}})
	f.run(t, g, 10*time.Millisecond)
	assert.True(t, st.outro.inProgress)
	assert.Equal(t, fastBlink, st.fg.prompt.display)
	assert.Equal(t, audio.Playing, st.selectSFX.State())

	f.run(t, g, 500*time.Millisecond)
	assert.InDelta(t, 0.5, st.themeLoop.Volume(), 0.01)
	assert.False(t, st.Finished())

	f.run(t, g, time.Second)
	assert.True(t, st.Finished())
	assert.Nil(t, g.Current())

	require.NoError(t, target.Destroy())
	require.NoError(t, proj.Destroy())
	require.NoError(t, g.Destroy())
	assert.Zero(t, f.backend.LiveTextures())
	assert.Zero(t, f.backend.LiveTargets())
}

func TestState_Layout(t *testing.T) {
	f := newFixture(t)
	g, err := game.New(nil, game.Config{Clock: f.clock, Graphics: f.gfx})
	require.NoError(t, err)
	require.NoError(t, g.AddState(f.state))

	proj, err := graphics.NewScreenOrtho(ScreenWidth, ScreenHeight, 1000)
	require.NoError(t, err)
	target, err := f.gfx.CreateScene(proj, ScreenWidth, ScreenHeight)
	require.NoError(t, err)
	require.NoError(t, g.EnterState(f.state, target))

	fg := f.state.fg
	offset := func(s *graphics.Sprite) [2]float32 {
		o := s.Offset()
		return [2]float32{o.X(), o.Y()}
	}
	assert.Equal(t, [2]float32{96, 88}, offset(fg.medal))
	assert.Equal(t, [2]float32{78, 135}, offset(fg.banner))
	assert.Equal(t, [2]float32{170, 135}, offset(fg.tm))
	assert.Equal(t, [2]float32{98, 142}, offset(fg.prompt.sprite))
	assert.Equal(t, [2]float32{88, 211}, offset(fg.copyright))

	sprite := f.state.bust.scene.Sprite()
	assert.Equal(t, float32(bustXScale), sprite.Scale().X())
	assert.Equal(t, [2]float32{bustX, bustY}, offset(sprite))

	first, err := f.state.wag.Sprite(0)
	require.NoError(t, err)
	assert.Equal(t, [2]float32{59, 49}, offset(first))

	require.NoError(t, g.ExitState())
	assert.Equal(t, 1, f.backend.LiveTargets(), "only the target scene is left")
}

func TestState_EnterNeedsScene(t *testing.T) {
	f := newFixture(t)
	g, err := game.New(nil, game.Config{Graphics: f.gfx})
	require.NoError(t, err)
	require.NoError(t, g.AddState(f.state))

	assert.Error(t, g.EnterState(f.state, nil))
	assert.Error(t, g.EnterState(f.state, "scene"))
}

func TestState_InitMissingAssets(t *testing.T) {
	b := headless.New(nil)
	gfx := graphics.NewContext(b, nil)
	defer gfx.Close()

	st := NewState(Options{Assets: assets.NewManager(t.TempDir(), nil)})
	g, err := game.New(nil, game.Config{Graphics: gfx})
	require.NoError(t, err)

	err = g.AddState(st)
	assert.ErrorIs(t, err, assets.ErrNotFound)
	assert.Zero(t, b.LiveTextures())
}

func TestState_Variant(t *testing.T) {
	st := NewState(Options{VariantChance: 1, Rand: rand.New(rand.NewPCG(1, 2))})
	g, err := game.New(nil, game.Config{})
	require.NoError(t, err)
	assert.Error(t, st.Init(g), "no asset manager")

	tests := []struct {
		name    string
		variant bool
		want    []string
	}{
		{"standard", false, []string{"title_theme_intro", "title_theme_loop"}},
		{"variant", true, []string{"title_theme_ym2612_intro", "title_theme_ym2612_loop"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mf := Manifest(tt.variant)
			assert.Equal(t, tt.want, mf.Sounds.OST[object])
			assert.Len(t, mf.Sprites[object], 15)
			assert.Equal(t, bustAppearFrames, mf.Animations[object]["sonic_bust_appear"].Frames)
		})
	}
}

func TestSky_Wrap(t *testing.T) {
	var sk sky
	sk.cloudZ = [numClouds]float32{127, cloudInitialZ(1)}
	sk.lakeX = [numLakes]float32{319, 0, 0, 0}

	sk.update(40)
	assert.InDelta(t, cloudInitialZ(0)+1, sk.cloudZ[0], 1e-3)
	assert.InDelta(t, cloudInitialZ(1)+2, sk.cloudZ[1], 1e-3)
	assert.InDelta(t, lakeInitialX+3, sk.lakeX[0], 1e-3)
	assert.InDelta(t, 4, sk.lakeX[1], 1e-3)

	sk.update(1e5)
	for i, z := range sk.cloudZ {
		assert.GreaterOrEqual(t, z, cloudInitialZ(i))
		assert.Less(t, z, float32(cloudFinalZ))
	}
	for _, x := range sk.lakeX {
		assert.GreaterOrEqual(t, x, float32(lakeInitialX))
		assert.Less(t, x, float32(lakeFinalX))
	}
}

func TestForeground_PromptBlink(t *testing.T) {
	f := foreground{prompt: prompt{display: promptBlink, show: true}}

	f.update(499 * time.Millisecond)
	assert.True(t, f.prompt.show)
	f.update(time.Millisecond)
	assert.False(t, f.prompt.show)
	f.update(500 * time.Millisecond)
	assert.True(t, f.prompt.show)

	f.prompt.display = 0
	f.update(time.Millisecond)
	assert.False(t, f.prompt.show)
}

func TestApp_RunUntilEscape(t *testing.T) {
	f := newFixture(t)
	app := NewApp(AppConfig{Title: "Title Card", Width: 512, Height: 448, ShowFPS: true}, f.state)
	g, err := game.New(app, game.Config{Clock: f.clock, Graphics: f.gfx})
	require.NoError(t, err)

	f.backend.Push(input.Event{Type: input.EventKeyDown, Key: input.KeyEscape})
	require.NoError(t, g.Run())

	w := f.gfx.PrimaryWindow()
	assert.True(t, w.Visible())
	assert.Equal(t, "Title Card", w.Title())
	width, height := w.Size()
	assert.Equal(t, 512, width)
	assert.Equal(t, 448, height)
	assert.Len(t, f.backend.Presents, 1)
	assert.Nil(t, w.Scene())
	assert.Nil(t, app.Scene())

	require.NoError(t, g.Destroy())
	assert.Zero(t, f.backend.LiveTextures())
	assert.Zero(t, f.backend.LiveTargets())
}

func TestApp_Screenshot(t *testing.T) {
	f := newFixture(t)
	dir := filepath.Join(t.TempDir(), "shots")
	app := NewApp(AppConfig{Title: "Title Card", Width: 128, Height: 112, ScreenshotDir: dir}, f.state)
	g, err := game.New(app, game.Config{Clock: f.clock, Graphics: f.gfx})
	require.NoError(t, err)

	f.backend.Push(
		input.Event{Type: input.EventKeyDown, Key: input.KeyF12},
		input.Event{Type: input.EventKeyDown, Key: input.KeyEscape},
	)
	require.NoError(t, g.Run())
	require.NoError(t, g.Destroy())

	shots, err := filepath.Glob(filepath.Join(dir, "titlecard_*.png"))
	require.NoError(t, err)
	require.Len(t, shots, 1)

	file, err := os.Open(shots[0])
	require.NoError(t, err)
	defer file.Close()
	cfg, err := png.DecodeConfig(file)
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.Width)
	assert.Equal(t, 112, cfg.Height)
}
