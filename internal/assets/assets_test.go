package assets

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/Faultbox/titlecard/internal/engine/audio"
	"github.com/Faultbox/titlecard/internal/engine/backend/headless"
	"github.com/Faultbox/titlecard/internal/engine/fault"
	"github.com/Faultbox/titlecard/internal/engine/graphics"
)

func writeFile(t *testing.T, root, rel string, data []byte) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func writePNG(t *testing.T, root, rel string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	f, err := os.Create(p)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func newContext() (*graphics.Context, *headless.Backend) {
	b := headless.New(nil)
	return graphics.NewContext(b, nil), b
}

func TestManager_LoadCaches(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "data/hello.txt", []byte("hello"))
	m := NewManager(root, nil)

	data, err := m.Load("data/hello.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	writeFile(t, root, "data/hello.txt", []byte("changed"))
	data, err = m.Load("/data/./hello.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data), "served from cache")

	hits, misses := m.Cache().Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)

	m.Invalidate("data/hello.txt")
	data, err = m.Load("data/hello.txt")
	require.NoError(t, err)
	assert.Equal(t, "changed", string(data))

	m.Close()
	assert.Equal(t, 0, m.Cache().Len())
}

func TestManager_LoadErrors(t *testing.T) {
	m := NewManager(t.TempDir(), nil)

	_, err := m.Load("missing.png")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, fault.ErrIO))

	_, err = m.Load("")
	assert.True(t, errors.Is(err, fault.ErrIllegalArgument))
}

func TestManager_LoadSprite(t *testing.T) {
	root := t.TempDir()
	writePNG(t, root, "sprites/title/banner.png", 8, 4)

	f, err := os.Create(filepath.Join(root, "sprites", "title", "black.bmp"))
	require.NoError(t, err)
	require.NoError(t, bmp.Encode(f, image.NewRGBA(image.Rect(0, 0, 3, 2))))
	require.NoError(t, f.Close())

	writeFile(t, root, "sprites/title/broken.png", []byte("not a png"))

	ctx, b := newContext()
	m := NewManager(root, nil)

	sprite, err := m.LoadSprite(ctx, "sprites/title/banner.png")
	require.NoError(t, err)
	w, h := sprite.Size()
	assert.Equal(t, 8, w)
	assert.Equal(t, 4, h)

	sprite, err = m.LoadSprite(ctx, "sprites/title/black.bmp")
	require.NoError(t, err)
	w, h = sprite.Size()
	assert.Equal(t, 3, w)
	assert.Equal(t, 2, h)
	assert.Equal(t, 2, b.LiveTextures())

	_, err = m.LoadSprite(ctx, "sprites/title/broken.png")
	assert.True(t, errors.Is(err, fault.ErrIO))
}

func TestManager_LoadSound(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, "sfx", "menu")
	require.NoError(t, os.MkdirAll(p, 0o755))
	f, err := os.Create(filepath.Join(p, "select.wav"))
	require.NoError(t, err)
	format := beep.Format{SampleRate: audio.DefaultSampleRate, NumChannels: 2, Precision: 2}
	require.NoError(t, wav.Encode(f, beep.Silence(audio.DefaultSampleRate.N(100*time.Millisecond)), format))
	require.NoError(t, f.Close())

	sounds := audio.New(audio.NewSilentMixer(audio.DefaultSampleRate), nil)
	defer sounds.Close()
	m := NewManager(root, nil)

	s, err := m.LoadSound(sounds, "sfx/menu/select.wav", audio.Effect, true)
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, s.Length())
	assert.Equal(t, audio.Effect, s.Category())

	streamed, err := m.LoadSound(sounds, "sfx/menu/select.wav", audio.Music, false)
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, streamed.Length())
	assert.Equal(t, 2, sounds.Sounds())
}

func TestParseManifest(t *testing.T) {
	mf, err := ParseManifest([]byte(`
sprites:
  title: [banner, bg]
animations:
  title:
    sonic_finger_wag: {frames: 4, duration: 400ms, loop: true, ping_pong: true}
sounds:
  ost:
    title: [title_theme_intro, title_theme_loop]
  sfx:
    menu: [select]
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"banner", "bg"}, mf.Sprites["title"])
	assert.Equal(t, AnimationSpec{Frames: 4, Duration: 400 * time.Millisecond, Loop: true, PingPong: true},
		mf.Animations["title"]["sonic_finger_wag"])
	assert.Equal(t, []string{"title_theme_intro", "title_theme_loop"}, mf.Sounds.OST["title"])
	assert.Equal(t, []string{"select"}, mf.Sounds.SFX["menu"])
}

func TestParseManifest_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "sprites: [unclosed"},
		{"no frames", "animations: {title: {wag: {frames: 0, duration: 1s}}}"},
		{"no duration", "animations: {title: {wag: {frames: 2}}}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.data))
			assert.True(t, errors.Is(err, fault.ErrIllegalArgument))
		})
	}
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "sprites/title/bg.png", SpritePath("title", "bg"))
	assert.Equal(t, "sprites/title/wag/wag_2.png", FramePath("title", "wag", 2))
	assert.Equal(t, "ost/title/title_theme_loop.ogg", SoundPath("ost", "title", "title_theme_loop"))
	assert.Equal(t, "sfx/menu/select.wav", SoundPath("sfx", "menu", "select.wav"))
}

func TestManager_LoadLibrary(t *testing.T) {
	root := t.TempDir()
	writePNG(t, root, "sprites/title/banner.png", 16, 8)
	writePNG(t, root, "sprites/title/bg.png", 32, 32)
	for i := range 4 {
		writePNG(t, root, FramePath("title", "wag", i), 10, 10)
	}
	writeFile(t, root, "manifest.yaml", []byte(`
sprites:
  title: [banner, bg]
animations:
  title:
    wag: {frames: 4, duration: 400ms, loop: true, ping_pong: true}
`))

	ctx, b := newContext()
	m := NewManager(root, nil)

	mf, err := m.LoadManifest("manifest.yaml")
	require.NoError(t, err)
	lib, err := m.LoadLibrary(ctx, nil, mf)
	require.NoError(t, err)

	spr, an, snd := lib.Counts()
	assert.Equal(t, 2, spr)
	assert.Equal(t, 1, an)
	assert.Equal(t, 0, snd)
	assert.Equal(t, 6, b.LiveTextures())

	wag := lib.Animation("title", "wag")
	require.NotNil(t, wag)
	assert.Equal(t, 4, wag.Len())
	assert.Equal(t, 400*time.Millisecond, wag.TotalDuration())
	loop, pingPong := wag.Looping()
	assert.True(t, loop)
	assert.True(t, pingPong)
	assert.NotNil(t, lib.Sprite("title", "bg"))
	assert.Nil(t, lib.Sprite("title", "missing"))

	require.NoError(t, lib.Close())
	assert.Equal(t, 0, b.LiveTextures())
}

func TestManager_LoadLibraryRollsBack(t *testing.T) {
	root := t.TempDir()
	writePNG(t, root, "sprites/title/banner.png", 16, 8)
	writePNG(t, root, FramePath("title", "wag", 0), 10, 10)

	mf := &Manifest{
		Sprites: map[string][]string{"title": {"banner"}},
		Animations: map[string]map[string]AnimationSpec{
			"title": {"wag": {Frames: 2, Duration: time.Second}},
		},
	}

	ctx, b := newContext()
	m := NewManager(root, nil)

	_, err := m.LoadLibrary(ctx, nil, mf)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, 0, b.LiveTextures())
}

func TestManager_Watch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "sprites/title/bg.png", []byte("v1"))
	m := NewManager(root, nil)

	_, err := m.Load("sprites/title/bg.png")
	require.NoError(t, err)

	changed := make(chan string, 4)
	w, err := m.Watch(func(p string) {
		select {
		case changed <- p:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()

	tmp := writeFile(t, root, "sprites/title/bg.tmp", []byte("v2"))
	require.NoError(t, os.Rename(tmp, filepath.Join(root, "sprites", "title", "bg.png")))

	select {
	case p := <-changed:
		assert.Equal(t, "sprites/title/bg.png", p)
	case <-time.After(5 * time.Second):
		t.Fatal("no change event")
	}

	data, err := m.Load("sprites/title/bg.png")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher(root)
	require.NoError(t, err)

	writeFile(t, root, "notes.txt", []byte("x"))
	writeFile(t, root, "manifest.yaml", []byte("sprites: {}"))

	select {
	case p := <-w.Events:
		assert.Equal(t, "manifest.yaml", p)
	case <-time.After(5 * time.Second):
		t.Fatal("no change event")
	}

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	for range w.Events {
	}
}
