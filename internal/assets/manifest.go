package assets

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/titlecard/internal/engine/anim"
	"github.com/Faultbox/titlecard/internal/engine/audio"
	"github.com/Faultbox/titlecard/internal/engine/fault"
	"github.com/Faultbox/titlecard/internal/engine/graphics"
)

// Manifest lists the assets a game state needs, grouped by object.
//
//	sprites:
//	  title: [banner, bg]
//	animations:
//	  title:
//	    sonic_finger_wag: {frames: 3, duration: 500ms}
//	sounds:
//	  ost:
//	    title: [title_theme_intro]
//	  sfx:
//	    menu: [select]
type Manifest struct {
	Sprites    map[string][]string                 `yaml:"sprites"`
	Animations map[string]map[string]AnimationSpec `yaml:"animations"`
	Sounds     SoundSpecs                          `yaml:"sounds"`
}

// AnimationSpec describes an animation stored as numbered frame images.
// Duration is the length of the whole animation, split evenly across frames.
type AnimationSpec struct {
	Frames   int           `yaml:"frames"`
	Duration time.Duration `yaml:"duration"`
	Loop     bool          `yaml:"loop"`
	PingPong bool          `yaml:"ping_pong"`
}

// SoundSpecs lists music tracks and sound effects by object.
type SoundSpecs struct {
	OST map[string][]string `yaml:"ost"`
	SFX map[string][]string `yaml:"sfx"`
}

// SpritePath returns the asset path of a sprite image.
func SpritePath(object, name string) string {
	return fmt.Sprintf("sprites/%s/%s.png", object, name)
}

// FramePath returns the asset path of an animation frame.
func FramePath(object, name string, frame int) string {
	return fmt.Sprintf("sprites/%s/%s/%s_%d.png", object, name, name, frame)
}

// SoundPath returns the asset path of a sound in the ost or sfx category.
// Names without an extension are Ogg Vorbis files.
func SoundPath(category, object, name string) string {
	if path.Ext(name) == "" {
		name += ".ogg"
	}
	return fmt.Sprintf("%s/%s/%s", category, object, name)
}

// Key joins an object and asset name into a library key.
func Key(object, name string) string {
	return object + "/" + name
}

// ParseManifest parses and validates a YAML manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var mf Manifest
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("%w: parsing manifest: %w", fault.ErrIllegalArgument, err)
	}
	if err := mf.Validate(); err != nil {
		return nil, err
	}
	return &mf, nil
}

// Validate checks every animation has frames and a duration.
func (mf *Manifest) Validate() error {
	for object, anims := range mf.Animations {
		for name, spec := range anims {
			if spec.Frames <= 0 {
				return fmt.Errorf("%w: animation %s has no frames", fault.ErrIllegalArgument, Key(object, name))
			}
			if spec.Duration <= 0 {
				return fmt.Errorf("%w: animation %s has no duration", fault.ErrIllegalArgument, Key(object, name))
			}
		}
	}
	return nil
}

// LoadManifest reads and parses a manifest asset.
func (m *Manager) LoadManifest(p string) (*Manifest, error) {
	data, err := m.Load(p)
	if err != nil {
		return nil, err
	}
	mf, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", p, err)
	}
	return mf, nil
}

// Library holds everything a manifest loaded, keyed by "object/name".
type Library struct {
	sprites map[string]*graphics.Sprite
	anims   map[string]*anim.Animation
	sounds  map[string]*audio.Sound
}

func newLibrary() *Library {
	return &Library{
		sprites: make(map[string]*graphics.Sprite),
		anims:   make(map[string]*anim.Animation),
		sounds:  make(map[string]*audio.Sound),
	}
}

// Sprite returns a loaded sprite or nil.
func (l *Library) Sprite(object, name string) *graphics.Sprite {
	return l.sprites[Key(object, name)]
}

// Animation returns a loaded animation or nil.
func (l *Library) Animation(object, name string) *anim.Animation {
	return l.anims[Key(object, name)]
}

// Sound returns a loaded sound or nil.
func (l *Library) Sound(object, name string) *audio.Sound {
	return l.sounds[Key(object, name)]
}

// Counts returns how many sprites, animations and sounds are loaded.
func (l *Library) Counts() (sprites, anims, sounds int) {
	return len(l.sprites), len(l.anims), len(l.sounds)
}

// Close unloads every asset in the library.
func (l *Library) Close() error {
	var err error
	for _, s := range l.sounds {
		err = multierr.Append(err, s.Close())
	}
	for _, a := range l.anims {
		err = multierr.Append(err, a.Destroy(true))
	}
	for _, s := range l.sprites {
		err = multierr.Append(err, s.Unload())
	}
	l.sounds = map[string]*audio.Sound{}
	l.anims = map[string]*anim.Animation{}
	l.sprites = map[string]*graphics.Sprite{}
	return err
}

func sorted[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LoadLibrary loads every asset named by mf. Music streams, effects are
// buffered. Sounds are skipped when sounds is nil. On failure everything
// loaded so far is released.
func (m *Manager) LoadLibrary(ctx *graphics.Context, sounds *audio.Manager, mf *Manifest) (*Library, error) {
	lib := newLibrary()
	if err := m.fillLibrary(lib, ctx, sounds, mf); err != nil {
		return nil, multierr.Append(err, lib.Close())
	}
	spr, an, snd := lib.Counts()
	m.log.Info("loaded asset library",
		zap.Int("sprites", spr),
		zap.Int("animations", an),
		zap.Int("sounds", snd))
	return lib, nil
}

func (m *Manager) fillLibrary(lib *Library, ctx *graphics.Context, sounds *audio.Manager, mf *Manifest) error {
	for _, object := range sorted(mf.Sprites) {
		for _, name := range mf.Sprites[object] {
			sprite, err := m.LoadSprite(ctx, SpritePath(object, name))
			if err != nil {
				return err
			}
			lib.sprites[Key(object, name)] = sprite
		}
	}

	for _, object := range sorted(mf.Animations) {
		specs := mf.Animations[object]
		for _, name := range sorted(specs) {
			a, err := m.LoadAnimation(ctx, object, name, specs[name])
			if err != nil {
				return err
			}
			lib.anims[Key(object, name)] = a
		}
	}

	if sounds == nil {
		return nil
	}
	load := func(category string, entries map[string][]string, c audio.Category, buffered bool) error {
		for _, object := range sorted(entries) {
			for _, name := range entries[object] {
				s, err := m.LoadSound(sounds, SoundPath(category, object, name), c, buffered)
				if err != nil {
					return err
				}
				lib.sounds[Key(object, name)] = s
			}
		}
		return nil
	}
	if err := load("ost", mf.Sounds.OST, audio.Music, false); err != nil {
		return err
	}
	return load("sfx", mf.Sounds.SFX, audio.Effect, true)
}

// LoadAnimation loads the numbered frames of an animation.
func (m *Manager) LoadAnimation(ctx *graphics.Context, object, name string, spec AnimationSpec) (*anim.Animation, error) {
	if spec.Frames <= 0 || spec.Duration <= 0 {
		return nil, fmt.Errorf("%w: animation %s needs frames and a duration", fault.ErrIllegalArgument, Key(object, name))
	}

	a := anim.New(spec.Frames)
	a.SetLooping(spec.Loop, spec.PingPong)
	frame := spec.Duration / time.Duration(spec.Frames)
	for i := range spec.Frames {
		sprite, err := m.LoadSprite(ctx, FramePath(object, name, i))
		if err != nil {
			return nil, multierr.Append(err, a.Destroy(true))
		}
		if err := a.Add(sprite, frame); err != nil {
			return nil, multierr.Combine(err, sprite.Unload(), a.Destroy(true))
		}
	}
	return a, nil
}
