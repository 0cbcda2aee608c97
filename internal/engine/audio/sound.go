package audio

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/titlecard/internal/engine/fault"
)

// State is the playback state of a sound.
type State int32

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// Category groups sounds under a shared volume.
type Category int

const (
	Music Category = iota
	Effect
)

func (c Category) String() string {
	if c == Music {
		return "music"
	}
	return "effect"
}

const resampleQuality = 4

// Manager owns every sound played through a mixer and applies the master
// and category volumes to them.
type Manager struct {
	mixer Mixer
	log   *zap.Logger

	mu     sync.Mutex
	master float64
	music  float64
	effect float64
	muted  bool
	sounds map[*Sound]struct{}
}

// New creates a manager playing through mixer. The manager takes ownership
// of the mixer and closes it in Close.
func New(mixer Mixer, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		mixer:  mixer,
		log:    log,
		master: 1,
		music:  1,
		effect: 1,
		sounds: make(map[*Sound]struct{}),
	}
}

func clampVolume(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// MasterVolume returns the volume applied to every sound.
func (m *Manager) MasterVolume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.master
}

// SetMasterVolume sets the volume applied to every sound, clamped to [0, 1].
func (m *Manager) SetMasterVolume(v float64) {
	m.mu.Lock()
	m.master = clampVolume(v)
	m.mu.Unlock()
	m.refresh()
}

// CategoryVolume returns the volume of a category.
func (m *Manager) CategoryVolume(c Category) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c == Music {
		return m.music
	}
	return m.effect
}

// SetCategoryVolume sets the volume of a category, clamped to [0, 1].
func (m *Manager) SetCategoryVolume(c Category, v float64) {
	m.mu.Lock()
	if c == Music {
		m.music = clampVolume(v)
	} else {
		m.effect = clampVolume(v)
	}
	m.mu.Unlock()
	m.refresh()
}

// Muted reports whether all sound is silenced.
func (m *Manager) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

// SetMuted silences every sound without touching their volumes.
func (m *Manager) SetMuted(muted bool) {
	m.mu.Lock()
	m.muted = muted
	m.mu.Unlock()
	m.refresh()
}

func (m *Manager) gain(c Category) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.muted {
		return 0
	}
	if c == Music {
		return m.master * m.music
	}
	return m.master * m.effect
}

func (m *Manager) refresh() {
	m.mu.Lock()
	sounds := make([]*Sound, 0, len(m.sounds))
	for s := range m.sounds {
		sounds = append(sounds, s)
	}
	m.mu.Unlock()

	for _, s := range sounds {
		s.applyGain()
	}
}

// Buffer decodes all of src into memory and closes it. Meant for short
// effects.
func (m *Manager) Buffer(name string, src *Source, c Category) (*Sound, error) {
	buf := beep.NewBuffer(src.format)
	buf.Append(src.streamer)
	err := src.streamer.Err()
	if cerr := src.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: buffer %s: %w", fault.ErrIO, name, err)
	}
	s := m.track(name, c, nil, buf.Streamer(0, buf.Len()), src.format)
	m.log.Debug("buffered sound",
		zap.String("name", name),
		zap.Stringer("category", c),
		zap.Duration("length", s.Length()))
	return s, nil
}

// Stream plays src directly from its decoder. The sound owns src.
func (m *Manager) Stream(name string, src *Source, c Category) (*Sound, error) {
	s := m.track(name, c, src, src.streamer, src.format)
	m.log.Debug("streaming sound",
		zap.String("name", name),
		zap.Stringer("category", c),
		zap.Duration("length", s.Length()))
	return s, nil
}

func (m *Manager) track(name string, c Category, src *Source, seeker beep.StreamSeeker, format beep.Format) *Sound {
	s := &Sound{
		mgr:      m,
		name:     name,
		category: c,
		src:      src,
		seeker:   seeker,
		format:   format,
		volume:   1,
	}
	m.mu.Lock()
	m.sounds[s] = struct{}{}
	m.mu.Unlock()
	return s
}

func (m *Manager) forget(s *Sound) {
	m.mu.Lock()
	delete(m.sounds, s)
	m.mu.Unlock()
}

// Sounds returns the number of open sounds.
func (m *Manager) Sounds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sounds)
}

// Close closes every open sound and then the mixer.
func (m *Manager) Close() error {
	m.mu.Lock()
	sounds := make([]*Sound, 0, len(m.sounds))
	for s := range m.sounds {
		sounds = append(sounds, s)
	}
	m.mu.Unlock()

	var err error
	for _, s := range sounds {
		err = multierr.Append(err, s.Close())
	}
	return multierr.Append(err, m.mixer.Close())
}

// Sound is a playable sound. The seeker and the gain stage are only
// touched while the mixer is locked.
type Sound struct {
	mgr      *Manager
	name     string
	category Category
	src      *Source
	seeker   beep.StreamSeeker
	format   beep.Format

	gen  uint64
	gain *effects.Volume

	state  atomic.Int32
	loop   atomic.Bool
	closed atomic.Bool

	mu     sync.Mutex
	volume float64
}

// Name returns the name the sound was loaded under.
func (s *Sound) Name() string { return s.name }

// Category returns the volume group the sound belongs to.
func (s *Sound) Category() Category { return s.category }

// State returns the playback state.
func (s *Sound) State() State {
	return State(s.state.Load())
}

// Length returns the total duration of the sound.
func (s *Sound) Length() time.Duration {
	return s.format.SampleRate.D(s.seeker.Len())
}

// Play starts the sound from the beginning when stopped, or resumes it
// when paused.
func (s *Sound) Play() error {
	if s.closed.Load() {
		return fmt.Errorf("%w: sound %s is closed", fault.ErrIllegalState, s.name)
	}
	mixer := s.mgr.mixer

	mixer.Lock()
	prev := s.State()
	if prev == Playing {
		mixer.Unlock()
		return nil
	}
	if prev == Stopped {
		if err := s.seeker.Seek(0); err != nil {
			mixer.Unlock()
			return fmt.Errorf("%w: rewind %s: %w", fault.ErrIO, s.name, err)
		}
	}
	s.gen++
	s.rewire()
	s.state.Store(int32(Playing))
	v := &voice{sound: s, gen: s.gen}
	mixer.Unlock()

	mixer.Add(v)
	return nil
}

// Pause halts the sound, keeping its offset.
func (s *Sound) Pause() {
	mixer := s.mgr.mixer
	mixer.Lock()
	defer mixer.Unlock()
	if s.State() == Playing {
		s.gen++
		s.state.Store(int32(Paused))
	}
}

// Stop halts the sound and rewinds it.
func (s *Sound) Stop() {
	mixer := s.mgr.mixer
	mixer.Lock()
	defer mixer.Unlock()
	s.gen++
	s.state.Store(int32(Stopped))
	_ = s.seeker.Seek(0)
}

// Looping reports whether the sound restarts when it ends.
func (s *Sound) Looping() bool { return s.loop.Load() }

// SetLooping makes the sound restart from the beginning when it ends.
// It does not start or stop playback.
func (s *Sound) SetLooping(loop bool) { s.loop.Store(loop) }

// Volume returns the sound's own volume.
func (s *Sound) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// SetVolume sets the sound's own volume, clamped to [0, 1].
func (s *Sound) SetVolume(v float64) {
	s.mu.Lock()
	s.volume = clampVolume(v)
	s.mu.Unlock()
	s.applyGain()
}

// AdjustVolume adds delta to the sound's volume.
func (s *Sound) AdjustVolume(delta float64) {
	s.SetVolume(s.Volume() + delta)
}

// EffectiveVolume is the sound volume scaled by its category and the
// master volume.
func (s *Sound) EffectiveVolume() float64 {
	return s.mgr.gain(s.category) * s.Volume()
}

// Offset returns the playback position.
func (s *Sound) Offset() time.Duration {
	mixer := s.mgr.mixer
	mixer.Lock()
	defer mixer.Unlock()
	return s.format.SampleRate.D(s.seeker.Position())
}

// SetOffset seeks to d, clamped to the length of the sound.
func (s *Sound) SetOffset(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: negative offset %s", fault.ErrIllegalArgument, d)
	}
	mixer := s.mgr.mixer
	mixer.Lock()
	defer mixer.Unlock()
	return s.seek(d)
}

// Skip moves the playback position by d. Negative values rewind.
func (s *Sound) Skip(d time.Duration) error {
	mixer := s.mgr.mixer
	mixer.Lock()
	defer mixer.Unlock()
	return s.seek(max(0, s.format.SampleRate.D(s.seeker.Position())+d))
}

func (s *Sound) seek(d time.Duration) error {
	p := min(s.format.SampleRate.N(d), s.seeker.Len())
	if err := s.seeker.Seek(p); err != nil {
		return fmt.Errorf("%w: seek %s: %w", fault.ErrIO, s.name, err)
	}
	if s.State() == Playing {
		s.rewire()
	}
	return nil
}

// Close stops the sound and releases its decoder.
func (s *Sound) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.Stop()
	s.mgr.forget(s)
	if s.src != nil {
		return s.src.Close()
	}
	return nil
}

// rewire rebuilds the chain from the seeker to the mixer. Called with the
// mixer locked.
func (s *Sound) rewire() {
	var st beep.Streamer = reader{s}
	if rate := s.mgr.mixer.SampleRate(); rate != s.format.SampleRate {
		st = beep.Resample(resampleQuality, s.format.SampleRate, rate, st)
	}
	s.gain = &effects.Volume{Streamer: st, Base: 2}
	s.setGain(s.EffectiveVolume())
}

func (s *Sound) applyGain() {
	v := s.EffectiveVolume()
	mixer := s.mgr.mixer
	mixer.Lock()
	defer mixer.Unlock()
	s.setGain(v)
}

func (s *Sound) setGain(v float64) {
	if s.gain == nil {
		return
	}
	s.gain.Silent = v <= 0
	if v > 0 {
		s.gain.Volume = math.Log2(v)
	}
}

// reader pulls native samples from the seeker, wrapping around when the
// sound loops.
type reader struct{ sound *Sound }

func (r reader) Stream(samples [][2]float64) (int, bool) {
	s := r.sound
	filled := 0
	for filled < len(samples) {
		n, ok := s.seeker.Stream(samples[filled:])
		filled += n
		if ok && n > 0 {
			continue
		}
		if !s.loop.Load() || s.seeker.Len() == 0 {
			break
		}
		if err := s.seeker.Seek(0); err != nil {
			break
		}
	}
	return filled, filled > 0
}

func (r reader) Err() error { return r.sound.seeker.Err() }

// voice is a single play of a sound in the mixer. It drops out once the
// sound is paused, stopped or played again.
type voice struct {
	sound *Sound
	gen   uint64
}

func (v *voice) Stream(samples [][2]float64) (int, bool) {
	s := v.sound
	if s.gen != v.gen || s.State() != Playing {
		return 0, false
	}
	n, ok := s.gain.Stream(samples)
	if !ok {
		s.state.Store(int32(Stopped))
		return 0, false
	}
	return n, true
}

func (v *voice) Err() error { return v.sound.seeker.Err() }
