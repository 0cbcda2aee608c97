package audio

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/titlecard/internal/engine/fault"
)

// writeWAV writes length worth of silence sampled at rate and returns
// the file path.
func writeWAV(t *testing.T, rate beep.SampleRate, length time.Duration) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	format := beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
	require.NoError(t, wav.Encode(f, beep.Silence(rate.N(length)), format))
	return path
}

func openWAV(t *testing.T, path string) *Source {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	src, err := Decode(f, FormatWAV)
	require.NoError(t, err)
	return src
}

func newManager() (*Manager, *SilentMixer) {
	mixer := NewSilentMixer(DefaultSampleRate)
	return New(mixer, nil), mixer
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"title_theme_intro.ogg", FormatOGG},
		{"SELECT.WAV", FormatWAV},
		{"music/loop.mp3", FormatMP3},
		{"readme.txt", FormatUnknown},
		{"noext", FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatOf(tt.name))
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode(io.NopCloser(strings.NewReader("")), FormatUnknown)
	assert.True(t, errors.Is(err, fault.ErrUnsupported))

	_, err = Decode(io.NopCloser(strings.NewReader("not a wave file")), FormatWAV)
	assert.True(t, errors.Is(err, fault.ErrIO))
}

func TestSource_Info(t *testing.T) {
	src := openWAV(t, writeWAV(t, 22050, 100*time.Millisecond))
	defer src.Close()

	assert.Equal(t, Info{SampleRate: 22050, Channels: 2, BitsPerSample: 16}, src.Info())
}

func TestSound_PlayPauseStop(t *testing.T) {
	m, mixer := newManager()
	defer m.Close()

	s, err := m.Buffer("effect", openWAV(t, writeWAV(t, DefaultSampleRate, time.Second)), Effect)
	require.NoError(t, err)
	assert.Equal(t, time.Second, s.Length())
	assert.Equal(t, Stopped, s.State())

	require.NoError(t, s.Play())
	assert.Equal(t, Playing, s.State())
	assert.Equal(t, 1, mixer.Playing())

	mixer.Advance(500 * time.Millisecond)
	assert.Equal(t, 500*time.Millisecond, s.Offset())

	s.Pause()
	assert.Equal(t, Paused, s.State())
	mixer.Advance(200 * time.Millisecond)
	assert.Equal(t, 500*time.Millisecond, s.Offset())
	assert.Equal(t, 0, mixer.Playing())

	require.NoError(t, s.Play())
	mixer.Advance(250 * time.Millisecond)
	assert.Equal(t, 750*time.Millisecond, s.Offset())

	s.Stop()
	assert.Equal(t, Stopped, s.State())
	assert.Equal(t, time.Duration(0), s.Offset())
}

func TestSound_PlayTwiceKeepsOneVoice(t *testing.T) {
	m, mixer := newManager()
	defer m.Close()

	s, err := m.Buffer("effect", openWAV(t, writeWAV(t, DefaultSampleRate, time.Second)), Effect)
	require.NoError(t, err)

	require.NoError(t, s.Play())
	require.NoError(t, s.Play())
	mixer.Advance(100 * time.Millisecond)
	assert.Equal(t, 1, mixer.Playing())
	assert.Equal(t, 100*time.Millisecond, s.Offset())
}

func TestSound_EndsAndRestarts(t *testing.T) {
	m, mixer := newManager()
	defer m.Close()

	s, err := m.Buffer("effect", openWAV(t, writeWAV(t, DefaultSampleRate, 200*time.Millisecond)), Effect)
	require.NoError(t, err)

	require.NoError(t, s.Play())
	mixer.Advance(time.Second)
	assert.Equal(t, Stopped, s.State())
	assert.Equal(t, 0, mixer.Playing())

	require.NoError(t, s.Play())
	assert.Equal(t, time.Duration(0), s.Offset())
	assert.Equal(t, Playing, s.State())
}

func TestSound_Loop(t *testing.T) {
	m, mixer := newManager()
	defer m.Close()

	s, err := m.Buffer("theme", openWAV(t, writeWAV(t, DefaultSampleRate, time.Second)), Music)
	require.NoError(t, err)
	s.SetLooping(true)
	assert.True(t, s.Looping())

	require.NoError(t, s.Play())
	mixer.Advance(1500 * time.Millisecond)
	assert.Equal(t, Playing, s.State())
	assert.Equal(t, 500*time.Millisecond, s.Offset())
}

func TestSound_Streamed(t *testing.T) {
	m, mixer := newManager()
	defer m.Close()

	s, err := m.Stream("theme", openWAV(t, writeWAV(t, DefaultSampleRate, time.Second)), Music)
	require.NoError(t, err)
	require.NoError(t, s.Play())
	mixer.Advance(250 * time.Millisecond)
	assert.Equal(t, 250*time.Millisecond, s.Offset())

	require.NoError(t, s.Close())
	assert.Equal(t, 0, m.Sounds())
}

func TestSound_Resampled(t *testing.T) {
	m, mixer := newManager()
	defer m.Close()

	s, err := m.Buffer("effect", openWAV(t, writeWAV(t, 22050, 200*time.Millisecond)), Effect)
	require.NoError(t, err)
	assert.Equal(t, 200*time.Millisecond, s.Length())

	require.NoError(t, s.Play())
	mixer.Advance(100 * time.Millisecond)
	assert.Equal(t, Playing, s.State())

	mixer.Advance(time.Second)
	assert.Equal(t, Stopped, s.State())
}

func TestSound_Offsets(t *testing.T) {
	m, _ := newManager()
	defer m.Close()

	s, err := m.Buffer("effect", openWAV(t, writeWAV(t, DefaultSampleRate, time.Second)), Effect)
	require.NoError(t, err)

	err = s.SetOffset(-time.Millisecond)
	assert.True(t, errors.Is(err, fault.ErrIllegalArgument))

	require.NoError(t, s.SetOffset(2*time.Second))
	assert.Equal(t, time.Second, s.Offset())

	require.NoError(t, s.Skip(-300*time.Millisecond))
	assert.Equal(t, 700*time.Millisecond, s.Offset())

	require.NoError(t, s.Skip(-5*time.Second))
	assert.Equal(t, time.Duration(0), s.Offset())
}

func TestSound_Volume(t *testing.T) {
	m, _ := newManager()
	defer m.Close()

	s, err := m.Buffer("theme", openWAV(t, writeWAV(t, DefaultSampleRate, 100*time.Millisecond)), Music)
	require.NoError(t, err)

	s.SetVolume(2)
	assert.Equal(t, 1.0, s.Volume())
	s.SetVolume(-1)
	assert.Equal(t, 0.0, s.Volume())
	s.SetVolume(0.5)
	s.AdjustVolume(0.25)
	assert.InDelta(t, 0.75, s.Volume(), 1e-9)

	s.SetVolume(1)
	m.SetMasterVolume(0.5)
	m.SetCategoryVolume(Music, 0.5)
	m.SetCategoryVolume(Effect, 0)
	assert.InDelta(t, 0.25, s.EffectiveVolume(), 1e-9)
	assert.Equal(t, 0.0, m.CategoryVolume(Effect))

	m.SetMuted(true)
	assert.True(t, m.Muted())
	assert.Equal(t, 0.0, s.EffectiveVolume())
	assert.Equal(t, 1.0, s.Volume())
}

func TestManager_Close(t *testing.T) {
	m, mixer := newManager()

	a, err := m.Buffer("a", openWAV(t, writeWAV(t, DefaultSampleRate, time.Second)), Effect)
	require.NoError(t, err)
	b, err := m.Stream("b", openWAV(t, writeWAV(t, DefaultSampleRate, time.Second)), Music)
	require.NoError(t, err)
	require.NoError(t, b.Play())
	assert.Equal(t, 2, m.Sounds())

	require.NoError(t, m.Close())
	assert.Equal(t, 0, m.Sounds())
	assert.Equal(t, Stopped, b.State())
	assert.Equal(t, 0, mixer.Playing())

	err = a.Play()
	assert.True(t, errors.Is(err, fault.ErrIllegalState))
	assert.NoError(t, a.Close())
}
