package audio

import (
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/Faultbox/titlecard/internal/engine/fault"
)

// DefaultSampleRate is the default sample rate for audio playback.
const DefaultSampleRate = beep.SampleRate(44100)

// Mixer plays streamers on an output device.
type Mixer interface {
	SampleRate() beep.SampleRate
	// Add starts playing s. Must not be called while locked.
	Add(s beep.Streamer)
	// Lock stops the output from pulling samples until Unlock.
	Lock()
	Unlock()
	Close() error
}

// SpeakerMixer plays through the default output device.
type SpeakerMixer struct {
	rate  beep.SampleRate
	mixer *beep.Mixer
}

// NewSpeakerMixer initializes the speaker with a buffer of the given length.
func NewSpeakerMixer(rate beep.SampleRate, buffer time.Duration) (*SpeakerMixer, error) {
	if err := speaker.Init(rate, rate.N(buffer)); err != nil {
		return nil, fmt.Errorf("%w: init speaker: %w", fault.ErrPlatform, err)
	}
	m := &SpeakerMixer{rate: rate, mixer: &beep.Mixer{}}
	speaker.Play(beep.StreamerFunc(m.stream))
	return m, nil
}

// stream keeps the output alive with silence while nothing is playing.
func (m *SpeakerMixer) stream(samples [][2]float64) (int, bool) {
	n, _ := m.mixer.Stream(samples)
	clear(samples[n:])
	return len(samples), true
}

func (m *SpeakerMixer) SampleRate() beep.SampleRate { return m.rate }

func (m *SpeakerMixer) Add(s beep.Streamer) {
	speaker.Lock()
	m.mixer.Add(s)
	speaker.Unlock()
}

func (m *SpeakerMixer) Lock()   { speaker.Lock() }
func (m *SpeakerMixer) Unlock() { speaker.Unlock() }

// Close stops output and releases the device.
func (m *SpeakerMixer) Close() error {
	speaker.Clear()
	speaker.Close()
	return nil
}

// SilentMixer drops all output. Tests and headless runs pull samples from
// it with Advance.
type SilentMixer struct {
	rate  beep.SampleRate
	mixer beep.Mixer
}

// NewSilentMixer creates a mixer that plays into nothing.
func NewSilentMixer(rate beep.SampleRate) *SilentMixer {
	return &SilentMixer{rate: rate}
}

func (m *SilentMixer) SampleRate() beep.SampleRate { return m.rate }
func (m *SilentMixer) Add(s beep.Streamer)         { m.mixer.Add(s) }
func (m *SilentMixer) Lock()                       {}
func (m *SilentMixer) Unlock()                     {}
func (m *SilentMixer) Close() error                { m.mixer.Clear(); return nil }

// Playing returns the number of active streamers.
func (m *SilentMixer) Playing() int {
	return m.mixer.Len()
}

// Advance pulls d worth of samples through every active streamer.
func (m *SilentMixer) Advance(d time.Duration) {
	buf := make([][2]float64, 512)
	for n := m.rate.N(d); n > 0; {
		chunk := min(n, len(buf))
		m.mixer.Stream(buf[:chunk])
		n -= chunk
	}
}
