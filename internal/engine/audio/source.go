package audio

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/Faultbox/titlecard/internal/engine/fault"
)

// Format is an encoded audio format.
type Format int

const (
	FormatUnknown Format = iota
	FormatWAV
	FormatOGG
	FormatMP3
)

func (f Format) String() string {
	switch f {
	case FormatWAV:
		return "wav"
	case FormatOGG:
		return "ogg"
	case FormatMP3:
		return "mp3"
	default:
		return "unknown"
	}
}

// FormatOf guesses the format from a file name's extension.
func FormatOf(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav", ".wave":
		return FormatWAV
	case ".ogg", ".oga":
		return FormatOGG
	case ".mp3":
		return FormatMP3
	default:
		return FormatUnknown
	}
}

// Info describes decoded PCM.
type Info struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// Source is a decoded, seekable PCM stream.
type Source struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
}

// Decode decodes r as f. The source takes ownership of r.
func Decode(r io.ReadCloser, f Format) (*Source, error) {
	var (
		s      beep.StreamSeekCloser
		format beep.Format
		err    error
	)
	switch f {
	case FormatWAV:
		s, format, err = wav.Decode(r)
	case FormatOGG:
		s, format, err = vorbis.Decode(r)
	case FormatMP3:
		s, format, err = mp3.Decode(r)
	default:
		r.Close()
		return nil, fmt.Errorf("%w: audio format %s", fault.ErrUnsupported, f)
	}
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("%w: decode %s: %w", fault.ErrIO, f, err)
	}
	return &Source{streamer: s, format: format}, nil
}

// Info returns the PCM properties of the source.
func (s *Source) Info() Info {
	return Info{
		SampleRate:    int(s.format.SampleRate),
		Channels:      s.format.NumChannels,
		BitsPerSample: s.format.Precision * 8,
	}
}

// Close releases the underlying decoder.
func (s *Source) Close() error {
	return s.streamer.Close()
}
