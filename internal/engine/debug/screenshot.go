// Package debug provides developer tooling for a running game.
package debug

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

const stampLayout = "2006-01-02_15-04-05.000"

// Screenshots writes captured frames as PNG files named
// <prefix>_<timestamp>.png.
type Screenshots struct {
	dir    string
	prefix string
	now    func() time.Time
}

// NewScreenshots saves into dir, which is created on first use.
func NewScreenshots(dir, prefix string) *Screenshots {
	return &Screenshots{dir: dir, prefix: prefix, now: time.Now}
}

// Dir returns the output directory.
func (s *Screenshots) Dir() string { return s.dir }

// Filename returns the path the next screenshot will be written to.
func (s *Screenshots) Filename() string {
	name := fmt.Sprintf("%s_%s.png", s.prefix, s.now().Format(stampLayout))
	if s.dir == "" {
		return name
	}
	return filepath.Join(s.dir, name)
}

// Save encodes img and returns the file it was written to.
func (s *Screenshots) Save(img image.Image) (string, error) {
	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0755); err != nil {
			return "", fmt.Errorf("creating screenshot dir: %w", err)
		}
	}

	filename := s.Filename()
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	return filename, file.Close()
}
