// Package anim sequences sprites into timed animations.
//
// An Animation is a list of frames, each a sprite shown for a fixed
// duration. Update advances a cursor through the frames, forwards or
// backwards, stopping at the ends, wrapping, or bouncing back and forth
// depending on the loop settings.
package anim

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/titlecard/internal/engine/fault"
	"github.com/Faultbox/titlecard/internal/engine/graphics"
)

// Animation is a timed sequence of sprites.
type Animation struct {
	maxFrames int
	frames    []*graphics.Sprite
	durations []time.Duration

	timer   time.Duration
	current int

	loop      bool
	pingPong  bool
	backwards bool
	finished  bool

	offset mgl32.Vec3
}

// New creates an empty animation that loops by default. maxFrames caps the
// number of frames; zero means no cap.
func New(maxFrames int) *Animation {
	if maxFrames < 0 {
		panic("anim: negative frame capacity")
	}
	return &Animation{
		maxFrames: maxFrames,
		loop:      true,
	}
}

// Add appends sprite as a frame shown for d.
func (a *Animation) Add(sprite *graphics.Sprite, d time.Duration) error {
	if sprite == nil {
		return fmt.Errorf("%w: nil sprite", fault.ErrIllegalArgument)
	}
	if d <= 0 {
		return fmt.Errorf("%w: frame duration must be positive, got %s", fault.ErrIllegalArgument, d)
	}
	if a.maxFrames > 0 && len(a.frames) >= a.maxFrames {
		return fmt.Errorf("%w: max frame count %d reached", fault.ErrOutOfMemory, a.maxFrames)
	}

	a.frames = append(a.frames, sprite)
	a.durations = append(a.durations, d)
	return nil
}

// Len returns the number of frames.
func (a *Animation) Len() int {
	return len(a.frames)
}

// Cap returns the frame capacity, zero if unbounded.
func (a *Animation) Cap() int {
	return a.maxFrames
}

func (a *Animation) checkIndex(i int) error {
	if i < 0 || i >= len(a.frames) {
		return fmt.Errorf("%w: index %d for animation with %d frames", fault.ErrOutOfBounds, i, len(a.frames))
	}
	return nil
}

// Sprite returns the sprite of frame i.
func (a *Animation) Sprite(i int) (*graphics.Sprite, error) {
	if err := a.checkIndex(i); err != nil {
		return nil, err
	}
	return a.frames[i], nil
}

// SetSprite replaces the sprite of frame i.
func (a *Animation) SetSprite(i int, sprite *graphics.Sprite) error {
	if err := a.checkIndex(i); err != nil {
		return err
	}
	if sprite == nil {
		return fmt.Errorf("%w: nil sprite", fault.ErrIllegalArgument)
	}
	a.frames[i] = sprite
	return nil
}

// Duration returns how long frame i is shown.
func (a *Animation) Duration(i int) (time.Duration, error) {
	if err := a.checkIndex(i); err != nil {
		return 0, err
	}
	return a.durations[i], nil
}

// SetDuration changes how long frame i is shown.
func (a *Animation) SetDuration(i int, d time.Duration) error {
	if err := a.checkIndex(i); err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("%w: frame duration must be positive, got %s", fault.ErrIllegalArgument, d)
	}
	a.durations[i] = d
	return nil
}

// TotalDuration returns the sum of all frame durations.
func (a *Animation) TotalDuration() time.Duration {
	var total time.Duration
	for _, d := range a.durations {
		total += d
	}
	return total
}

// Timer returns the time accumulated on the current frame.
func (a *Animation) Timer() time.Duration {
	return a.timer
}

// Finished reports whether a non-looping animation reached its end.
func (a *Animation) Finished() bool {
	return a.finished
}

// CurrentFrame returns the index of the frame being shown.
func (a *Animation) CurrentFrame() int {
	return a.current
}

// SetCurrentFrame jumps to frame i and resets the timer.
func (a *Animation) SetCurrentFrame(i int) error {
	if err := a.checkIndex(i); err != nil {
		return err
	}
	a.timer = 0
	a.finished = false
	a.current = i
	return nil
}

// Current returns the sprite being shown, or nil without frames.
func (a *Animation) Current() *graphics.Sprite {
	if len(a.frames) == 0 {
		return nil
	}
	return a.frames[a.current]
}

// Restart rewinds to the first frame, or the last when playing backwards.
func (a *Animation) Restart() {
	if len(a.frames) == 0 {
		return
	}
	a.timer = 0
	a.finished = false
	if a.backwards {
		a.current = len(a.frames) - 1
	} else {
		a.current = 0
	}
}

// Looping returns the loop settings.
func (a *Animation) Looping() (loop, pingPong bool) {
	return a.loop, a.pingPong
}

// SetLooping sets the loop settings. Ping-pong requires looping.
func (a *Animation) SetLooping(loop, pingPong bool) {
	a.loop = loop
	a.pingPong = loop && pingPong
}

// Backwards reports whether frames step towards index 0.
func (a *Animation) Backwards() bool {
	return a.backwards
}

// PlayBackwards sets the step direction. The current frame is unchanged.
func (a *Animation) PlayBackwards(backwards bool) {
	a.backwards = backwards
}

// Offset returns the offset added to draw positions.
func (a *Animation) Offset() mgl32.Vec3 {
	return a.offset
}

// SetOffset sets the offset added to draw positions.
func (a *Animation) SetOffset(x, y, z float32) {
	a.offset = mgl32.Vec3{x, y, z}
}

// MoveOffset adds to the draw offset.
func (a *Animation) MoveOffset(x, y, z float32) {
	a.offset = a.offset.Add(mgl32.Vec3{x, y, z})
}

// Update advances the animation by delta. Large deltas step through as many
// frames as they cover.
func (a *Animation) Update(delta time.Duration) {
	if delta < 0 {
		panic(fmt.Sprintf("anim: negative delta %s", delta))
	}
	n := len(a.frames)
	if n == 0 {
		return
	}

	a.timer += delta
	for a.timer >= a.durations[a.current] {
		a.timer -= a.durations[a.current]
		if a.backwards {
			a.current--
		} else {
			a.current++
		}

		switch {
		case a.current < 0:
			a.current = 0
			if !a.loop {
				a.timer = 0
				a.finished = true
				return
			}
			a.finished = false
			if a.pingPong {
				a.current = min(1, n-1)
				a.backwards = false
			} else {
				a.current = n - 1
			}

		case a.current >= n:
			a.current = n - 1
			if !a.loop {
				a.timer = 0
				a.finished = true
				return
			}
			a.finished = false
			if a.pingPong {
				a.current = max(n-2, 0)
				a.backwards = true
			} else {
				a.current = 0
			}
		}
	}
}

// Draw draws the current frame into scene at (x, y, z) plus the offset.
func (a *Animation) Draw(scene *graphics.Scene, x, y, z float32) error {
	sprite := a.Current()
	if sprite == nil {
		return fmt.Errorf("%w: animation has no frames", fault.ErrIllegalState)
	}
	return scene.DrawSprite(sprite, x+a.offset[0], y+a.offset[1], z+a.offset[2])
}

// DrawAtOffset draws the current frame at the offset alone.
func (a *Animation) DrawAtOffset(scene *graphics.Scene) error {
	return a.Draw(scene, 0, 0, 0)
}

// Destroy drops every frame. With unloadSprites it also unloads each
// distinct sprite; nothing is unloaded if any frame is a scene's sprite.
func (a *Animation) Destroy(unloadSprites bool) error {
	if unloadSprites {
		for i, s := range a.frames {
			if s.Scene() != nil {
				return fmt.Errorf("%w: frame %d is the sprite of a scene", fault.ErrIllegalArgument, i)
			}
		}

		seen := make(map[*graphics.Sprite]bool, len(a.frames))
		for _, s := range a.frames {
			if seen[s] || !s.Loaded() {
				continue
			}
			seen[s] = true
			if err := s.Unload(); err != nil {
				return err
			}
		}
	}

	a.frames = nil
	a.durations = nil
	a.current = 0
	a.timer = 0
	a.finished = false
	return nil
}
