package headless

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/titlecard/internal/engine/backend"
	"github.com/Faultbox/titlecard/internal/engine/fault"
	"github.com/Faultbox/titlecard/internal/engine/input"
)

func TestTextures(t *testing.T) {
	b := New(nil)

	_, err := b.LoadTexture(2, 2, make([]byte, 15))
	assert.ErrorIs(t, err, fault.ErrIllegalArgument)
	_, err = b.LoadTexture(0, 2, nil)
	assert.ErrorIs(t, err, fault.ErrIllegalArgument)

	tex, err := b.LoadTexture(2, 2, make([]byte, 16))
	require.NoError(t, err)
	w, h := tex.Size()
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, h)
	assert.Equal(t, 1, b.LiveTextures())

	require.NoError(t, b.UnloadTexture(tex))
	assert.ErrorIs(t, b.UnloadTexture(tex), fault.ErrIllegalState)
	assert.Zero(t, b.LiveTextures())
}

func TestTargets(t *testing.T) {
	b := New(nil)

	target, err := b.CreateTarget(4, 3)
	require.NoError(t, err)
	tex, err := b.LoadTexture(1, 1, make([]byte, 4))
	require.NoError(t, err)

	require.NoError(t, b.Clear(target, mgl32.Vec4{1, 0, 0, 1}))
	require.NoError(t, b.Draw(target, backend.DrawCall{Texture: tex}))
	assert.ErrorIs(t, b.Draw(target, backend.DrawCall{}), fault.ErrIllegalArgument)
	require.Len(t, b.Clears, 1)
	require.Len(t, b.Draws, 1)
	assert.Same(t, target, backend.Target(b.Draws[0].Target))

	img, err := b.ReadTarget(target)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())
	// The recorded draw does not show up in the readback.
	for i := 0; i < len(img.Pix); i += 4 {
		require.Equal(t, []byte{255, 0, 0, 255}, img.Pix[i:i+4], "pixel %d", i/4)
	}

	b.Reset()
	assert.Empty(t, b.Draws)
	assert.Empty(t, b.Clears)

	require.NoError(t, b.DestroyTarget(target))
	assert.ErrorIs(t, b.Clear(target, mgl32.Vec4{}), fault.ErrIllegalState)
	_, err = b.ReadTarget(target)
	assert.ErrorIs(t, err, fault.ErrIllegalState)
	assert.Zero(t, b.LiveTargets())
}

func TestWindows(t *testing.T) {
	b := New(nil)

	win, err := b.CreateWindow(backend.WindowConfig{Title: "t", Width: 64, Height: 32, Hidden: true})
	require.NoError(t, err)
	assert.False(t, win.Visible())
	win.Show()
	assert.True(t, win.Visible())
	assert.Equal(t, 1, b.LiveWindows())

	require.NoError(t, b.Present(win, nil))
	require.Len(t, b.Presents, 1)
	assert.Nil(t, b.Presents[0].Call)

	require.NoError(t, b.DestroyWindow(win))
	assert.ErrorIs(t, b.DestroyWindow(win), fault.ErrIllegalState)
}

func TestEvents(t *testing.T) {
	b := New(nil)
	b.Push(input.Event{Type: input.EventKeyDown, Key: input.KeyEnter})
	b.Push(input.Event{Type: input.EventKeyUp, Key: input.KeyEnter})

	events := b.PollEvents()
	require.Len(t, events, 2)
	assert.Equal(t, input.EventKeyDown, events[0].Type)
	assert.Empty(t, b.PollEvents())
}
