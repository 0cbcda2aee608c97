package graphics

import "github.com/go-gl/mathgl/mgl32"

// Camera is a scene's point of view. Drawing looks from the negated
// position toward the Z=0 plane.
type Camera struct {
	pos mgl32.Vec3
}

// Position returns the camera position.
func (c *Camera) Position() mgl32.Vec3 {
	return c.pos
}

// SetPosition places the camera.
func (c *Camera) SetPosition(x, y, z float32) {
	c.pos = mgl32.Vec3{x, y, z}
}

// Move shifts the camera by the given amounts.
func (c *Camera) Move(x, y, z float32) {
	c.pos = c.pos.Add(mgl32.Vec3{x, y, z})
}

// view returns the view matrix for the camera.
func (c *Camera) view() mgl32.Mat4 {
	eye := c.pos.Mul(-1)
	target := mgl32.Vec3{eye[0], eye[1], 0}
	if eye[2] == 0 {
		// Eye on the target plane; keep looking down -Z.
		target[2] = -1
	}
	return mgl32.LookAtV(eye, target, mgl32.Vec3{0, 1, 0})
}
