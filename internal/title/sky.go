package title

import (
	"math"

	"go.uber.org/multierr"

	"github.com/Faultbox/titlecard/internal/engine/graphics"
)

// Placement found by moving the camera around; the perspective makes these
// sensitive.
const (
	planetX = 20
	planetY = -25

	numClouds   = 2
	cloudSpeed  = 0.05
	cloudX      = 0
	cloudY      = 90
	cloudFinalZ = 128
	cloudTiltX  = 1.67
	cloudAlpha  = 0.9

	numLakes     = 4
	lakeSpeed    = 0.1
	lakeInitialX = -320
	lakeFinalX   = 320
	lakeY        = 160
	lakeZ        = 0
	lakeXScale   = 1.025
	lakeTiltX    = 0.8

	skyFOV = 90
)

func cloudInitialZ(i int) float32 { return -(256 + 64*float32(i)) }

func lakeStartX(i int) float32 { return 256*float32(i) - 64 }

// sky is the perspective backdrop behind the title card.
type sky struct {
	backdrop *graphics.Sprite
	planet   *graphics.Sprite
	clouds   *graphics.Sprite
	lake     *graphics.Sprite

	cloudZ [numClouds]float32
	lakeX  [numLakes]float32

	proj  *graphics.Projection
	scene *graphics.Scene
}

func (sk *sky) init(ctx *graphics.Context, s *State) error {
	*sk = sky{
		backdrop: s.sprites["sky"],
		planet:   s.sprites["little_planet"],
		clouds:   s.sprites["clouds"],
		lake:     s.sprites["lake"],
	}

	sk.planet.SetOffset(ScreenWidth-96+planetX, planetY, 0)

	sk.clouds.SetAlpha(cloudAlpha)
	sk.clouds.RotateTo(cloudTiltX, 0, 0)
	for i := range sk.cloudZ {
		sk.cloudZ[i] = cloudInitialZ(i)
	}

	sk.lake.SetScale(lakeXScale, 1, 1)
	sk.lake.RotateTo(lakeTiltX, 0, 0)
	for i := range sk.lakeX {
		sk.lakeX[i] = lakeStartX(i)
	}

	proj, err := graphics.NewPerspective(skyFOV, ScreenWidth, ScreenHeight, 0.1, 1000)
	if err != nil {
		return err
	}
	scene, err := ctx.CreateScene(proj, ScreenWidth, ScreenHeight)
	if err != nil {
		return multierr.Append(err, proj.Destroy())
	}
	scene.CenterCamera()
	sk.proj, sk.scene = proj, scene
	return nil
}

func (sk *sky) deinit() error {
	var err error
	if sk.scene != nil {
		err = sk.scene.Destroy()
	}
	if sk.proj != nil {
		err = multierr.Append(err, sk.proj.Destroy())
	}
	*sk = sky{}
	return err
}

// update scrolls the clouds towards the camera and the lakes sideways. A
// long frame may carry a sprite past its end more than once.
func (sk *sky) update(ms float32) {
	for i := range sk.cloudZ {
		z := sk.cloudZ[i] + cloudSpeed*ms
		for z >= cloudFinalZ {
			z = cloudInitialZ(i) + (z - cloudFinalZ)
		}
		sk.cloudZ[i] = z
	}
	for i := range sk.lakeX {
		x := sk.lakeX[i] + lakeSpeed*ms
		for x >= lakeFinalX {
			x = lakeInitialX + (x - lakeFinalX)
		}
		sk.lakeX[i] = x
	}
}

// render draws the sky into target. now is the clock time in seconds and
// bobs the planet up and down.
func (sk *sky) render(target *graphics.Scene, now float64) error {
	if err := sk.scene.Clear(); err != nil {
		return err
	}
	if err := sk.scene.DrawSpriteAtOffset(sk.backdrop); err != nil {
		return err
	}

	bob := float32(math.Sin(now) * 5)
	if err := sk.scene.DrawSprite(sk.planet, 0, bob, 0); err != nil {
		return err
	}
	for _, z := range sk.cloudZ {
		if err := sk.scene.DrawSprite(sk.clouds, cloudX, cloudY, z); err != nil {
			return err
		}
	}
	for _, x := range sk.lakeX {
		if err := sk.scene.DrawSprite(sk.lake, x, lakeY, lakeZ); err != nil {
			return err
		}
	}
	return target.DrawScene(sk.scene, 0, 0, 0)
}
