package scenes

import (
	"math"

	"github.com/decker502/crashthatcar/pkg/game"
	"github.com/decker502/crashthatcar/pkg/types"
	"github.com/decker502/crashthatcar/pkg/utils"
)

// 跟随镜头每秒追上剩余距离的比例
const cameraFollowRate = 6.0

type cameraLeg struct {
	from, to types.Vec3
	duration float64
}

// CameraRig game.Camera 的实现，驱动俯视投影的镜头位置
//
// MoveCamera 的路径按段缓动播放，播放期间忽略 Track；
// 路径结束后 Track 平滑地把镜头拉向目标 X。
type CameraRig struct {
	projection *utils.Projection

	legs     []cameraLeg
	legAge   float64
	position types.Vec3

	tracking    bool
	trackTarget float64
}

var _ game.Camera = (*CameraRig)(nil)

// NewCameraRig 创建镜头，初始位置为 start
func NewCameraRig(projection *utils.Projection, start types.Vec3) *CameraRig {
	rig := &CameraRig{projection: projection, position: start}
	rig.apply()
	return rig
}

func (c *CameraRig) MoveCamera(path []types.Vec3, durations []float64) {
	c.legs = c.legs[:0]
	c.legAge = 0
	c.tracking = false

	from := c.position
	for i, to := range path {
		d := 0.0
		if i < len(durations) {
			d = durations[i]
		}
		c.legs = append(c.legs, cameraLeg{from: from, to: to, duration: d})
		from = to
	}
}

func (c *CameraRig) Track(x float64) {
	c.tracking = true
	c.trackTarget = x
}

// Position 当前镜头位置
func (c *CameraRig) Position() types.Vec3 {
	return c.position
}

// Moving 是否正在播放路径
func (c *CameraRig) Moving() bool {
	return len(c.legs) > 0
}

// Update 推进路径或跟随
func (c *CameraRig) Update(dt float64) {
	switch {
	case len(c.legs) > 0:
		c.legAge += dt
		for len(c.legs) > 0 && c.legAge >= c.legs[0].duration {
			c.legAge -= c.legs[0].duration
			c.position = c.legs[0].to
			c.legs = c.legs[1:]
		}
		if len(c.legs) > 0 {
			leg := c.legs[0]
			t := utils.EaseInOutCubic(utils.Clamp01(c.legAge / leg.duration))
			c.position = types.Vec3{
				X: utils.Lerp(leg.from.X, leg.to.X, t),
				Y: utils.Lerp(leg.from.Y, leg.to.Y, t),
				Z: utils.Lerp(leg.from.Z, leg.to.Z, t),
			}
		}
	case c.tracking:
		k := math.Min(1, cameraFollowRate*dt)
		c.position.X += (c.trackTarget - c.position.X) * k
	}
	c.apply()
}

func (c *CameraRig) apply() {
	c.projection.CameraX = c.position.X
}
