package components

import (
	"image/color"

	"github.com/decker502/crashthatcar/pkg/types"
)

// ParticleComponent 一个视觉粒子
//
// 粒子只存在于场景的表现层实体库中，不参与物理。
// 位置使用世界坐标，由 ParticleSystem 每帧积分；
// 透明度随 LifetimeComponent 的进度线性衰减。
type ParticleComponent struct {
	Position types.Vec3
	Velocity types.Vec3 // 米/秒
	Drag     float64    // 每秒速度衰减比例

	Size      float64 // 初始边长(米)
	EndSize   float64 // 消失时的边长(米)
	Color     color.RGBA
	Alpha     float64
	Additive  bool
}
