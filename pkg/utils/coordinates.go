// Package utils 提供前端共用的工具函数
//
// coordinates.go 负责俯视投影下的坐标转换。
//
// # 坐标系统
//
//   - 世界坐标：X 沿赛道前进，Z 为横向，单位为米
//   - 屏幕坐标：相对游戏窗口左上角，单位为像素，Y 轴向下
//
// # 转换公式
//
//	screenX = (worldX - cameraX) * PixelsPerUnit + AnchorX
//	screenY = ScreenHeight/2 - worldZ * PixelsPerUnit
//
// cameraX 是镜头跟随点的世界 X 坐标，由镜头系统每帧更新。
// 世界 +Z 画在屏幕上方，与射击手势的方向约定一致（屏幕向上滑动得到 +Z 速度）。
package utils

import (
	"github.com/decker502/crashthatcar/pkg/config"
	"github.com/decker502/crashthatcar/pkg/types"
)

// Projection 俯视投影
// 零值不可用，请使用 NewProjection
type Projection struct {
	CameraX float64

	scale   float64
	anchorX float64
	centerY float64
}

// NewProjection 按布局常量创建投影
func NewProjection() *Projection {
	return &Projection{
		scale:   config.PixelsPerUnit,
		anchorX: config.CameraScreenAnchorX,
		centerY: config.GameWindowHeight / 2,
	}
}

// Scale 每个世界单位对应的像素数
func (p *Projection) Scale() float64 {
	return p.scale
}

// WorldToScreen 世界坐标转换为屏幕坐标（Y 分量被忽略）
func (p *Projection) WorldToScreen(v types.Vec3) types.Point {
	return types.Point{
		X: (v.X-p.CameraX)*p.scale + p.anchorX,
		Y: p.centerY - v.Z*p.scale,
	}
}

// ScreenToWorld 屏幕坐标转换为地面上的世界坐标（Y = 0）
func (p *Projection) ScreenToWorld(s types.Point) types.Vec3 {
	return types.Vec3{
		X: (s.X-p.anchorX)/p.scale + p.CameraX,
		Z: (p.centerY - s.Y) / p.scale,
	}
}
