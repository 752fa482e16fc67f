// Package types 定义共享的基础类型
// 这个包不依赖任何其他业务包，用于解决循环引用问题
package types

import "math"

// Vec3 世界坐标系中的三维向量
// 约定：X 沿赛道前进方向，Y 向上，Z 为横向（两条车道分布在 Z 轴两侧）
type Vec3 struct {
	X, Y, Z float64
}

// Add 返回 v + o
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub 返回 v - o
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale 返回 v * s
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Length 返回向量长度
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Point 屏幕坐标系中的二维点（像素，Y 轴向下）
type Point struct {
	X, Y float64
}

// Sub 返回 p - o
func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

// Length 返回点到原点的距离
func (p Point) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

// Transform 实体的位置与欧拉角（弧度）
type Transform struct {
	Position Vec3
	Rotation Vec3
}
