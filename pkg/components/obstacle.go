package components

import (
	"github.com/decker502/crashthatcar/pkg/types"
)

// ObstacleTag 障碍物生命周期状态
// 决定当前允许对该障碍物进行哪些交互
type ObstacleTag int

const (
	// ObstacleNormal 刚生成，静止在赛道上
	ObstacleNormal ObstacleTag = iota
	// ObstacleInBarrier 被某一方的护栏接住，可以被点击选中
	ObstacleInBarrier
	// ObstacleBeingShot 已被触摸选中，等待滑动手势
	ObstacleBeingShot
	// ObstacleShot 已被射出，正飞向对方车道
	ObstacleShot
	// ObstacleReadyToExplode 撞上对方护栏，点击即可引爆
	ObstacleReadyToExplode
)

// String 返回状态名称
func (t ObstacleTag) String() string {
	switch t {
	case ObstacleNormal:
		return "normal"
	case ObstacleInBarrier:
		return "inBarrier"
	case ObstacleBeingShot:
		return "beingShot"
	case ObstacleShot:
		return "shot"
	case ObstacleReadyToExplode:
		return "readyToExplode"
	default:
		return "unknown"
	}
}

// ObstacleComponent 障碍物数据
type ObstacleComponent struct {
	Handle  types.Handle // 插入世界后的句柄，0 表示尚未插入
	Tag     ObstacleTag
	SpeedUp bool // 加速障碍物变体
	Index   int  // 生成序号（同时决定插入延迟）
	Lane    types.PlayerID
	Palette int // 随机颜色下标

	// CapturedBy 第一次接住该障碍物的护栏所属玩家
	// 只有另一方的护栏才能把 Shot 推进到 ReadyToExplode
	CapturedBy types.PlayerID

	Transform types.Transform // 计划生成位置
}

// Inserted 障碍物是否已经插入世界
func (o *ObstacleComponent) Inserted() bool {
	return o.Handle != 0
}
