package systems

import (
	"github.com/decker502/crashthatcar/pkg/components"
)

// ObstacleTrigger 推进障碍物生命周期的事件
type ObstacleTrigger int

const (
	// TriggerBarrierContact 被护栏接住
	TriggerBarrierContact ObstacleTrigger = iota
	// TriggerTouchDown 被手指点中
	TriggerTouchDown
	// TriggerShotApplied 滑动手势产生了有效速度
	TriggerShotApplied
	// TriggerShotCancelled 手势在没有位移的情况下结束，BeingShot 回到 InBarrier
	// 这是生命周期中唯一的回退边，其余转移都只向前推进
	TriggerShotCancelled
	// TriggerOpposingBarrier 射出后撞上对方护栏
	TriggerOpposingBarrier
)

func (t ObstacleTrigger) String() string {
	switch t {
	case TriggerBarrierContact:
		return "barrierContact"
	case TriggerTouchDown:
		return "touchDown"
	case TriggerShotApplied:
		return "shotApplied"
	case TriggerShotCancelled:
		return "shotCancelled"
	case TriggerOpposingBarrier:
		return "opposingBarrier"
	default:
		return "unknown"
	}
}

type lifecycleKey struct {
	tag     components.ObstacleTag
	trigger ObstacleTrigger
}

// obstacleTransitions 生命周期转移表
// ReadyToExplode 被点中和任何状态被撞毁不在表内，它们直接销毁障碍物
var obstacleTransitions = map[lifecycleKey]components.ObstacleTag{
	{components.ObstacleNormal, TriggerBarrierContact}:   components.ObstacleInBarrier,
	{components.ObstacleInBarrier, TriggerTouchDown}:     components.ObstacleBeingShot,
	{components.ObstacleBeingShot, TriggerShotApplied}:   components.ObstacleShot,
	{components.ObstacleBeingShot, TriggerShotCancelled}: components.ObstacleInBarrier,
	{components.ObstacleShot, TriggerOpposingBarrier}:    components.ObstacleReadyToExplode,
}

// AdvanceObstacle 查表得到新状态
// 事件对当前状态无效时返回 ok=false，调用方应当忽略该事件
func AdvanceObstacle(tag components.ObstacleTag, trigger ObstacleTrigger) (components.ObstacleTag, bool) {
	next, ok := obstacleTransitions[lifecycleKey{tag, trigger}]
	return next, ok
}

// Detonatable 点击是否会引爆该障碍物
func Detonatable(tag components.ObstacleTag) bool {
	return tag == components.ObstacleReadyToExplode
}
