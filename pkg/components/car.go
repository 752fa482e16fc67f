package components

import (
	"github.com/decker502/crashthatcar/pkg/ecs"
	"github.com/decker502/crashthatcar/pkg/types"
)

// CarComponent 玩家车辆
// 位置与速度由物理世界持有，这里只记录身份和本回合的起点
type CarComponent struct {
	Player        types.PlayerID
	Handle        types.Handle
	StartPosition types.Vec3   // 加载时记录，重开时恢复
	Barrier       ecs.EntityID // 所属护栏的实体ID
}

// BarrierComponent 车头前方的传感器护栏
type BarrierComponent struct {
	Owner         types.PlayerID
	Handle        types.Handle
	StartPosition types.Vec3
	Offset        types.Vec3 // 相对车辆位置的偏移
}

// LineComponent 终点线、边界线、中线等静态节点
type LineComponent struct {
	Handle   types.Handle
	Category PhysicsCategory
}
